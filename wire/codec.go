/*
 *    Copyright 2018 INS Ecosystem
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */

package wire

import "github.com/fxamacker/cbor/v2"

// EncodeEnvelope serializes env to its wire form.
func EncodeEnvelope(env Envelope) ([]byte, error) {
	return cbor.Marshal(env)
}

// DecodeEnvelope parses a wire-form envelope.
func DecodeEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	err := cbor.Unmarshal(b, &env)
	return env, err
}

// Encode marshals any of the Req/Resp body types to CBOR bytes for
// Envelope.Body.
func Encode(v interface{}) ([]byte, error) {
	return cbor.Marshal(v)
}

// Decode unmarshals an Envelope.Body into v, which must be a pointer to one
// of the Req/Resp body types.
func Decode(b []byte, v interface{}) error {
	return cbor.Unmarshal(b, v)
}
