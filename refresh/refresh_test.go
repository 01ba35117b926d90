package refresh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardentoo/dht/id"
	"github.com/hardentoo/dht/rng"
)

func init() {
	id.SetSize(4)
}

func TestRandomIDForBucketMatchesTargetIndex(t *testing.T) {
	self, err := id.New([]byte{0xAA, 0x55, 0x0F, 0xF0})
	require.NoError(t, err)
	source := rng.New(1)

	for bucket := 0; bucket < len(self)*8; bucket++ {
		got := randomIDForBucket(self, bucket, source)
		assert.Equal(t, bucket, id.Index(self, got), "bucket %d", bucket)
	}
}
