package routing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardentoo/dht/contact"
	"github.com/hardentoo/dht/id"
)

func init() {
	id.SetSize(1) // HashSize=8 bits, matching spec's end-to-end scenarios
}

func mkID(b byte) id.ID {
	return id.ID{b}
}

func mkContact(b byte, port int) contact.Contact {
	return contact.New(mkID(b), contact.Address{Host: "127.0.0.1", Port: port}, time.Time{})
}

func TestInsertRejectsSelf(t *testing.T) {
	self := mkID(0x01)
	tbl := New(self, 2)
	tbl.Insert(contact.New(self, contact.Address{Host: "x", Port: 1}, time.Now()), time.Now(), nil)
	assert.Equal(t, 0, tbl.TotalContacts())
}

func TestInsertPlacesInCorrectBucket(t *testing.T) {
	self := mkID(0x00)
	tbl := New(self, 2)
	c := mkContact(0x01, 9000) // differs at the lowest bit -> bucket 7
	tbl.Insert(c, time.Now(), nil)

	idx := id.Index(self, c.ID)
	assert.Equal(t, 1, tbl.buckets[idx].len())
	for i, b := range tbl.buckets {
		if i != idx {
			assert.Equal(t, 0, b.len())
		}
	}
}

func TestKClosestSortedAndBounded(t *testing.T) {
	self := mkID(0x00)
	tbl := New(self, 20)
	for i := byte(1); i < 10; i++ {
		tbl.Insert(mkContact(i, 9000+int(i)), time.Now(), nil)
	}

	got := tbl.KClosest(mkID(0x05), 3)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.True(t, id.Less(mkID(0x05), got[i-1].ID, got[i].ID) || got[i-1].ID.Equal(got[i].ID))
	}
	for _, c := range got {
		assert.False(t, c.ID.Equal(self))
	}
}

func TestKClosestNeverReturnsSelf(t *testing.T) {
	self := mkID(0x00)
	tbl := New(self, 20)
	tbl.Insert(mkContact(0x01, 9001), time.Now(), nil)

	got := tbl.KClosest(self, 20)
	for _, c := range got {
		assert.False(t, c.ID.Equal(self))
	}
}

func TestFullBucketDeadTailEvicted(t *testing.T) {
	self := mkID(0x00)
	tbl := New(self, 2)

	// All of these have five leading zero bits against self (bucket 5).
	c1 := mkContact(0x04, 9001)
	c2 := mkContact(0x06, 9002)
	tbl.Insert(c1, time.Now(), nil)
	tbl.Insert(c2, time.Now(), nil)

	c3 := mkContact(0x05, 9003)
	pinged := false
	tbl.Insert(c3, time.Now(), func(c contact.Contact) bool {
		pinged = true
		assert.True(t, c.ID.Equal(c1.ID), "tail (oldest, least-recently-seen) must be probed")
		return false // dead
	})

	require.True(t, pinged)
	idx := id.Index(self, c1.ID)
	got := tbl.buckets[idx].contacts()
	require.Len(t, got, 2)
	assert.True(t, got[0].ID.Equal(c3.ID), "fresh contact goes to head")
	assert.True(t, got[1].ID.Equal(c2.ID))
}

func TestFullBucketAliveTailKeptNewcomerDiscarded(t *testing.T) {
	self := mkID(0x00)
	tbl := New(self, 2)

	c1 := mkContact(0x04, 9001)
	c2 := mkContact(0x06, 9002)
	tbl.Insert(c1, time.Now(), nil)
	tbl.Insert(c2, time.Now(), nil)

	c3 := mkContact(0x05, 9003)
	tbl.Insert(c3, time.Now(), func(contact.Contact) bool { return true })

	idx := id.Index(self, c1.ID)
	got := tbl.buckets[idx].contacts()
	require.Len(t, got, 2)
	assert.True(t, got[0].ID.Equal(c1.ID), "alive tail refreshed to head")
	for _, c := range got {
		assert.False(t, c.ID.Equal(c3.ID), "newcomer must be discarded when tail is alive")
	}
}

func TestInsertExistingMovesToFrontAndUpdatesAddr(t *testing.T) {
	self := mkID(0x00)
	tbl := New(self, 2)
	c := mkContact(0x01, 9001)
	tbl.Insert(c, time.Now(), nil)

	updated := c
	updated.Addr = contact.Address{Host: "10.0.0.1", Port: 1234}
	tbl.Insert(updated, time.Now(), nil)

	idx := id.Index(self, c.ID)
	got := tbl.buckets[idx].contacts()
	require.Len(t, got, 1)
	assert.Equal(t, updated.Addr, got[0].Addr)
}

func TestRemove(t *testing.T) {
	self := mkID(0x00)
	tbl := New(self, 2)
	c := mkContact(0x01, 9001)
	tbl.Insert(c, time.Now(), nil)
	tbl.Remove(c.ID)
	assert.Equal(t, 0, tbl.TotalContacts())
}
