package raytracer

const mailboxSize = 256

type mailboxEntry struct {
	primIndex int32
	rayID     uint32
}

// A direct-mapped cache of the primitives tested by the current ray.
// Colliding entries evict each other which only costs a redundant test.
type mailbox struct {
	entries [mailboxSize]mailboxEntry
	rayID   uint32
}

// Start a new ray.
func (m *mailbox) next() {
	m.rayID++
	if m.rayID == 0 {
		m.entries = [mailboxSize]mailboxEntry{}
		m.rayID = 1
	}
}

// Returns true if the primitive was already tested by the current ray;
// otherwise marks it as tested.
func (m *mailbox) check(primIndex int32) bool {
	entry := &m.entries[uint32(primIndex)&(mailboxSize-1)]
	if entry.rayID == m.rayID && entry.primIndex == primIndex {
		return true
	}
	entry.primIndex = primIndex
	entry.rayID = m.rayID
	return false
}
