package asmir

// OffsetAllocator assigns each pseudoregister name a negative,
// frame-relative byte offset the first time it is seen, and reuses
// that offset on every later lookup. Modelled as an explicit struct
// rather than a bare map, since allocation order matters and a map's
// iteration order cannot be relied on: GetOrAllocate is the only way
// to read or populate it.
type OffsetAllocator struct {
	offsets map[string]int
	next    int
	// MinOffset is the most-negative offset handed out so far; it
	// determines the frame size. Starts at 0, so an allocator that
	// never allocates yields a frame size of 0, not a stray -4.
	MinOffset int
}

// NewOffsetAllocator returns an allocator that hands out -4, -8, -12,
// … on successive first-seen names.
func NewOffsetAllocator() *OffsetAllocator {
	return &OffsetAllocator{
		offsets: make(map[string]int),
		next:    -4,
	}
}

// GetOrAllocate returns name's offset, allocating one on first miss.
func (a *OffsetAllocator) GetOrAllocate(name string) int {
	if off, ok := a.offsets[name]; ok {
		return off
	}
	off := a.next
	a.offsets[name] = off
	a.next -= 4
	if off < a.MinOffset {
		a.MinOffset = off
	}
	return off
}
