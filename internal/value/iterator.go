package value

// Iterator is an opaque cursor over a Value's members, created by the
// Handler on ForEach entry and consumed one step at a time. It never
// mutates the Value it was created from.
type Iterator struct {
	source Value
	pos    int
}

// NewIterator creates an Iterator positioned at the first member of v
// (not Valid when v has no members).
func NewIterator(v Value) *Iterator {
	return &Iterator{source: v, pos: 0}
}

// Valid reports whether CurrentValue/CurrentKey are safe to call.
func (it *Iterator) Valid() bool {
	return it.pos < it.source.MemberCount()
}

// CurrentValue returns the member at the iterator's current position.
func (it *Iterator) CurrentValue() Value {
	return it.source.MemberByIndex(it.pos)
}

// CurrentKey returns the key at the iterator's current position, and
// whether one exists.
func (it *Iterator) CurrentKey() (Value, bool) {
	return it.source.KeyAt(it.pos)
}

// Next advances the iterator by one position.
func (it *Iterator) Next() {
	it.pos++
}
