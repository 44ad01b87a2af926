package selector

// RoundRobin cycles over a list whose length may change between calls.
type RoundRobin struct {
	cursor int
}

// NewRoundRobin returns a selector positioned before the first element.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{cursor: -1}
}

// Next advances the cursor modulo n and returns it. With n == 0 nothing is
// selected and the cursor does not move.
func (r *RoundRobin) Next(n int) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	r.cursor = (r.cursor + 1) % n
	return r.cursor, true
}

// Cursor returns the last selected index, or -1 before the first selection.
func (r *RoundRobin) Cursor() int {
	return r.cursor
}
