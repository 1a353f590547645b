package carousel

// Window is the ring cursor. The four visible slots are derived from
// LastIndex modulo Len, so rings shorter than four tiles alias instead of
// failing.
type Window struct {
	Len       int
	LastIndex int
}

func (w Window) at(k int) int {
	if w.Len <= 0 {
		return 0
	}
	i := (w.LastIndex + k) % w.Len
	if i < 0 {
		i += w.Len
	}
	return i
}

func (w Window) Previous() int { return w.at(0) }
func (w Window) Current() int  { return w.at(1) }
func (w Window) Next() int     { return w.at(2) }
func (w Window) OnDeck() int   { return w.at(3) }

// Advance moves the cursor one tile forward.
func (w Window) Advance() Window {
	w.LastIndex = w.at(1)
	return w
}
