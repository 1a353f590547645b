package carousel

// Step holds the four slot sizes for one animation frame.
type Step struct {
	Previous int
	Current  int
	Next     int
	OnDeck   int
}

// Steady is the resting arrangement: small flanks around a large focal tile,
// nothing on deck.
func Steady(small, large int) Step {
	return Step{Previous: small, Current: large, Next: small, OnDeck: 0}
}

// Steps interpolates a rotation linearly over count frames. Frame i (1-based)
// moves each size i/count of the way from the steady arrangement to the
// next one, truncated to whole pixels. The last frame is exactly
// {0, small, large, small}, the steady arrangement after the slots shift.
// A count below 1 is treated as 1.
func Steps(small, large, count int) []Step {
	if count < 1 {
		count = 1
	}
	delta := large - small
	steps := make([]Step, count)
	for i := 1; i <= count; i++ {
		remaining := count - i
		steps[i-1] = Step{
			Previous: small * remaining / count,
			Current:  small + delta*remaining/count,
			Next:     small + delta*i/count,
			OnDeck:   small * i / count,
		}
	}
	return steps
}
