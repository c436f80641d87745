package strategy

import "github.com/nikolaydubina/fpdecimal"

// FillProbabilityTable is a static, piecewise-linear lookup of fill
// probability as a function of distance from mid. Training the table is
// not part of the core (§4.5); it is supplied fully formed.
type FillProbabilityTable struct {
	// Distances must be sorted ascending and the same length as Probs.
	Distances []fpdecimal.Decimal
	Probs     []float64
}

// Lookup interpolates the fill probability at distance, clamping to the
// table's endpoints outside its domain.
func (t FillProbabilityTable) Lookup(distance fpdecimal.Decimal) float64 {
	if len(t.Distances) == 0 {
		return 0
	}
	if len(t.Distances) == 1 || distance.LessThanOrEqual(t.Distances[0]) {
		return t.Probs[0]
	}
	last := len(t.Distances) - 1
	if distance.GreaterThanOrEqual(t.Distances[last]) {
		return t.Probs[last]
	}

	for i := 1; i <= last; i++ {
		if distance.LessThanOrEqual(t.Distances[i]) {
			lo, hi := t.Distances[i-1], t.Distances[i]
			span := hi.Sub(lo)
			if span.Equal(fpdecimal.Zero) {
				return t.Probs[i]
			}
			frac := distance.Sub(lo).Div(span).Float64()
			return t.Probs[i-1] + frac*(t.Probs[i]-t.Probs[i-1])
		}
	}
	return t.Probs[last]
}
