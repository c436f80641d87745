package features

import "github.com/nikolaydubina/fpdecimal"

// midPriceRing is a fixed-capacity circular buffer of mid-price samples,
// one recorded per replay event step. Oldest samples are overwritten.
type midPriceRing struct {
	buf   []fpdecimal.Decimal
	next  int
	count int
}

func newMidPriceRing(capacity int) *midPriceRing {
	if capacity < 1 {
		capacity = 1
	}
	return &midPriceRing{buf: make([]fpdecimal.Decimal, capacity)}
}

func (r *midPriceRing) push(v fpdecimal.Decimal) {
	r.buf[r.next] = v
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// last returns the most recent window samples, oldest first. If fewer
// than window samples have been recorded, it returns all of them.
func (r *midPriceRing) last(window int) []fpdecimal.Decimal {
	if window > r.count {
		window = r.count
	}
	out := make([]fpdecimal.Decimal, window)
	start := (r.next - window + len(r.buf)) % len(r.buf)
	for i := 0; i < window; i++ {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}
