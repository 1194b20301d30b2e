package slots

import (
	"fmt"
	"hash/fnv"
)

// FakeBusy is a presentation-layer decorator that marks a deterministic
// share of free future slots as booked, so the calendar looks busier than
// it is. It operates on the projected view only and never feeds the
// booking store; a fake-booked slot stays genuinely bookable through the
// API.
type FakeBusy struct {
	Percent int
	Salt    string
}

// Apply overlays fake occupancy on a projected day. Deterministic per
// (salt, date, hour), so repeated requests render the same picture.
func (f FakeBusy) Apply(date string, in []Slot) []Slot {
	if f.Percent <= 0 {
		return in
	}

	out := make([]Slot, len(in))
	copy(out, in)
	for i := range out {
		if !out[i].Available {
			continue
		}
		h := fnv.New32a()
		fmt.Fprintf(h, "%s|%s|%s", f.Salt, date, out[i].StartTime)
		if int(h.Sum32()%100) < f.Percent {
			out[i].IsBooked = true
			out[i].Available = false
		}
	}
	return out
}
