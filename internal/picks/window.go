package picks

import "time"

// Window decides which kickoffs belong to the next pick day. A kickoff
// qualifies when its local date is tomorrow, or the day after tomorrow
// before CutoffHour, both evaluated in Zone.
type Window struct {
	Zone       *time.Location
	CutoffHour int
}

// NewWindow creates a window for the given zone and early cutoff hour
func NewWindow(zone *time.Location, cutoffHour int) Window {
	if zone == nil {
		zone = time.FixedZone("UTC+1", 3600)
	}
	return Window{Zone: zone, CutoffHour: cutoffHour}
}

// Contains reports whether kickoff qualifies relative to now
func (w Window) Contains(kickoff, now time.Time) bool {
	local := kickoff.In(w.Zone)
	ref := now.In(w.Zone)

	tomorrow := dayAfter(ref, 1)
	dayAfterTomorrow := dayAfter(ref, 2)

	switch {
	case sameDate(local, tomorrow):
		return true
	case sameDate(local, dayAfterTomorrow):
		return local.Hour() < w.CutoffHour
	default:
		return false
	}
}

// Local returns kickoff in the window's zone
func (w Window) Local(kickoff time.Time) time.Time {
	return kickoff.In(w.Zone)
}

func dayAfter(t time.Time, days int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+days, 0, 0, 0, 0, t.Location())
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
