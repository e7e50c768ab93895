package common

import "time"

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// IsFresh returns true if latest is within window of now, counted in
// calendar days so a cache filled late yesterday is still fresh today.
func IsFresh(latest, now time.Time, window time.Duration) bool {
	if latest.IsZero() {
		return false
	}
	return DaysBetween(latest, now) <= int(window.Hours()/24)
}
