package hktime

import (
	"errors"
	"time"
)

// The venue runs on Hong Kong civil time regardless of where the server
// happens to be deployed. Every "today" and "current hour" decision goes
// through this package.

const dateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date format, expected YYYY-MM-DD")

var hk = loadLocation()

func loadLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Hong_Kong")
	if err != nil {
		// No tzdata on the host. Hong Kong has no DST, so a fixed
		// offset is equivalent.
		return time.FixedZone("HKT", 8*60*60)
	}
	return loc
}

// Location returns the venue timezone.
func Location() *time.Location { return hk }

// Clock supplies the current instant. Availability and peak-time logic
// take it as a dependency so tests never touch the wall clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

// Fixed returns a Clock frozen at t, for tests.
func Fixed(t time.Time) Clock { return fixedClock{t: t} }

// Today returns the current civil date in Hong Kong as YYYY-MM-DD.
func Today(clock Clock) string {
	return clock.Now().In(hk).Format(dateLayout)
}

// CurrentHour returns the current hour of day (0-23) in Hong Kong.
func CurrentHour(clock Clock) int {
	return clock.Now().In(hk).Hour()
}

// ParseDate validates a YYYY-MM-DD civil date string.
func ParseDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, date, hk)
	if err != nil || t.Format(dateLayout) != date {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// Weekday returns the day of week for a civil date string.
func Weekday(date string) (time.Weekday, error) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return t.Weekday(), nil
}
