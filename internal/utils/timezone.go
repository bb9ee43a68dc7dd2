package utils

import "time"

func CurrentDateInTimezone(tz string) string {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	now := time.Now().In(loc)
	return now.Format("2006-01-02")
}

// DayBoundsInTimezone returns the UTC instants bracketing a local calendar day,
// used by the report endpoints so a "daily" bucket matches the admin's wall
// clock rather than UTC.
func DayBoundsInTimezone(date string, tz string) (time.Time, time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return day.UTC(), day.AddDate(0, 0, 1).UTC(), nil
}
