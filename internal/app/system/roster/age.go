// internal/app/system/roster/age.go
package roster

import (
	"strings"
	"time"
)

// ParseDOB parses a date-of-birth string as entered by admins or pulled
// from a roster import. Two formats are tolerated: MM/DD/YYYY and ISO
// YYYY-MM-DD. The second return is false when the string is empty or
// does not parse.
func ParseDOB(dob string) (time.Time, bool) {
	dob = strings.TrimSpace(dob)
	if dob == "" {
		return time.Time{}, false
	}

	layout := "2006-01-02"
	if strings.Contains(dob, "/") {
		layout = "1/2/2006"
	}
	t, err := time.Parse(layout, dob)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AgeAt returns whole years between birth and now, decremented by one
// when the birthday has not yet occurred this year.
func AgeAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// Age computes a member's age from a DOB string, evaluated at now.
// Returns (0, false) when the DOB is absent or unparseable; callers
// that sort by age treat unknown as age 0.
func Age(dob string, now time.Time) (int, bool) {
	birth, ok := ParseDOB(dob)
	if !ok {
		return 0, false
	}
	return AgeAt(birth, now), true
}
