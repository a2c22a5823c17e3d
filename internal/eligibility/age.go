package eligibility

import (
	"fmt"
	"time"
)

// MinimumAge is the registration eligibility threshold in years.
const MinimumAge = 50

// dobLayouts are tried in order; the first structural match wins.
// Day-first layouts come before year-first, matching how dates appear
// on Indian government IDs.
var dobLayouts = []string{
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2006-01-02",
	"2006/01/02",
}

// ParseDOB parses a date-of-birth string against the accepted layouts.
// The second return is false when no layout matches or the date is
// impossible (e.g. 31/02/2000).
func ParseDOB(dob string) (time.Time, bool) {
	for _, layout := range dobLayouts {
		if birth, err := time.Parse(layout, dob); err == nil {
			return birth, true
		}
	}
	return time.Time{}, false
}

// ComputeAge returns the calendar age at now for the given date-of-birth
// string. ok is false when the string matches no accepted layout; callers
// decide whether indeterminate blocks or passes.
func ComputeAge(dob string, now time.Time) (age int, ok bool) {
	birth, ok := ParseDOB(dob)
	if !ok {
		return 0, false
	}
	age = now.Year() - birth.Year()
	// Age increments on the birthday, not before.
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age, true
}

// BelowMinimumError reports a positively computed age under the threshold.
type BelowMinimumError struct {
	Age int
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("Age must be %d or above. Current age: %d", MinimumAge, e.Age)
}

// Validate applies the client-side eligibility gate. An indeterminate age
// passes: the server recomputes the age and is the authority, so the
// client only blocks when it can positively compute an age below the
// minimum.
func Validate(dob string, now time.Time) error {
	age, ok := ComputeAge(dob, now)
	if !ok {
		return nil
	}
	if age < MinimumAge {
		return &BelowMinimumError{Age: age}
	}
	return nil
}
