package item

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// Item dates must fall in [MinDate, MaxDate). The bounds sit inside the range every
// storage backend keeps exactly, including unix nanoseconds.
var (
	MinDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	MaxDate = time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC)
)

// ValidateDate reports whether t is a storable item date.
func ValidateDate(t time.Time) error {
	if t.Before(MinDate) || !t.Before(MaxDate) {
		return fmt.Errorf("%w: %s is outside %s to %s", ErrInvalidDate,
			t.UTC().Format(time.RFC3339), MinDate.Format(dayLayout), MaxDate.AddDate(0, 0, -1).Format(dayLayout))
	}
	return nil
}

// Date accepts either a calendar day ("2024-05-01") or an RFC 3339 timestamp.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: must be a string", ErrInvalidDate)
	}

	t, err := ParseDate(raw)
	if err != nil {
		return err
	}

	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time)
}

// ParseDate parses a day or an RFC 3339 timestamp within [MinDate, MaxDate) and returns it in UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)

	t, err := time.Parse(dayLayout, raw)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, raw)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: expected YYYY-MM-DD or RFC 3339", ErrInvalidDate, raw)
	}

	if err := ValidateDate(t); err != nil {
		return time.Time{}, err
	}

	return t.UTC(), nil
}

// DayBounds returns [start, end) of the UTC calendar day containing t.
func DayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
