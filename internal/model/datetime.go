package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateTimeLayout is the wire format for every timestamp in the APIs.
const DateTimeLayout = "2006-01-02 15:04:05"

// DateTime is a UTC time serialised with DateTimeLayout.
type DateTime time.Time

// ParseDateTime parses s using DateTimeLayout in UTC.
func ParseDateTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected %s", s, DateTimeLayout)
	}
	return t, nil
}

// FormatDateTime renders t with DateTimeLayout in UTC.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(DateTimeLayout)
}

func (d DateTime) Time() time.Time {
	return time.Time(d)
}

func (d DateTime) IsZero() bool {
	return time.Time(d).IsZero()
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatDateTime(time.Time(d)))
}

func (d *DateTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := ParseDateTime(s)
	if err != nil {
		return err
	}
	*d = DateTime(t)
	return nil
}
