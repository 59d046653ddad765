// Package models defines the data structures used throughout the application.
package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire and display format of a release date.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned when a value cannot be read as a calendar date.
var ErrInvalidDate = errors.New("invalid date")

// Date is a calendar date with no time of day, always held in UTC. Valid is
// false for an absent date; 0001-01-01 is a real date.
type Date struct {
	time.Time
	Valid bool
}

// NewDate returns the date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Valid: true}
}

// ParseDate reads a YYYY-MM-DD date. RFC 3339 timestamps and the
// "YYYY-MM-DD HH:MM:SS" form some drivers hand back are accepted too; only
// their date part is kept.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), t.Month(), t.Day()), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// String formats the date as YYYY-MM-DD, or "" when absent.
func (d Date) String() string {
	if !d.Valid {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON implements json.Unmarshaler. null and "" leave the date absent.
func (d *Date) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if raw == "null" {
		*d = Date{}
		return nil
	}
	s, err := strconv.Unquote(raw)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, raw)
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner. SQLite returns DATE columns either as text or,
// when the driver recognizes the declared type, as time.Time; Postgres always
// returns time.Time.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidDate, src)
	}
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	return d.String(), nil
}

// MediaRecord is one entry of the media catalog
type MediaRecord struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseDate Date   `json:"releaseDate"`
	Genre       string `json:"genre"`
}

// Label names the record for prompts, e.g. `"Dune" (ID: 1)`.
func (m MediaRecord) Label() string {
	return fmt.Sprintf("%q (ID: %d)", m.Title, m.ID)
}

// MediaInput is the request body of create and update. All three fields are
// replaced wholesale on update.
type MediaInput struct {
	Title       string `json:"title" validate:"required"`
	ReleaseDate string `json:"releaseDate" validate:"required"`
	Genre       string `json:"genre" validate:"required"`
}

// Normalize trims surrounding whitespace so blank fields count as missing.
func (in *MediaInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.ReleaseDate = strings.TrimSpace(in.ReleaseDate)
	in.Genre = strings.TrimSpace(in.Genre)
}

// Record converts the input into a record with the given id.
func (in MediaInput) Record(id int64) (*MediaRecord, error) {
	date, err := ParseDate(in.ReleaseDate)
	if err != nil {
		return nil, err
	}
	return &MediaRecord{
		ID:          id,
		Title:       in.Title,
		ReleaseDate: date,
		Genre:       in.Genre,
	}, nil
}

// Input returns the writable fields of the record.
func (m MediaRecord) Input() MediaInput {
	return MediaInput{
		Title:       m.Title,
		ReleaseDate: m.ReleaseDate.String(),
		Genre:       m.Genre,
	}
}
