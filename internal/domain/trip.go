package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format of calendar dates (yyyy-MM-dd).
const DateLayout = "2006-01-02"

// Date is a calendar date. The zero value means unset and encodes as null.
type Date struct {
	time.Time
}

// NewDate returns the date at midnight UTC of the given day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a yyyy-MM-dd string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String formats the date as yyyy-MM-dd, or "" when unset.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Ptr returns the formatted date, or nil when unset.
func (d Date) Ptr() *string {
	if d.IsZero() {
		return nil
	}
	s := d.String()
	return &s
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler. null and "" clear the date.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	// Accept full timestamps from pickers that send ISO strings.
	if len(s) > len(DateLayout) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			*d = NewDate(t.Year(), t.Month(), t.Day())
			return nil
		}
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Destination is the draft-local projection of a catalog destination.
type Destination struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category,omitempty"`
	Location string   `json:"location,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Rating   *float64 `json:"rating,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
}

// ScheduleItem is one activity on one day of the itinerary.
// DestinationID must reference a selected destination.
type ScheduleItem struct {
	ID            string `json:"id"`
	Day           int    `json:"day"`
	DestinationID string `json:"destinationId"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	Activity      string `json:"activity"`
	Notes         string `json:"notes,omitempty"`
}

// Budget holds the four spending categories of a trip.
type Budget struct {
	Transport  float64 `json:"transport"`
	Lodging    float64 `json:"lodging"`
	Food       float64 `json:"food"`
	Activities float64 `json:"activities"`
}

// Total is the sum of all categories.
func (b Budget) Total() float64 {
	return b.Transport + b.Lodging + b.Food + b.Activities
}

// TripDraft is a trip being assembled in the trip builder.
type TripDraft struct {
	Name                 string         `json:"name"`
	StartDate            Date           `json:"startDate"`
	EndDate              Date           `json:"endDate"`
	PeopleCount          int            `json:"peopleCount"`
	TripType             string         `json:"tripType"`
	SelectedDestinations []Destination  `json:"selectedDestinations"`
	Schedule             []ScheduleItem `json:"schedule"`
	Budget               Budget         `json:"budget"`
	Notes                string         `json:"notes"`
	PackingList          []string       `json:"packingList"`
	IsPublic             bool           `json:"isPublic"`
}

// NewTripDraft returns a draft with the builder's starting values.
func NewTripDraft() TripDraft {
	return TripDraft{
		PeopleCount:          1,
		SelectedDestinations: []Destination{},
		Schedule:             []ScheduleItem{},
		PackingList:          []string{},
	}
}

// HasDestination reports whether id is among the selected destinations.
func (d TripDraft) HasDestination(id string) bool {
	for _, dest := range d.SelectedDestinations {
		if dest.ID == id {
			return true
		}
	}
	return false
}

// TripPayload is the backend's trip creation schema.
type TripPayload struct {
	Name         string        `json:"name"`
	StartDate    *string       `json:"startDate"`
	EndDate      *string       `json:"endDate"`
	PeopleCount  int           `json:"peopleCount"`
	TripType     string        `json:"tripType"`
	IsPublic     bool          `json:"isPublic"`
	Destinations []string      `json:"destinations"`
	Schedule     []ScheduleDay `json:"schedule"`
	Budget       Budget        `json:"budget"`
	Notes        string        `json:"notes"`
	PackingList  []string      `json:"packingList"`
}

// ScheduleDay groups the itinerary entries of one day.
type ScheduleDay struct {
	Day   int             `json:"day"`
	Items []ScheduleEntry `json:"items"`
}

// ScheduleEntry is a schedule item as submitted, without id and day.
type ScheduleEntry struct {
	DestinationID string `json:"destinationId"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	Activity      string `json:"activity"`
	Notes         string `json:"notes"`
}

// CreatedTrip is the backend's answer to a trip creation.
type CreatedTrip struct {
	ID string `json:"id"`
}
