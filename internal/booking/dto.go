package booking

import (
	"net/url"
	"time"
)

// CreateBookingData is the payload for POST /bookings.
type CreateBookingData struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Notes     string `json:"notes,omitempty"`
}

// UpdateBookingData is the partial payload for PUT /bookings/:id. Nil
// fields are omitted from the request.
type UpdateBookingData struct {
	Date      *string `json:"date,omitempty"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	Status    *string `json:"status,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// ListFilter is the query filter for GET /bookings.
type ListFilter struct {
	Search   string
	Status   string
	DateFrom string
	DateTo   string
}

func (f ListFilter) Query() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.DateFrom != "" {
		q.Set("date_from", f.DateFrom)
	}
	if f.DateTo != "" {
		q.Set("date_to", f.DateTo)
	}
	return q
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

// Validate checks required fields and basic shape; server-side validation
// remains authoritative.
func (d CreateBookingData) Validate() error {
	if d.Date == "" {
		return ValidationError{Msg: "date is required"}
	}
	if _, err := time.Parse(dateLayout, d.Date); err != nil {
		return ValidationError{Msg: "date must be YYYY-MM-DD"}
	}
	if d.StartTime == "" {
		return ValidationError{Msg: "start_time is required"}
	}
	if d.EndTime == "" {
		return ValidationError{Msg: "end_time is required"}
	}
	if _, err := time.Parse(timeLayout, d.StartTime); err != nil {
		return ValidationError{Msg: "start_time must be HH:MM:SS"}
	}
	if _, err := time.Parse(timeLayout, d.EndTime); err != nil {
		return ValidationError{Msg: "end_time must be HH:MM:SS"}
	}
	if d.StartTime >= d.EndTime {
		return ValidationError{Msg: "start_time must be before end_time"}
	}
	return nil
}
