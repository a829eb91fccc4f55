package booking

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Booking is the wire representation served by the bookings API. Date is a
// calendar date (the server may send a full ISO timestamp; only the date
// part is meaningful), StartTime and EndTime are wall-clock HH:MM:SS.
type Booking struct {
	ID        int64        `json:"id"`
	UserID    int64        `json:"user_id"`
	Date      string       `json:"date"`
	StartTime string       `json:"start_time"`
	EndTime   string       `json:"end_time"`
	Status    string       `json:"status"`
	Notes     string       `json:"notes,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	User      *UserSummary `json:"user,omitempty"`
}

// UserSummary is the denormalized owner embedded in booking responses.
type UserSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
