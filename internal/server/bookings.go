package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"

	"github.com/adityarahman/booking-management/internal"
	"github.com/adityarahman/booking-management/internal/booking"
	"github.com/adityarahman/booking-management/internal/server/storage"
	"github.com/adityarahman/booking-management/internal/transport"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// BookingHandler implements the bookings CRUD endpoints. Bookings are
// scoped to the authenticated user.
type BookingHandler struct {
	*transport.BaseHandler
	repo *storage.Repository
}

func NewBookingHandler(repo *storage.Repository, lg *slog.Logger) *BookingHandler {
	return &BookingHandler{
		BaseHandler: transport.NewBaseHandler(lg),
		repo:        repo,
	}
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := internal.UserIDFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	q := r.URL.Query()
	filter := storage.BookingFilter{
		Search:   q.Get("search"),
		Status:   q.Get("status"),
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
	}

	records, err := h.repo.ListBookings(userID, filter)
	if err != nil {
		h.Logger.Error("failed to list bookings", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	bookings := make([]booking.Booking, 0, len(records))
	for i := range records {
		bookings = append(bookings, toWireBooking(&records[i], true))
	}

	h.WriteJSON(w, http.StatusOK, map[string][]booking.Booking{"bookings": bookings})
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := internal.UserIDFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	var req booking.CreateBookingData
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if fields := validateBookingFields(req.Date, req.StartTime, req.EndTime, booking.StatusPending); len(fields) > 0 {
		h.WriteFieldErrors(w, fields)
		return
	}

	record := &storage.Booking{
		UserID:    userID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    booking.StatusPending,
		Notes:     req.Notes,
	}
	if err := h.repo.CreateBooking(record); err != nil {
		h.Logger.Error("failed to create booking", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	created, err := h.repo.GetBooking(userID, record.ID)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]booking.Booking{"booking": toWireBooking(created, true)})
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := internal.UserIDFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusNotFound, "Booking not found")
		return
	}

	var req booking.UpdateBookingData
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.repo.GetBooking(userID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, "Booking not found")
			return
		}
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if req.Date != nil {
		record.Date = *req.Date
	}
	if req.StartTime != nil {
		record.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		record.EndTime = *req.EndTime
	}
	if req.Status != nil {
		record.Status = *req.Status
	}
	if req.Notes != nil {
		record.Notes = *req.Notes
	}

	if fields := validateBookingFields(record.Date, record.StartTime, record.EndTime, record.Status); len(fields) > 0 {
		h.WriteFieldErrors(w, fields)
		return
	}

	if err := h.repo.UpdateBooking(record); err != nil {
		h.Logger.Error("failed to update booking", "error", err, "booking_id", id)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// The update response carries the bare booking without the denormalized
	// user; clients keep their previously cached copy.
	h.WriteJSON(w, http.StatusOK, map[string]booking.Booking{"booking": toWireBooking(record, false)})
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := internal.UserIDFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusNotFound, "Booking not found")
		return
	}

	if err := h.repo.DeleteBooking(userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, "Booking not found")
			return
		}
		h.Logger.Error("failed to delete booking", "error", err, "booking_id", id)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func validateBookingFields(date, startTime, endTime, status string) map[string][]string {
	fields := map[string][]string{}

	if date == "" {
		fields["date"] = append(fields["date"], "The date field is required.")
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		fields["date"] = append(fields["date"], "The date must be a valid date (YYYY-MM-DD).")
	}

	startOK := false
	if startTime == "" {
		fields["start_time"] = append(fields["start_time"], "The start time field is required.")
	} else if _, err := time.Parse(timeLayout, startTime); err != nil {
		fields["start_time"] = append(fields["start_time"], "The start time must be HH:MM:SS.")
	} else {
		startOK = true
	}

	if endTime == "" {
		fields["end_time"] = append(fields["end_time"], "The end time field is required.")
	} else if _, err := time.Parse(timeLayout, endTime); err != nil {
		fields["end_time"] = append(fields["end_time"], "The end time must be HH:MM:SS.")
	} else if startOK && startTime >= endTime {
		fields["end_time"] = append(fields["end_time"], "The end time must be after the start time.")
	}

	switch status {
	case booking.StatusPending, booking.StatusConfirmed, booking.StatusCancelled, booking.StatusCompleted:
	default:
		fields["status"] = append(fields["status"], "The selected status is invalid.")
	}

	return fields
}

func toWireBooking(b *storage.Booking, includeUser bool) booking.Booking {
	wire := booking.Booking{
		ID:        b.ID,
		UserID:    b.UserID,
		Date:      b.Date,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Status:    b.Status,
		Notes:     b.Notes,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if includeUser && b.User.ID != 0 {
		wire.User = &booking.UserSummary{ID: b.User.ID, Name: b.User.Name}
	}
	return wire
}
