package booking

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/adityarahman/booking-management/internal"
)

// APIClient is the slice of the HTTP adapter the store needs.
type APIClient interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body any, out any) error
	Put(ctx context.Context, path string, body any, out any) error
	Delete(ctx context.Context, path string) error
}

type listResponse struct {
	Bookings []Booking `json:"bookings"`
}

type itemResponse struct {
	Booking Booking `json:"booking"`
}

// Store maintains the client-side booking cache over the HTTP adapter. The
// authoritative copy lives server-side; the cache is what the consistency
// rules run against. All mutation goes through the store's own methods and
// accessors hand out copies only.
type Store struct {
	api    APIClient
	logger *slog.Logger

	mu       sync.Mutex
	bookings []Booking
	loading  bool
	lastErr  string
}

func NewStore(api APIClient, logger *slog.Logger) *Store {
	return &Store{api: api, logger: logger}
}

// Fetch replaces the whole cache with the filtered server result. On
// failure the cache is emptied rather than left holding a stale partial
// result.
func (s *Store) Fetch(ctx context.Context, filter ListFilter) error {
	s.setLoading(true)
	defer s.setLoading(false)
	s.setError("")

	var resp listResponse
	if err := s.api.Get(ctx, "/bookings", filter.Query(), &resp); err != nil {
		s.logger.Error("failed to fetch bookings", "error", err)
		s.mu.Lock()
		s.bookings = nil
		s.mu.Unlock()
		s.setError(messageFor(err, "failed to fetch bookings"))
		return err
	}

	s.mu.Lock()
	s.bookings = resp.Bookings
	s.mu.Unlock()
	return nil
}

// Create submits a new booking and prepends it to the cache, keeping
// newest-first ordering.
func (s *Store) Create(ctx context.Context, data CreateBookingData) (*Booking, error) {
	s.setLoading(true)
	defer s.setLoading(false)
	s.setError("")

	if err := data.Validate(); err != nil {
		s.setError(err.Error())
		return nil, err
	}

	var resp itemResponse
	if err := s.api.Post(ctx, "/bookings", data, &resp); err != nil {
		s.logger.Error("failed to create booking", "error", err)
		s.setError(messageFor(err, "failed to create booking"))
		return nil, err
	}

	s.mu.Lock()
	s.bookings = append([]Booking{resp.Booking}, s.bookings...)
	s.mu.Unlock()
	return &resp.Booking, nil
}

// Update replaces the cached entry for id with the server's response. When
// the response omits the denormalized user summary, the previously cached
// one is kept so a partial server representation does not erase visible
// relationship data.
func (s *Store) Update(ctx context.Context, id int64, data UpdateBookingData) (*Booking, error) {
	s.setLoading(true)
	defer s.setLoading(false)
	s.setError("")

	var resp itemResponse
	if err := s.api.Put(ctx, fmt.Sprintf("/bookings/%d", id), data, &resp); err != nil {
		s.logger.Error("failed to update booking", "error", err, "booking_id", id)
		s.setError(messageFor(err, "failed to update booking"))
		return nil, err
	}

	s.mu.Lock()
	for i := range s.bookings {
		if s.bookings[i].ID != id {
			continue
		}
		updated := resp.Booking
		if updated.User == nil {
			updated.User = s.bookings[i].User
		}
		s.bookings[i] = updated
		break
	}
	s.mu.Unlock()
	return &resp.Booking, nil
}

// Delete removes the booking server-side and drops it from the cache.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.setLoading(true)
	defer s.setLoading(false)
	s.setError("")

	if err := s.api.Delete(ctx, fmt.Sprintf("/bookings/%d", id)); err != nil {
		s.logger.Error("failed to delete booking", "error", err, "booking_id", id)
		s.setError(messageFor(err, "failed to delete booking"))
		return err
	}

	s.mu.Lock()
	kept := s.bookings[:0]
	for _, b := range s.bookings {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	s.bookings = kept
	s.mu.Unlock()
	return nil
}

// CheckConflict runs the overlap rule for a candidate against the cache.
func (s *Store) CheckConflict(candidate Booking) bool {
	return HasConflict(candidate, s.Bookings())
}

// CheckGap runs the turnaround-gap rule for a candidate against the cache.
func (s *Store) CheckGap(candidate Booking) bool {
	return HasGapViolation(candidate, s.Bookings())
}

// Bookings returns a copy of the cache.
func (s *Store) Bookings() []Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Booking, len(s.bookings))
	copy(out, s.bookings)
	return out
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LastError returns the human-readable message recorded by the most recent
// failed operation, empty when the last operation succeeded.
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Store) setError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

func messageFor(err error, fallback string) string {
	if appErr, ok := internal.IsAppError(err); ok && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
