package booking

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/adityarahman/booking-management/internal"
)

// Mock APIClient for testing
type mockAPIClient struct {
	listResult    []Booking
	itemResult    Booking
	returnError   bool
	errorToReturn error

	lastPath  string
	lastQuery url.Values
	lastBody  any
	calls     int
}

func (m *mockAPIClient) Get(_ context.Context, path string, query url.Values, out any) error {
	m.calls++
	m.lastPath = path
	m.lastQuery = query
	if m.returnError {
		return m.errorToReturn
	}
	*(out.(*listResponse)) = listResponse{Bookings: m.listResult}
	return nil
}

func (m *mockAPIClient) Post(_ context.Context, path string, body any, out any) error {
	m.calls++
	m.lastPath = path
	m.lastBody = body
	if m.returnError {
		return m.errorToReturn
	}
	*(out.(*itemResponse)) = itemResponse{Booking: m.itemResult}
	return nil
}

func (m *mockAPIClient) Put(_ context.Context, path string, body any, out any) error {
	m.calls++
	m.lastPath = path
	m.lastBody = body
	if m.returnError {
		return m.errorToReturn
	}
	*(out.(*itemResponse)) = itemResponse{Booking: m.itemResult}
	return nil
}

func (m *mockAPIClient) Delete(_ context.Context, path string) error {
	m.calls++
	m.lastPath = path
	if m.returnError {
		return m.errorToReturn
	}
	return nil
}

func (m *mockAPIClient) setError(err error) {
	m.returnError = true
	m.errorToReturn = err
}

var _ = ginkgo.Describe("Store", func() {
	var (
		mockAPI *mockAPIClient
		store   *Store
		ctx     context.Context
	)

	ginkgo.BeforeEach(func() {
		mockAPI = &mockAPIClient{}
		store = NewStore(mockAPI, slog.Default())
		ctx = context.Background()
	})

	ginkgo.Describe("Fetch", func() {
		ginkgo.Context("when the request succeeds", func() {
			ginkgo.It("should replace the cache with the server result", func() {
				mockAPI.listResult = []Booking{
					mkBooking(2, "2026-09-02", "09:00:00", "10:00:00", StatusPending),
					mkBooking(1, "2026-09-01", "09:00:00", "10:00:00", StatusConfirmed),
				}

				err := store.Fetch(ctx, ListFilter{})

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(store.Bookings()).To(gomega.HaveLen(2))
				gomega.Expect(store.Bookings()[0].ID).To(gomega.Equal(int64(2)))
				gomega.Expect(store.LastError()).To(gomega.BeEmpty())
			})

			ginkgo.It("should pass the filter as query parameters", func() {
				err := store.Fetch(ctx, ListFilter{Status: StatusConfirmed, DateFrom: "2026-09-01"})

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(mockAPI.lastPath).To(gomega.Equal("/bookings"))
				gomega.Expect(mockAPI.lastQuery.Get("status")).To(gomega.Equal(StatusConfirmed))
				gomega.Expect(mockAPI.lastQuery.Get("date_from")).To(gomega.Equal("2026-09-01"))
			})
		})

		ginkgo.Context("when the request fails", func() {
			ginkgo.It("should empty the cache instead of keeping stale entries", func() {
				mockAPI.listResult = []Booking{
					mkBooking(1, "2026-09-01", "09:00:00", "10:00:00", StatusConfirmed),
				}
				gomega.Expect(store.Fetch(ctx, ListFilter{})).To(gomega.Succeed())
				gomega.Expect(store.Bookings()).To(gomega.HaveLen(1))

				mockAPI.setError(internal.NewExternalError("service unavailable", 503))
				err := store.Fetch(ctx, ListFilter{})

				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(store.Bookings()).To(gomega.BeEmpty())
				gomega.Expect(store.LastError()).To(gomega.Equal("service unavailable"))
			})
		})
	})

	ginkgo.Describe("Create", func() {
		ginkgo.Context("when the payload is valid", func() {
			ginkgo.It("should prepend the created booking to the cache", func() {
				mockAPI.listResult = []Booking{
					mkBooking(1, "2026-09-01", "09:00:00", "10:00:00", StatusConfirmed),
				}
				gomega.Expect(store.Fetch(ctx, ListFilter{})).To(gomega.Succeed())

				mockAPI.itemResult = mkBooking(2, "2026-09-02", "11:00:00", "12:00:00", StatusPending)
				created, err := store.Create(ctx, CreateBookingData{
					Date:      "2026-09-02",
					StartTime: "11:00:00",
					EndTime:   "12:00:00",
				})

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(created.ID).To(gomega.Equal(int64(2)))
				gomega.Expect(store.Bookings()).To(gomega.HaveLen(2))
				gomega.Expect(store.Bookings()[0].ID).To(gomega.Equal(int64(2)))
			})
		})

		ginkgo.Context("when the payload is invalid", func() {
			ginkgo.It("should fail before calling the API", func() {
				_, err := store.Create(ctx, CreateBookingData{Date: "2026-09-02"})

				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(mockAPI.calls).To(gomega.BeZero())
				gomega.Expect(store.LastError()).ToNot(gomega.BeEmpty())
			})

			ginkgo.It("should reject a start time at or after the end time", func() {
				_, err := store.Create(ctx, CreateBookingData{
					Date:      "2026-09-02",
					StartTime: "12:00:00",
					EndTime:   "12:00:00",
				})

				gomega.Expect(err).To(gomega.HaveOccurred())
			})
		})

		ginkgo.Context("when the request fails", func() {
			ginkgo.It("should leave the cache untouched", func() {
				mockAPI.setError(internal.NewValidationError("The given data was invalid.", internal.ErrCodeValidationFailed))

				_, err := store.Create(ctx, CreateBookingData{
					Date:      "2026-09-02",
					StartTime: "11:00:00",
					EndTime:   "12:00:00",
				})

				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(store.Bookings()).To(gomega.BeEmpty())
				gomega.Expect(store.LastError()).To(gomega.Equal("The given data was invalid."))
			})
		})
	})

	ginkgo.Describe("Update", func() {
		ginkgo.BeforeEach(func() {
			owner := &UserSummary{ID: 7, Name: "Demo User"}
			cached := mkBooking(1, "2026-09-01", "09:00:00", "10:00:00", StatusPending)
			cached.User = owner
			mockAPI.listResult = []Booking{cached}
			gomega.Expect(store.Fetch(ctx, ListFilter{})).To(gomega.Succeed())
		})

		ginkgo.It("should replace the cached entry with the server's copy", func() {
			updated := mkBooking(1, "2026-09-01", "09:00:00", "10:00:00", StatusConfirmed)
			updated.User = &UserSummary{ID: 7, Name: "Demo User"}
			mockAPI.itemResult = updated

			status := StatusConfirmed
			_, err := store.Update(ctx, 1, UpdateBookingData{Status: &status})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(mockAPI.lastPath).To(gomega.Equal("/bookings/1"))
			gomega.Expect(store.Bookings()[0].Status).To(gomega.Equal(StatusConfirmed))
		})

		ginkgo.It("should keep the cached user when the response omits it", func() {
			mockAPI.itemResult = mkBooking(1, "2026-09-01", "09:00:00", "10:00:00", StatusConfirmed)

			status := StatusConfirmed
			_, err := store.Update(ctx, 1, UpdateBookingData{Status: &status})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			cached := store.Bookings()[0]
			gomega.Expect(cached.Status).To(gomega.Equal(StatusConfirmed))
			gomega.Expect(cached.User).ToNot(gomega.BeNil())
			gomega.Expect(cached.User.Name).To(gomega.Equal("Demo User"))
		})

		ginkgo.It("should leave the cache untouched on failure", func() {
			mockAPI.setError(internal.ErrBookingNotFound)

			status := StatusConfirmed
			_, err := store.Update(ctx, 1, UpdateBookingData{Status: &status})

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(store.Bookings()[0].Status).To(gomega.Equal(StatusPending))
		})
	})

	ginkgo.Describe("Delete", func() {
		ginkgo.BeforeEach(func() {
			mockAPI.listResult = []Booking{
				mkBooking(2, "2026-09-02", "09:00:00", "10:00:00", StatusPending),
				mkBooking(1, "2026-09-01", "09:00:00", "10:00:00", StatusConfirmed),
			}
			gomega.Expect(store.Fetch(ctx, ListFilter{})).To(gomega.Succeed())
		})

		ginkgo.It("should drop the booking from the cache", func() {
			err := store.Delete(ctx, 2)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(mockAPI.lastPath).To(gomega.Equal("/bookings/2"))
			gomega.Expect(store.Bookings()).To(gomega.HaveLen(1))
			gomega.Expect(store.Bookings()[0].ID).To(gomega.Equal(int64(1)))
		})

		ginkgo.It("should keep the cache on failure", func() {
			mockAPI.setError(internal.ErrBookingNotFound)

			err := store.Delete(ctx, 2)

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(store.Bookings()).To(gomega.HaveLen(2))
		})
	})

	ginkgo.Describe("Consistency checks against the cache", func() {
		ginkgo.BeforeEach(func() {
			mockAPI.listResult = []Booking{
				mkBooking(1, "2026-09-01", "09:00:00", "10:00:00", StatusConfirmed),
			}
			gomega.Expect(store.Fetch(ctx, ListFilter{})).To(gomega.Succeed())
		})

		ginkgo.It("should detect an overlap with a cached booking", func() {
			candidate := mkBooking(0, "2026-09-01", "09:30:00", "10:30:00", StatusPending)
			gomega.Expect(store.CheckConflict(candidate)).To(gomega.BeTrue())
		})

		ginkgo.It("should detect an awkward gap with a cached booking", func() {
			candidate := mkBooking(0, "2026-09-01", "11:00:00", "12:00:00", StatusPending)
			gomega.Expect(store.CheckGap(candidate)).To(gomega.BeTrue())
		})
	})
})
