package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/adityarahman/booking-management/internal"
)

func TestAPI(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "API Module Suite")
}

// Mock Navigator for testing
type mockNavigator struct {
	mu         sync.Mutex
	current    string
	loginCalls int
}

func (m *mockNavigator) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *mockNavigator) GoToLogin() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginCalls++
}

func (m *mockNavigator) LoginCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginCalls
}

// recordedRequest captures one request as the backend saw it.
type recordedRequest struct {
	Method    string
	Path      string
	RequestID string
	Body      string
}

// recordingBackend is an httptest-backed fake API. Responses per path are
// scripted through handle; every request is recorded in order.
type recordingBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	handle   func(seen []recordedRequest, req recordedRequest, w http.ResponseWriter)
}

func newBackend(handle func(seen []recordedRequest, req recordedRequest, w http.ResponseWriter)) (*recordingBackend, *httptest.Server) {
	b := &recordingBackend{handle: handle}
	srv := httptest.NewServer(b)
	return b, srv
}

func (b *recordingBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	rec := recordedRequest{
		Method:    r.Method,
		Path:      r.URL.Path,
		RequestID: r.Header.Get("X-Request-ID"),
		Body:      string(body),
	}
	b.mu.Lock()
	seen := make([]recordedRequest, len(b.requests))
	copy(seen, b.requests)
	b.requests = append(b.requests, rec)
	b.mu.Unlock()
	b.handle(seen, rec, w)
}

func (b *recordingBackend) Requests() []recordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]recordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

func (b *recordingBackend) count(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// alreadyReplayed reports whether the same logical request (by X-Request-ID
// and path) was seen before, i.e. this is the post-refresh replay.
func alreadyReplayed(seen []recordedRequest, req recordedRequest) bool {
	for _, r := range seen {
		if r.Path == req.Path && r.RequestID == req.RequestID {
			return true
		}
	}
	return false
}

var _ = ginkgo.Describe("Client", func() {
	var (
		navigator *mockNavigator
		expired   int
		ctx       context.Context
	)

	newClient := func(baseURL string) *Client {
		client, err := New(Options{BaseURL: baseURL, Navigator: navigator})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		client.SetSessionExpiredHandler(func() { expired++ })
		return client
	}

	ginkgo.BeforeEach(func() {
		navigator = &mockNavigator{}
		expired = 0
		ctx = context.Background()
	})

	ginkgo.Describe("plain requests", func() {
		ginkgo.It("should decode a successful JSON response", func() {
			backend, srv := newBackend(func(_ []recordedRequest, req recordedRequest, w http.ResponseWriter) {
				writeJSON(w, http.StatusOK, `{"message":"pong"}`)
			})
			defer srv.Close()
			client := newClient(srv.URL)

			var out struct {
				Message string `json:"message"`
			}
			err := client.Get(ctx, "/ping", nil, &out)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(out.Message).To(gomega.Equal("pong"))
			gomega.Expect(backend.Requests()).To(gomega.HaveLen(1))
			gomega.Expect(backend.Requests()[0].RequestID).ToNot(gomega.BeEmpty())
		})

		ginkgo.It("should encode query parameters", func() {
			var gotQuery url.Values
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.Query()
				writeJSON(w, http.StatusOK, `{}`)
			}))
			defer srv.Close()
			client := newClient(srv.URL)

			q := url.Values{}
			q.Set("status", "confirmed")
			err := client.Get(ctx, "/bookings", q, nil)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(gotQuery.Get("status")).To(gomega.Equal("confirmed"))
		})
	})

	ginkgo.Describe("silent refresh", func() {
		ginkgo.Context("when a protected request hits an expired credential", func() {
			ginkgo.It("should refresh once and replay the request with identical parameters", func() {
				backend, srv := newBackend(func(seen []recordedRequest, req recordedRequest, w http.ResponseWriter) {
					switch req.Path {
					case "/refresh":
						writeJSON(w, http.StatusOK, `{"message":"Token refreshed"}`)
					default:
						if alreadyReplayed(seen, req) {
							writeJSON(w, http.StatusCreated, `{"booking":{"id":1}}`)
							return
						}
						writeJSON(w, http.StatusUnauthorized, `{"message":"Unauthenticated."}`)
					}
				})
				defer srv.Close()
				client := newClient(srv.URL)

				var out struct {
					Booking struct {
						ID int64 `json:"id"`
					} `json:"booking"`
				}
				err := client.Post(ctx, "/bookings", map[string]string{"date": "2026-09-01"}, &out)

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(out.Booking.ID).To(gomega.Equal(int64(1)))

				requests := backend.Requests()
				gomega.Expect(requests).To(gomega.HaveLen(3))
				gomega.Expect(requests[0].Path).To(gomega.Equal("/bookings"))
				gomega.Expect(requests[1].Path).To(gomega.Equal("/refresh"))
				gomega.Expect(requests[2].Path).To(gomega.Equal("/bookings"))

				// The replay is the same logical request: same ID, same bytes.
				gomega.Expect(requests[2].RequestID).To(gomega.Equal(requests[0].RequestID))
				gomega.Expect(requests[2].Body).To(gomega.Equal(requests[0].Body))
				gomega.Expect(requests[1].RequestID).ToNot(gomega.Equal(requests[0].RequestID))

				gomega.Expect(expired).To(gomega.BeZero())
				gomega.Expect(navigator.LoginCalls()).To(gomega.BeZero())
			})

			ginkgo.It("should give up after one replay when the credential is still rejected", func() {
				backend, srv := newBackend(func(_ []recordedRequest, req recordedRequest, w http.ResponseWriter) {
					if req.Path == "/refresh" {
						writeJSON(w, http.StatusOK, `{"message":"Token refreshed"}`)
						return
					}
					writeJSON(w, http.StatusUnauthorized, `{"message":"Unauthenticated."}`)
				})
				defer srv.Close()
				client := newClient(srv.URL)

				err := client.Get(ctx, "/bookings", nil, nil)

				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(internal.IsUnauthorized(err)).To(gomega.BeTrue())
				gomega.Expect(backend.count("POST", "/refresh")).To(gomega.Equal(1))
				gomega.Expect(backend.count("GET", "/bookings")).To(gomega.Equal(2))
			})
		})

		ginkgo.Context("when the refresh itself fails", func() {
			ginkgo.It("should discard the session and send the navigator to login", func() {
				backend, srv := newBackend(func(_ []recordedRequest, req recordedRequest, w http.ResponseWriter) {
					writeJSON(w, http.StatusUnauthorized, `{"message":"Unauthenticated."}`)
				})
				defer srv.Close()
				client := newClient(srv.URL)

				err := client.Get(ctx, "/bookings", nil, nil)

				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(expired).To(gomega.Equal(1))
				gomega.Expect(navigator.LoginCalls()).To(gomega.Equal(1))
				// The original request is not replayed after a failed refresh.
				gomega.Expect(backend.count("GET", "/bookings")).To(gomega.Equal(1))
				gomega.Expect(backend.count("POST", "/refresh")).To(gomega.Equal(1))
			})

			ginkgo.It("should not redirect while the user is on an auth page", func() {
				_, srv := newBackend(func(_ []recordedRequest, req recordedRequest, w http.ResponseWriter) {
					writeJSON(w, http.StatusUnauthorized, `{"message":"Unauthenticated."}`)
				})
				defer srv.Close()
				navigator.current = "/login"
				client := newClient(srv.URL)

				err := client.Get(ctx, "/bookings", nil, nil)

				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(expired).To(gomega.Equal(1))
				gomega.Expect(navigator.LoginCalls()).To(gomega.BeZero())
			})
		})

		ginkgo.Context("when an auth endpoint is rejected", func() {
			ginkgo.It("should pass a 401 from /me through without refreshing", func() {
				backend, srv := newBackend(func(_ []recordedRequest, req recordedRequest, w http.ResponseWriter) {
					writeJSON(w, http.StatusUnauthorized, `{"message":"Unauthenticated."}`)
				})
				defer srv.Close()
				client := newClient(srv.URL)

				err := client.Get(ctx, "/me", nil, nil)

				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(internal.IsUnauthorized(err)).To(gomega.BeTrue())
				gomega.Expect(backend.count("POST", "/refresh")).To(gomega.BeZero())
				gomega.Expect(navigator.LoginCalls()).To(gomega.BeZero())
			})

			ginkgo.It("should pass a 401 from a failed login through without refreshing", func() {
				backend, srv := newBackend(func(_ []recordedRequest, req recordedRequest, w http.ResponseWriter) {
					writeJSON(w, http.StatusUnauthorized, `{"message":"Invalid email or password"}`)
				})
				defer srv.Close()
				client := newClient(srv.URL)

				err := client.Post(ctx, "/login", map[string]string{"email": "a@b.c"}, nil)

				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(backend.count("POST", "/refresh")).To(gomega.BeZero())
			})

			ginkgo.It("should redirect but never nest when an explicit refresh call gets a 401", func() {
				backend, srv := newBackend(func(_ []recordedRequest, req recordedRequest, w http.ResponseWriter) {
					writeJSON(w, http.StatusUnauthorized, `{"message":"Unauthenticated."}`)
				})
				defer srv.Close()
				client := newClient(srv.URL)

				err := client.Post(ctx, "/refresh", nil, nil)

				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(internal.IsUnauthorized(err)).To(gomega.BeTrue())
				gomega.Expect(backend.count("POST", "/refresh")).To(gomega.Equal(1))
				gomega.Expect(navigator.LoginCalls()).To(gomega.Equal(1))
				// The explicit call's failure is surfaced, not converted into
				// a session-expired teardown.
				gomega.Expect(expired).To(gomega.BeZero())
			})
		})

		ginkgo.Context("when two requests expire at the same time", func() {
			ginkgo.It("should let each perform its own refresh and both recover", func() {
				backend, srv := newBackend(func(seen []recordedRequest, req recordedRequest, w http.ResponseWriter) {
					if req.Path == "/refresh" {
						writeJSON(w, http.StatusOK, `{"message":"Token refreshed"}`)
						return
					}
					if alreadyReplayed(seen, req) {
						writeJSON(w, http.StatusOK, `{"bookings":[]}`)
						return
					}
					writeJSON(w, http.StatusUnauthorized, `{"message":"Unauthenticated."}`)
				})
				defer srv.Close()
				client := newClient(srv.URL)

				var wg sync.WaitGroup
				errs := make([]error, 2)
				for i := range errs {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						errs[i] = client.Get(ctx, "/bookings", nil, nil)
					}(i)
				}
				wg.Wait()

				gomega.Expect(errs[0]).ToNot(gomega.HaveOccurred())
				gomega.Expect(errs[1]).ToNot(gomega.HaveOccurred())
				gomega.Expect(backend.count("POST", "/refresh")).To(gomega.Equal(2))
				gomega.Expect(backend.count("GET", "/bookings")).To(gomega.Equal(4))
			})
		})
	})

	ginkgo.Describe("error decoding", func() {
		ginkgo.It("should flatten 422 field errors to their first message", func() {
			_, srv := newBackend(func(_ []recordedRequest, req recordedRequest, w http.ResponseWriter) {
				writeJSON(w, http.StatusUnprocessableEntity,
					`{"message":"The given data was invalid.","errors":{"email":["The email has already been taken.","Second message"],"name":"The name field is required."}}`)
			})
			defer srv.Close()
			client := newClient(srv.URL)

			err := client.Post(ctx, "/register", map[string]string{}, nil)

			gomega.Expect(err).To(gomega.HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Message).To(gomega.Equal("The given data was invalid."))

			fields := FieldErrors(err)
			gomega.Expect(fields).To(gomega.HaveKeyWithValue("email", "The email has already been taken."))
			gomega.Expect(fields).To(gomega.HaveKeyWithValue("name", "The name field is required."))
		})

		ginkgo.It("should map a 404 to a not-found error", func() {
			_, srv := newBackend(func(_ []recordedRequest, req recordedRequest, w http.ResponseWriter) {
				writeJSON(w, http.StatusNotFound, `{"message":"Booking not found"}`)
			})
			defer srv.Close()
			client := newClient(srv.URL)

			err := client.Delete(ctx, "/bookings/99")

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeNotFound))
			gomega.Expect(appErr.Message).To(gomega.Equal("Booking not found"))
		})

		ginkgo.It("should fall back to a generic message on an empty body", func() {
			_, srv := newBackend(func(_ []recordedRequest, req recordedRequest, w http.ResponseWriter) {
				w.WriteHeader(http.StatusServiceUnavailable)
			})
			defer srv.Close()
			client := newClient(srv.URL)

			err := client.Get(ctx, "/bookings", nil, nil)

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.StatusCode).To(gomega.Equal(http.StatusServiceUnavailable))
			gomega.Expect(appErr.Message).To(gomega.Equal("request failed"))
		})
	})
})
