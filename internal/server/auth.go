package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/adityarahman/booking-management/internal"
	"github.com/adityarahman/booking-management/internal/server/storage"
	"github.com/adityarahman/booking-management/internal/session"
	"github.com/adityarahman/booking-management/internal/transport"
	"github.com/adityarahman/booking-management/pkg/logger"
)

const (
	accessCookieName  = "access_token"
	refreshCookieName = "refresh_token"
)

// AuthHandler implements the cookie-session authentication endpoints of
// the reference API: register, login, refresh, me, logout.
type AuthHandler struct {
	*transport.BaseHandler
	repo         *storage.Repository
	tokens       *TokenGenerator
	bcryptCost   int
	cookieSecure bool
}

func NewAuthHandler(repo *storage.Repository, tokens *TokenGenerator, bcryptCost int, cookieSecure bool, lg *slog.Logger) *AuthHandler {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthHandler{
		BaseHandler:  transport.NewBaseHandler(lg),
		repo:         repo,
		tokens:       tokens,
		bcryptCost:   bcryptCost,
		cookieSecure: cookieSecure,
	}
}

type registerRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields := map[string][]string{}
	if req.Name == "" {
		fields["name"] = append(fields["name"], "The name field is required.")
	}
	if req.Email == "" {
		fields["email"] = append(fields["email"], "The email field is required.")
	} else if !strings.Contains(req.Email, "@") {
		fields["email"] = append(fields["email"], "The email must be a valid email address.")
	}
	if len(req.Password) < 8 {
		fields["password"] = append(fields["password"], "The password must be at least 8 characters.")
	}
	if req.Password != req.PasswordConfirmation {
		fields["password"] = append(fields["password"], "The password confirmation does not match.")
	}
	if len(fields) > 0 {
		h.WriteFieldErrors(w, fields)
		return
	}

	if _, err := h.repo.GetUserByEmail(req.Email); err == nil {
		h.WriteFieldErrors(w, map[string][]string{
			"email": {"The email has already been taken."},
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user := &storage.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := h.repo.CreateUser(user); err != nil {
		h.Logger.Error("failed to create user", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if _, err := h.issueCookies(w, user); err != nil {
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.WriteJSON(w, http.StatusCreated, session.RegisterResponse{
		Message: "Registration successful",
		User:    toWireUser(user),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields := map[string][]string{}
	if req.Email == "" {
		fields["email"] = append(fields["email"], "The email field is required.")
	}
	if req.Password == "" {
		fields["password"] = append(fields["password"], "The password field is required.")
	}
	if len(fields) > 0 {
		h.WriteFieldErrors(w, fields)
		return
	}

	user, err := h.repo.GetUserByEmail(req.Email)
	if err != nil {
		h.WriteError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.WriteError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	accessToken, err := h.issueCookies(w, user)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.WriteJSON(w, http.StatusOK, session.LoginResponse{
		Message:   "Login successful",
		User:      toWireUser(user),
		Token:     accessToken,
		TokenType: "Bearer",
		ExpiresIn: int64(h.tokens.AccessTokenTTL / time.Second),
	})
}

// Refresh exchanges a valid refresh cookie for a fresh access cookie. It
// deliberately requires no access token: it is the recovery path when the
// access credential has already expired.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		h.WriteError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	claims, err := h.tokens.ValidateRefreshToken(cookie.Value)
	if err != nil {
		h.WriteError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	user, err := h.repo.GetUserByID(claims.UserID)
	if err != nil {
		h.WriteError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	accessToken, err := h.issueCookies(w, user)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.WriteJSON(w, http.StatusOK, session.RefreshResponse{
		Message:   "Token refreshed",
		Token:     accessToken,
		TokenType: "Bearer",
		ExpiresIn: int64(h.tokens.AccessTokenTTL / time.Second),
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := internal.UserIDFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	user, err := h.repo.GetUserByID(userID)
	if err != nil {
		h.WriteError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]session.User{"user": toWireUser(user)})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, accessCookieName)
	h.clearCookie(w, refreshCookieName)
	h.WriteJSON(w, http.StatusOK, session.LogoutResponse{Message: "Logged out"})
}

// AuthMiddleware resolves the access cookie (or a Bearer header fallback)
// into the request context's user id.
func (h *AuthHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if cookie, err := r.Cookie(accessCookieName); err == nil {
			token = cookie.Value
		}
		if token == "" {
			token = h.ExtractBearerToken(r)
		}
		if token == "" {
			h.WriteError(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}

		claims, err := h.tokens.ValidateAccessToken(token)
		if err != nil {
			h.WriteError(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}

		ctx := internal.ContextWithUserID(r.Context(), claims.UserID)
		ctx = logger.With(ctx, "user_id", claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *AuthHandler) issueCookies(w http.ResponseWriter, user *storage.User) (accessToken string, err error) {
	accessToken, err = h.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return "", err
	}
	refreshToken, err := h.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return "", err
	}

	h.setCookie(w, accessCookieName, accessToken, h.tokens.AccessTokenTTL)
	h.setCookie(w, refreshCookieName, refreshToken, h.tokens.RefreshTokenTTL)
	return accessToken, nil
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func toWireUser(u *storage.User) session.User {
	return session.User{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		EmailVerifiedAt: u.EmailVerifiedAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}
