package session

// RegisterData is the payload for POST /register.
type RegisterData struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// LoginData is the payload for POST /login.
type LoginData struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d RegisterData) Validate() error {
	if d.Name == "" {
		return ValidationError{Msg: "name is required"}
	}
	if d.Email == "" {
		return ValidationError{Msg: "email is required"}
	}
	if d.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	if d.Password != d.PasswordConfirmation {
		return ValidationError{Msg: "password confirmation does not match"}
	}
	return nil
}

func (d LoginData) Validate() error {
	if d.Email == "" {
		return ValidationError{Msg: "email is required"}
	}
	if d.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}

// RegisterResponse is the success payload of POST /register.
type RegisterResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

// LoginResponse is the success payload of POST /login. The credential also
// travels as an HTTP-only cookie; the token fields are informational.
type LoginResponse struct {
	Message   string `json:"message"`
	User      User   `json:"user"`
	Token     string `json:"token,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	ExpiresIn int64  `json:"expires_in,omitempty"`
}

// RefreshResponse is the success payload of POST /refresh.
type RefreshResponse struct {
	Message   string `json:"message"`
	Token     string `json:"token,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	ExpiresIn int64  `json:"expires_in,omitempty"`
}

// LogoutResponse is the success payload of POST /logout.
type LogoutResponse struct {
	Message string `json:"message"`
}

type meResponse struct {
	User User `json:"user"`
}
