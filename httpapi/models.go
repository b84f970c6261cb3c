package httpapi

import "time"

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// LoginResponse is returned by a successful login. The session token itself
// travels in the cookie.
type LoginResponse struct {
	SessionID string    `json:"session_id"`
	AccountID string    `json:"account_id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	// Evicted counts older sessions closed to respect the role quota.
	Evicted int `json:"evicted"`
}

// SessionView is one entry of GET /auth/sessions.
type SessionView struct {
	SessionID      string    `json:"session_id"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	IPAddress      string    `json:"ip_address,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
	Current        bool      `json:"current"`
}

// SessionListResponse is returned by GET /auth/sessions.
type SessionListResponse struct {
	Sessions []SessionView `json:"sessions"`
}

// TerminateOthersResponse is returned by POST /auth/sessions/terminate-others.
type TerminateOthersResponse struct {
	Terminated int `json:"terminated"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	// JustLocked is set on the failed attempt that locked the account.
	JustLocked bool `json:"just_locked,omitempty"`
	// Reason names the timeout for expired sessions (idle or absolute).
	Reason string `json:"reason,omitempty"`
}
