package models

import "time"

// Session is the server-side replacement for the token and profile the
// pages used to keep in the browser.
type Session struct {
	ID        string      `json:"id"`
	Token     string      `json:"token"`
	User      UserProfile `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
}

func (s *Session) Expired(maxAge time.Duration, now time.Time) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(s.CreatedAt) > maxAge
}

type LoginResponse struct {
	SessionID string      `json:"session_id"`
	User      UserProfile `json:"user"`
	Role      string      `json:"role"`
}
