package models

import "time"

// AdminSession is the record stored after a successful admin login.
type AdminSession struct {
	IsAdmin   bool      `json:"isAdmin"`
	Timestamp time.Time `json:"timestamp"`
}

// ValidAt reports whether the session is still inside its fixed window.
func (s AdminSession) ValidAt(now time.Time, ttl time.Duration) bool {
	return s.IsAdmin && !s.Timestamp.IsZero() && now.Sub(s.Timestamp) <= ttl
}
