// Package session persists per-user proxy state between independent
// requests: the portal username and the serialized cookie jar. Stores are
// keyed by an opaque session id and expire after an hour of inactivity.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"
)

// InactivityExpiry is how long a session survives without a Put. Every
// successful request re-saves the session, which re-arms the timer.
const InactivityExpiry = time.Hour

type Session struct {
	// Username is only set after a successful portal login.
	Username string `json:"username"`
	// CookieJar is the serialized snapshot produced by lib/cookiejar.
	CookieJar string `json:"cookie_jar"`
}

// Store is implemented by the redis, sqlite and in-memory backends.
// Implementations must treat Destroy of an unknown id as a no-op.
type Store interface {
	Get(ctx context.Context, id string) (Session, bool, error)
	Put(ctx context.Context, id string, s Session) error
	Destroy(ctx context.Context, id string) error
}

// GenerateId returns a random 256-bit session id.
func GenerateId() (string, error) {
	token := make([]byte, 32)
	_, err := rand.Read(token)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(token), nil
}
