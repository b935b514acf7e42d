package ratelimit

import "net/http"

// Limiter decides whether a keyed request may proceed.
type Limiter interface {
	Allow(key string) bool
}

// KeyFunc extracts the limiting key from a request.
type KeyFunc func(r *http.Request) string
