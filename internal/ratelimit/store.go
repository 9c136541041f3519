package ratelimit

import (
	"context"
	"time"
)

// Store keeps a sliding window of request timestamps per key. Keys are built
// by the Limiter from the client key ("user:{id}" or "anon:{hash}"), the scope
// and the window length.
type Store interface {
	// Record adds a request at the current time, drops entries older than
	// window and returns how many remain, the new one included.
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}
