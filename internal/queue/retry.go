package queue

import "time"

// MaxAttempts is the total number of times a request is delivered before the
// worker pool gives up on it for good (spec §4.3: "retry policy: 3 attempts,
// exponential backoff").
const MaxAttempts = 3

const backoffBase = time.Second

// backoffForAttempt returns the delay to wait before redelivering a request
// after its attempt'th failure (1-indexed), doubling from a 1s base.
func backoffForAttempt(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := backoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}
