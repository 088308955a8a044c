package limiter

import (
	"log/slog"
	"math/rand"
	"time"
)

// ThrottleLimiter randomizes the pause between requests to resemble human
// browsing patterns. The first fetch of a session is never delayed; every
// later fetch sleeps for a uniform duration in [0,1) second.
type ThrottleLimiter struct {
	enabled bool
	fetched bool
	sleep   func(time.Duration)
	log     *slog.Logger
}

func NewThrottleLimiter(enabled bool, log *slog.Logger) *ThrottleLimiter {
	return &ThrottleLimiter{
		enabled: enabled,
		sleep:   time.Sleep,
		log:     log,
	}
}

// Wait blocks for the sampled delay and returns it. A disabled limiter and
// the first call of a session return immediately with zero.
func (l *ThrottleLimiter) Wait() time.Duration {
	if !l.enabled {
		return 0
	}
	if !l.fetched {
		l.fetched = true
		return 0
	}

	d := time.Duration(rand.Float64() * float64(time.Second))
	l.log.Debug("throttling.", slog.Duration("sleep_for", d))
	l.sleep(d)

	return d
}
