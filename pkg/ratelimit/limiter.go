package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Free-plan defaults for metered astrology backends.
const (
	DefaultDailyLimit = 50
	DefaultBuffer     = 5
)

// DailyLimiter enforces a per-day request budget with a reserved buffer.
// With limit D and buffer K, exactly D-K acquisitions succeed before the
// limiter starts refusing. It is safe for concurrent use.
type DailyLimiter struct {
	dailyLimit int64
	buffer     int64
	remaining  atomic.Int64

	mu          sync.Mutex
	resetDay    string
	minInterval time.Duration
	lastAcquire time.Time
	now         func() time.Time
	log         zerolog.Logger
}

// NewDailyLimiter creates a limiter with the free-plan defaults.
func NewDailyLimiter() *DailyLimiter {
	return NewDailyLimiterWithLimits(DefaultDailyLimit, DefaultBuffer)
}

// NewDailyLimiterWithLimits creates a limiter with a custom daily limit
// and buffer. The buffer must be smaller than the limit for any request
// to be allowed.
func NewDailyLimiterWithLimits(dailyLimit, buffer int) *DailyLimiter {
	l := &DailyLimiter{
		dailyLimit: int64(dailyLimit),
		buffer:     int64(buffer),
		now:        time.Now,
		log:        zerolog.Nop(),
	}
	l.remaining.Store(l.dailyLimit)
	l.resetDay = dayKey(l.now())
	return l
}

// SetLogger attaches a structured logger for limit warnings.
func (l *DailyLimiter) SetLogger(log zerolog.Logger) {
	l.log = log
}

// SetMinInterval enforces a minimum spacing between successful
// acquisitions, on top of the daily budget. Zero (the default) disables
// spacing. Refusals for spacing do not consume budget.
func (l *DailyLimiter) SetMinInterval(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minInterval = d
}

// Acquire consumes one unit of the daily budget. It returns false when
// only the buffer remains, or when the previous acquisition was less
// than the minimum interval ago; the caller should refuse the request
// and surface a throttled error.
func (l *DailyLimiter) Acquire() bool {
	l.maybeReset()

	l.mu.Lock()
	if l.minInterval > 0 {
		now := l.now()
		if !l.lastAcquire.IsZero() && now.Sub(l.lastAcquire) < l.minInterval {
			l.mu.Unlock()
			l.log.Debug().
				Dur("min_interval", l.minInterval).
				Msg("request refused, minimum spacing not met")
			return false
		}
		if !l.tryAcquireBudget() {
			l.mu.Unlock()
			return false
		}
		l.lastAcquire = now
		l.mu.Unlock()
		return true
	}
	l.mu.Unlock()

	return l.tryAcquireBudget()
}

// tryAcquireBudget consumes one budget unit, refusing at the buffer
// floor.
func (l *DailyLimiter) tryAcquireBudget() bool {
	for {
		remaining := l.remaining.Load()
		if remaining <= l.buffer {
			l.log.Warn().
				Int64("used_today", l.dailyLimit-remaining).
				Int64("daily_limit", l.dailyLimit).
				Int64("buffer", l.buffer).
				Msg("daily request budget exhausted")
			return false
		}
		if l.remaining.CompareAndSwap(remaining, remaining-1) {
			return true
		}
	}
}

// Release refunds one unit after a failed request. Refunds never push
// the budget above the daily limit.
func (l *DailyLimiter) Release() {
	for {
		remaining := l.remaining.Load()
		if remaining >= l.dailyLimit {
			return
		}
		if l.remaining.CompareAndSwap(remaining, remaining+1) {
			return
		}
	}
}

// CanRequest reports whether an Acquire would currently succeed.
func (l *DailyLimiter) CanRequest() bool {
	l.maybeReset()
	if l.remaining.Load() <= l.buffer {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.minInterval > 0 && !l.lastAcquire.IsZero() && l.now().Sub(l.lastAcquire) < l.minInterval {
		return false
	}
	return true
}

// Remaining returns how many acquisitions are still allowed today,
// excluding the buffer.
func (l *DailyLimiter) Remaining() int {
	l.maybeReset()
	r := l.remaining.Load() - l.buffer
	if r < 0 {
		r = 0
	}
	return int(r)
}

// UsedToday returns how many units of the budget have been consumed.
func (l *DailyLimiter) UsedToday() int {
	l.maybeReset()
	return int(l.dailyLimit - l.remaining.Load())
}

// Status returns a snapshot for monitoring.
func (l *DailyLimiter) Status() Status {
	l.maybeReset()
	remaining := l.remaining.Load()
	effective := remaining - l.buffer
	if effective < 0 {
		effective = 0
	}
	return Status{
		DailyLimit:         int(l.dailyLimit),
		RemainingToday:     int(remaining),
		Buffer:             int(l.buffer),
		EffectiveRemaining: int(effective),
		UsedToday:          int(l.dailyLimit - remaining),
	}
}

// maybeReset restores the full budget when the calendar day rolls over.
func (l *DailyLimiter) maybeReset() {
	today := dayKey(l.now())

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.resetDay != today {
		l.resetDay = today
		l.remaining.Store(l.dailyLimit)
		l.log.Info().
			Str("day", today).
			Int64("daily_limit", l.dailyLimit).
			Msg("daily request budget reset")
	}
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Status is a point-in-time view of the budget for monitoring.
type Status struct {
	DailyLimit         int `json:"daily_limit"`
	RemainingToday     int `json:"remaining_today"`
	Buffer             int `json:"buffer"`
	EffectiveRemaining int `json:"effective_remaining"`
	UsedToday          int `json:"used_today"`
}

// String renders the status for log lines and CLI output.
func (s Status) String() string {
	return fmt.Sprintf("rate limit: %d/%d used today, %d effective remaining",
		s.UsedToday, s.DailyLimit, s.EffectiveRemaining)
}
