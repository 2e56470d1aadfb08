// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter counts hits per key in fixed windows. The first hit for a key
// opens a window of length duration; further hits inside it count against
// limit, and the window resets once it expires.
// It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int           // max hits per window
	duration time.Duration // window length
	stop     chan struct{} // closed by Close to end the sweeper
	once     sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter.
// limit: maximum hits allowed per key in one window
// duration: the window length
//
// A background sweeper drops expired windows every 2x duration so keys
// that never come back (one-off IPs, mistyped emails) do not accumulate.
// Call Close when the limiter is no longer needed.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		stop:     make(chan struct{}),
	}
	go l.sweep(duration * 2)
	return l
}

// Allow records a hit for key.
// Returns true if the hit is within the limit, false if the key is
// currently throttled. A refused hit is not counted.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many hits key has left in its current window.
// A key with no live window has the full limit.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || time.Now().After(w.expiresAt) {
		return l.limit
	}
	if n := l.limit - w.count; n > 0 {
		return n
	}
	return 0
}

// RetryAfter returns how long until key may be allowed again. It is zero
// when key still has hits left or has no live window.
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || w.count < l.limit {
		return 0
	}
	if d := time.Until(w.expiresAt); d > 0 {
		return d
	}
	return 0
}

// Reset forgets key, as after a successful login for that account.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Close stops the sweeper. It is safe to call more than once.
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

// sweep periodically removes expired windows until Close is called.
func (l *Limiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for key, w := range l.windows {
				if now.After(w.expiresAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ClientIP returns the caller's address for rate limiting and login
// history. X-Forwarded-For (first entry) wins over X-Real-IP, which wins
// over RemoteAddr with its port stripped. The headers are trusted as-is,
// so the server must sit behind a proxy that sets them.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// no port
		return r.RemoteAddr
	}
	return ip
}

// Messages returned in Decision.Reason.
const (
	MsgTooManyFromIP     = "Too many login attempts. Please wait a minute before trying again."
	MsgTooManyForAccount = "Too many login attempts for this account. Please wait a few minutes."
)

const (
	defaultIPPerMinute    = 10
	defaultEmailPerWindow = 5
	emailWindow           = 5 * time.Minute
)

// Decision is the outcome of one LoginLimiter.Check.
type Decision struct {
	Allowed bool
	// Reason is the user-facing message when the attempt is refused.
	Reason string
	// RetryAfter is how long the caller should wait; zero when allowed.
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds for the
// Retry-After header. It is at least 1 for a refused attempt.
func (d Decision) RetryAfterSeconds() int {
	if d.Allowed {
		return 0
	}
	s := int(math.Ceil(d.RetryAfter.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// LoginLimiter throttles POST /auth/login on two keys:
//   - the client IP, per minute, against password spraying from one host
//   - the normalized email, per five minutes, against guessing one account
//     from many hosts
//
// The email counter is cleared on a successful login; the IP counter is not.
type LoginLimiter struct {
	ip    *Limiter
	email *Limiter
}

// NewLoginLimiter builds a LoginLimiter from the login_rate_ip and
// login_rate_email settings. Non-positive values fall back to 10 per IP
// and 5 per email.
func NewLoginLimiter(ipPerMinute, emailPerWindow int) *LoginLimiter {
	if ipPerMinute <= 0 {
		ipPerMinute = defaultIPPerMinute
	}
	if emailPerWindow <= 0 {
		emailPerWindow = defaultEmailPerWindow
	}
	return &LoginLimiter{
		ip:    New(ipPerMinute, time.Minute),
		email: New(emailPerWindow, emailWindow),
	}
}

// Check records an attempt for the request's IP and for email, IP first.
// An attempt refused on IP is not charged to the account.
func (ll *LoginLimiter) Check(r *http.Request, email string) Decision {
	ip := ClientIP(r)
	if !ll.ip.Allow(ip) {
		return Decision{Reason: MsgTooManyFromIP, RetryAfter: ll.ip.RetryAfter(ip)}
	}
	if key := emailKey(email); key != "" && !ll.email.Allow(key) {
		return Decision{Reason: MsgTooManyForAccount, RetryAfter: ll.email.RetryAfter(key)}
	}
	return Decision{Allowed: true}
}

// ResetEmail clears the per-account counter after a successful login.
func (ll *LoginLimiter) ResetEmail(email string) {
	if key := emailKey(email); key != "" {
		ll.email.Reset(key)
	}
}

// Close stops both sweepers.
func (ll *LoginLimiter) Close() {
	ll.ip.Close()
	ll.email.Close()
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
