package routing

import (
	"sync"
	"time"
)

// slidingWindow is a time-bucketed counter over a rolling window. Buckets
// are a fixed-size circular buffer; expired buckets are pruned on every
// access, so the counter never reports stale usage after an idle period.
type slidingWindow struct {
	window     time.Duration
	bucketSize time.Duration
	buckets    []windowBucket
	now        func() time.Time
}

type windowBucket struct {
	stamp time.Time
	value int64
}

func newSlidingWindow(window, bucketSize time.Duration) *slidingWindow {
	n := int(window / bucketSize)
	if n < 1 {
		n = 1
	}
	return &slidingWindow{
		window:     window,
		bucketSize: bucketSize,
		buckets:    make([]windowBucket, n),
		now:        time.Now,
	}
}

func (w *slidingWindow) add(value int64) {
	now := w.now()
	w.prune(now)

	stamp := now.Truncate(w.bucketSize)
	slot := -1
	for i := range w.buckets {
		if w.buckets[i].stamp.Equal(stamp) {
			w.buckets[i].value += value
			return
		}
		if slot < 0 && w.buckets[i].stamp.IsZero() {
			slot = i
		}
	}

	if slot < 0 {
		// No free slot, evict the oldest bucket.
		slot = 0
		for i := 1; i < len(w.buckets); i++ {
			if w.buckets[i].stamp.Before(w.buckets[slot].stamp) {
				slot = i
			}
		}
	}
	w.buckets[slot] = windowBucket{stamp: stamp, value: value}
}

func (w *slidingWindow) sum() int64 {
	w.prune(w.now())
	var total int64
	for i := range w.buckets {
		total += w.buckets[i].value
	}
	return total
}

func (w *slidingWindow) prune(now time.Time) {
	cutoff := now.Add(-w.window)
	for i := range w.buckets {
		if !w.buckets[i].stamp.IsZero() && w.buckets[i].stamp.Before(cutoff) {
			w.buckets[i] = windowBucket{}
		}
	}
}

// rateWindowBucket is the granularity of the per-minute windows.
const rateWindowBucket = time.Second

// Limiter tracks request and token consumption per key over a one-minute
// sliding window. Keys are credential names or credential|model pairs.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindows
	now     func() time.Time
}

type rateWindows struct {
	requests *slidingWindow
	tokens   *slidingWindow
}

// NewLimiter creates an empty rate limiter.
func NewLimiter() *Limiter {
	return &Limiter{
		windows: make(map[string]*rateWindows),
		now:     time.Now,
	}
}

func (l *Limiter) get(key string) *rateWindows {
	w, ok := l.windows[key]
	if !ok {
		w = &rateWindows{
			requests: newSlidingWindow(time.Minute, rateWindowBucket),
			tokens:   newSlidingWindow(time.Minute, rateWindowBucket),
		}
		w.requests.now = l.now
		w.tokens.now = l.now
		l.windows[key] = w
	}
	return w
}

// Allow reports whether a new request under key fits within the limits.
// A zero limit means unlimited. The check is read-only; admission is
// recorded separately with AddRequest once the credential is chosen.
func (l *Limiter) Allow(key string, rpm, tpm int) bool {
	if rpm <= 0 && tpm <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.get(key)
	if rpm > 0 && w.requests.sum() >= int64(rpm) {
		return false
	}
	if tpm > 0 && w.tokens.sum() >= int64(tpm) {
		return false
	}
	return true
}

// AddRequest records one admitted request under key.
func (l *Limiter) AddRequest(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.get(key).requests.add(1)
}

// AddTokens records token consumption under key, typically after the
// response usage is known.
func (l *Limiter) AddTokens(key string, tokens int) {
	if tokens <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.get(key).tokens.add(int64(tokens))
}

// Requests returns the requests counted in the current window for key.
func (l *Limiter) Requests(key string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.get(key).requests.sum()
}

// Tokens returns the tokens counted in the current window for key.
func (l *Limiter) Tokens(key string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.get(key).tokens.sum()
}
