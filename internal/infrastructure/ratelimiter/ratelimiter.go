package ratelimiter

import (
	"math"
	"net/http"
	"sync"
	"time"
)

const (
	tokensKeyPrefix  = "rl:tokens:"
	refillKeyPrefix  = "rl:refill:"
	defaultSourceKey = "X-RateLimit-Key"
)

type Limiter interface {
	Allow(sourceKey string) bool
	GetSourceKey(r *http.Request) string
	GetMaxBurst() int
}

// RateLimiter is a token bucket per source key. Bucket state lives in the
// cache so entries age out with their TTL instead of accumulating forever.
type RateLimiter struct {
	ratePerMilli    float64
	maxBurst        int
	cache           GetterSetter
	cacheTTL        time.Duration
	sourceHeaderKey string

	locks sync.Map // sourceKey -> *sync.Mutex
}

type bucket struct {
	tokens     int
	lastRefill int64 // Unix milliseconds
}

func (rl *RateLimiter) lockFor(sourceKey string) *sync.Mutex {
	lock, _ := rl.locks.LoadOrStore(sourceKey, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (rl *RateLimiter) load(sourceKey string) bucket {
	tokens, tokensErr := rl.cache.Get(tokensKeyPrefix + sourceKey)
	refill, refillErr := rl.cache.Get(refillKeyPrefix + sourceKey)

	// A miss or a broken cache both fail open with a full bucket.
	if tokensErr != nil || refillErr != nil {
		return bucket{tokens: rl.maxBurst, lastRefill: time.Now().UnixMilli()}
	}

	return bucket{tokens: tokens, lastRefill: int64(refill)}
}

func (rl *RateLimiter) save(sourceKey string, b bucket) {
	_ = rl.cache.SetWithExpiration(tokensKeyPrefix+sourceKey, b.tokens, rl.cacheTTL)
	_ = rl.cache.SetWithExpiration(refillKeyPrefix+sourceKey, int(b.lastRefill), rl.cacheTTL)
}

func (rl *RateLimiter) refill(b bucket, now int64) bucket {
	elapsed := now - b.lastRefill
	if elapsed <= 0 {
		return b
	}

	tokens := float64(b.tokens) + float64(elapsed)*rl.ratePerMilli
	if tokens >= float64(rl.maxBurst) {
		return bucket{tokens: rl.maxBurst, lastRefill: now}
	}
	return bucket{tokens: int(math.Floor(tokens)), lastRefill: now}
}

func (rl *RateLimiter) Allow(sourceKey string) bool {
	lock := rl.lockFor(sourceKey)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UnixMilli()
	b := rl.refill(rl.load(sourceKey), now)

	if b.tokens <= 0 {
		rl.save(sourceKey, b)
		return false
	}

	b.tokens--
	rl.save(sourceKey, b)
	return true
}

func (rl *RateLimiter) GetMaxBurst() int {
	return rl.maxBurst
}

func (rl *RateLimiter) GetSourceKey(r *http.Request) string {
	if key := r.Header.Get(rl.sourceHeaderKey); key != "" {
		return key
	}

	// Fall back to IP address
	return r.RemoteAddr
}

type Options struct {
	MaxRatePerSecond int
	MaxBurst         int
	Cache            GetterSetter
	CacheTTL         time.Duration
	SourceHeaderKey  string
}

func New(options Options) Limiter {
	if options.Cache == nil {
		options.Cache = NewInMemory()
	}
	if options.CacheTTL == 0 {
		options.CacheTTL = 10 * time.Second
	}
	if options.MaxBurst <= 0 {
		options.MaxBurst = options.MaxRatePerSecond
	}
	if options.SourceHeaderKey == "" {
		options.SourceHeaderKey = defaultSourceKey
	}

	return &RateLimiter{
		ratePerMilli:    float64(options.MaxRatePerSecond) / 1000.0,
		maxBurst:        options.MaxBurst,
		cache:           options.Cache,
		cacheTTL:        options.CacheTTL,
		sourceHeaderKey: options.SourceHeaderKey,
	}
}
