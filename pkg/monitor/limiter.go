package monitor

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"aquawatch.xyz/aqua-monitor-service/pkg/models"
)

// RateLimiterStore manages per-device ingest rate limiters: device_id -> rate limiter
type RateLimiterStore struct {
	limiters     map[string]*rate.Limiter
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
}

func NewRateLimiterStore(defaultRate rate.Limit, defaultBurst int) *RateLimiterStore {
	return &RateLimiterStore{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  defaultRate,
		defaultBurst: defaultBurst,
	}
}

func (s *RateLimiterStore) GetLimiter(deviceID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, exists := s.limiters[deviceID]
	if !exists {
		limiter = rate.NewLimiter(s.defaultRate, s.defaultBurst)
		s.limiters[deviceID] = limiter
	}
	return limiter
}

func (s *RateLimiterStore) SetLimiter(deviceID string, deviceRate rate.Limit, deviceBurst int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limiters[deviceID] = rate.NewLimiter(deviceRate, deviceBurst)
}

// AlertLimiterStore enforces a device's alert interval: at most one
// notification per (device, parameter) within the configured spacing.
// Limiters are keyed lazily and rebuilt when the interval changes, so a
// device config edit takes effect on the next violation.
type AlertLimiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	intervals map[string]time.Duration
}

func NewAlertLimiterStore() *AlertLimiterStore {
	return &AlertLimiterStore{
		limiters:  make(map[string]*rate.Limiter),
		intervals: make(map[string]time.Duration),
	}
}

func alertKey(deviceID string, parameter models.Parameter) string {
	return deviceID + "/" + string(parameter)
}

// Allow reports whether a notification for this device and parameter may
// be emitted now, consuming the debounce token if so.
func (s *AlertLimiterStore) Allow(deviceID string, parameter models.Parameter, interval time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := alertKey(deviceID, parameter)
	limiter, exists := s.limiters[key]
	if !exists || s.intervals[key] != interval {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
		s.limiters[key] = limiter
		s.intervals[key] = interval
	}
	return limiter.Allow()
}

// Forget drops all limiter state for a device, used on device deletion.
func (s *AlertLimiterStore) Forget(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := deviceID + "/"
	for key := range s.limiters {
		if strings.HasPrefix(key, prefix) {
			delete(s.limiters, key)
			delete(s.intervals, key)
		}
	}
}
