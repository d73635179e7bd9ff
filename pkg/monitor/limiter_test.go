package monitor

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"aquawatch.xyz/aqua-monitor-service/pkg/models"
)

func TestRateLimiterStore_Basic(t *testing.T) {
	store := NewRateLimiterStore(1, 2)

	limiter := store.GetLimiter("device1")
	if limiter == nil {
		t.Fatal("expected limiter, got nil")
	}
	if limiter.Limit() != 1 {
		t.Errorf("expected limit 1, got %v", limiter.Limit())
	}
}

func TestRateLimiterStore_CustomLimit(t *testing.T) {
	store := NewRateLimiterStore(1, 2)

	store.SetLimiter("device2", 5, 10)
	limiter := store.GetLimiter("device2")

	if limiter.Limit() != 5 {
		t.Errorf("expected limit 5, got %v", limiter.Limit())
	}
	if limiter.Burst() != 10 {
		t.Errorf("expected burst 10, got %v", limiter.Burst())
	}
}

func TestRateLimiterStore_Concurrency(t *testing.T) {
	store := NewRateLimiterStore(10, 5)
	deviceID := uuid.NewString()

	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			limiter := store.GetLimiter(deviceID)
			if limiter == nil {
				t.Error("expected limiter, got nil")
			}
		}()
	}

	wg.Wait()

	limiter := store.GetLimiter(deviceID)
	if limiter == nil {
		t.Error("expected limiter to exist after concurrent access")
	}
}

func TestAlertLimiterStore_DebouncesPerParameter(t *testing.T) {
	store := NewAlertLimiterStore()
	deviceID := uuid.NewString()

	if !store.Allow(deviceID, models.ParameterPH, time.Hour) {
		t.Fatal("first pH alert should be allowed")
	}
	if store.Allow(deviceID, models.ParameterPH, time.Hour) {
		t.Error("second pH alert within the interval should be suppressed")
	}

	// A different parameter on the same device has its own debounce.
	if !store.Allow(deviceID, models.ParameterAmmonia, time.Hour) {
		t.Error("first ammonia alert should be allowed")
	}

	// And a different device is independent entirely.
	if !store.Allow(uuid.NewString(), models.ParameterPH, time.Hour) {
		t.Error("other device's pH alert should be allowed")
	}
}

func TestAlertLimiterStore_RefillsAfterInterval(t *testing.T) {
	store := NewAlertLimiterStore()
	deviceID := uuid.NewString()

	interval := 300 * time.Millisecond
	if !store.Allow(deviceID, models.ParameterTemperature, interval) {
		t.Fatal("first alert should be allowed")
	}
	if store.Allow(deviceID, models.ParameterTemperature, interval) {
		t.Error("alert within the interval should be suppressed")
	}

	time.Sleep(400 * time.Millisecond)
	if !store.Allow(deviceID, models.ParameterTemperature, interval) {
		t.Error("alert after the interval should be allowed again")
	}
}

func TestAlertLimiterStore_IntervalChangeRebuildsLimiter(t *testing.T) {
	store := NewAlertLimiterStore()
	deviceID := uuid.NewString()

	if !store.Allow(deviceID, models.ParameterPH, time.Hour) {
		t.Fatal("first alert should be allowed")
	}

	// A config edit to a different interval takes effect immediately
	// because the limiter is rebuilt.
	if !store.Allow(deviceID, models.ParameterPH, time.Minute) {
		t.Error("expected fresh limiter after interval change")
	}
}

func TestAlertLimiterStore_Forget(t *testing.T) {
	store := NewAlertLimiterStore()
	deviceID := uuid.NewString()

	if !store.Allow(deviceID, models.ParameterPH, time.Hour) {
		t.Fatal("first alert should be allowed")
	}
	store.Forget(deviceID)

	if !store.Allow(deviceID, models.ParameterPH, time.Hour) {
		t.Error("expected limiter state cleared after Forget")
	}
}
