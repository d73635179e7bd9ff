package monitor

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"aquawatch.xyz/aqua-monitor-service/pkg/common"
	"aquawatch.xyz/aqua-monitor-service/pkg/models"
	"aquawatch.xyz/aqua-monitor-service/pkg/store"
)

// SubscriptionManager owns at most one store subscription per device and
// multiplexes deliveries to any number of display callbacks. Evaluation of
// live readings is driven by the shared subscription, never per caller, so
// a reading is evaluated exactly once no matter how many components watch
// the device.
type SubscriptionManager struct {
	store    *store.Store
	evaluate func(deviceID string, reading models.Reading)

	// RecencyWindow is handed to each device's classifier at attach time.
	RecencyWindow time.Duration

	mu      sync.Mutex
	entries map[string]*deviceEntry
}

// deviceEntry is the per-device fan-out point. Its lock serializes
// classification with callback registration so a late-arriving delivery
// can never race a detach.
type deviceEntry struct {
	mu         sync.Mutex
	refs       int
	nextCbID   int
	callbacks  map[int]func(models.Reading)
	classifier *FreshnessClassifier
	detach     func()
}

func NewSubscriptionManager(st *store.Store, evaluate func(string, models.Reading)) *SubscriptionManager {
	return &SubscriptionManager{
		store:         st,
		evaluate:      evaluate,
		RecencyWindow: DefaultRecencyWindow,
		entries:       make(map[string]*deviceEntry),
	}
}

// Subscribe registers onUpdate for every delivery (backfill and live
// alike) on the device's reading stream. The first caller attaches the
// underlying store listener; later callers share it. The returned cancel
// is idempotent; the last cancel synchronously detaches the store
// listener, after which no evaluation for the device can occur.
func (sm *SubscriptionManager) Subscribe(deviceID string, onUpdate func(models.Reading)) (func(), error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	entry, ok := sm.entries[deviceID]
	if !ok {
		// The first caller's callback is registered before the store
		// listener attaches, so the replayed snapshot reaches it too.
		entry = &deviceEntry{
			refs:       1,
			nextCbID:   1,
			callbacks:  make(map[int]func(models.Reading)),
			classifier: NewFreshnessClassifier(sm.RecencyWindow),
		}
		entry.callbacks[1] = onUpdate

		detach, err := sm.store.SubscribeReadings(
			deviceID,
			func(r models.Reading) { sm.deliver(deviceID, entry, r) },
			entry.classifier.MarkReady,
		)
		if err != nil {
			return nil, err
		}
		entry.detach = detach
		sm.entries[deviceID] = entry

		common.GetLoggerWith(
			common.LoggerNameMonitorCore,
			zap.String(common.LoggerFieldCategory, common.LoggerCategoryPipeline),
		).Info("Device subscription attached", zap.String("device_id", deviceID))

		var once sync.Once
		return func() {
			once.Do(func() { sm.release(deviceID, entry, 1) })
		}, nil
	}

	entry.mu.Lock()
	entry.refs++
	entry.nextCbID++
	cbID := entry.nextCbID
	entry.callbacks[cbID] = onUpdate
	entry.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { sm.release(deviceID, entry, cbID) })
	}, nil
}

func (sm *SubscriptionManager) release(deviceID string, entry *deviceEntry, cbID int) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	entry.mu.Lock()
	delete(entry.callbacks, cbID)
	entry.refs--
	// A force-drop may have already detached this entry; only the last
	// regular cancel of a live entry tears the store listener down.
	last := entry.refs == 0 && !entry.classifier.Detached()
	if last {
		entry.classifier.Detach()
	}
	entry.mu.Unlock()

	if last {
		entry.detach()
		delete(sm.entries, deviceID)
		common.GetLoggerWith(
			common.LoggerNameMonitorCore,
			zap.String(common.LoggerFieldCategory, common.LoggerCategoryPipeline),
		).Info("Device subscription detached", zap.String("device_id", deviceID))
	}
}

// DropDevice force-detaches a device's subscription, used when the device
// itself is deleted. Outstanding cancel functions become no-ops.
func (sm *SubscriptionManager) DropDevice(deviceID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	entry, ok := sm.entries[deviceID]
	if !ok {
		return
	}
	entry.mu.Lock()
	entry.classifier.Detach()
	entry.refs = 0
	entry.callbacks = make(map[int]func(models.Reading))
	entry.mu.Unlock()

	entry.detach()
	delete(sm.entries, deviceID)
}

// ActiveDevices reports how many devices currently hold a store
// subscription.
func (sm *SubscriptionManager) ActiveDevices() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.entries)
}

// deliver runs on the store's delivery path for both the replayed
// snapshot and live appends. Classification and the watermark update
// happen under the entry lock, in delivery order; evaluation of a Live
// reading also runs inline so no later delivery for this device can be
// classified while it is in flight.
func (sm *SubscriptionManager) deliver(deviceID string, entry *deviceEntry, reading models.Reading) {
	entry.mu.Lock()
	if entry.classifier.Detached() {
		entry.mu.Unlock()
		return
	}
	freshness := entry.classifier.Classify(reading.Timestamp)
	callbacks := make([]func(models.Reading), 0, len(entry.callbacks))
	for _, cb := range entry.callbacks {
		callbacks = append(callbacks, cb)
	}

	if freshness == Live && sm.evaluate != nil {
		sm.evaluate(deviceID, reading)
	}
	entry.mu.Unlock()

	// Display fan-out happens for every delivery, whatever its freshness
	// and whatever evaluation did.
	for _, cb := range callbacks {
		cb(reading)
	}
}
