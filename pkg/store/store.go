package store

import (
	"sync"

	"go.uber.org/zap"

	"aquawatch.xyz/aqua-monitor-service/pkg/common"
	"aquawatch.xyz/aqua-monitor-service/pkg/db"
	"aquawatch.xyz/aqua-monitor-service/pkg/models"
)

// Store is the realtime-store surface the pipeline consumes: an append-only
// per-device reading log with replay-then-live subscriptions, plus a
// per-user change watch over the notification log.
//
// SubscribeReadings deliberately re-delivers rows that already exist at
// attach time before switching to live appends. Consumers that must not
// re-alert on old data are expected to filter the replayed portion
// themselves (see monitor.FreshnessClassifier).
type Store struct {
	db *db.DB

	// mu guards the hub and watcher registries only; each device hub has
	// its own lock so deliveries for different devices never serialize.
	mu        sync.Mutex
	hubs      map[string]*deviceHub
	userSubs  map[string]map[int]func()
	nextSubID int
}

// deviceHub serializes everything that touches one device's reading log:
// append+deliver, replay+attach, detach. Holding hub.mu across the whole
// append is what gives the in-order, no-interleaving delivery guarantee.
type deviceHub struct {
	mu   sync.Mutex
	subs map[int]func(models.Reading)
}

func New(database *db.DB) *Store {
	return &Store{
		db:       database,
		hubs:     make(map[string]*deviceHub),
		userSubs: make(map[string]map[int]func()),
	}
}

func (s *Store) hub(deviceID string) *deviceHub {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hubs[deviceID]
	if !ok {
		h = &deviceHub{subs: make(map[int]func(models.Reading))}
		s.hubs[deviceID] = h
	}
	return h
}

func (s *Store) subID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	return s.nextSubID
}

// AppendReading persists one reading and then delivers it, in order, to
// every listener attached to the device. Listener callbacks run under the
// device hub lock and must not attach or detach subscriptions themselves.
func (s *Store) AppendReading(deviceID string, reading *models.Reading) error {
	h := s.hub(deviceID)
	h.mu.Lock()
	defer h.mu.Unlock()

	reading.DeviceID = deviceID
	if err := s.db.Conn.Create(reading).Error; err != nil {
		return err
	}

	for _, deliver := range h.subs {
		deliver(*reading)
	}
	return nil
}

// SubscribeReadings attaches a listener to a device's reading log. Rows
// present at attach time are replayed to onDelivery in ascending timestamp
// order, then onSnapshot is called once, then every later append is
// delivered once. The returned function detaches the listener; once it
// returns no further delivery occurs, and calling it again is a no-op.
func (s *Store) SubscribeReadings(
	deviceID string,
	onDelivery func(models.Reading),
	onSnapshot func(),
) (func(), error) {
	h := s.hub(deviceID)
	h.mu.Lock()
	defer h.mu.Unlock()

	var existing []models.Reading
	err := s.db.Conn.
		Where("device_id = ?", deviceID).
		Order("timestamp asc").
		Find(&existing).Error
	if err != nil {
		return nil, err
	}

	for _, r := range existing {
		onDelivery(r)
	}
	if onSnapshot != nil {
		onSnapshot()
	}

	id := s.subID()
	h.subs[id] = onDelivery

	common.GetLoggerWith(common.LoggerNameStore).Info("Reading listener attached",
		zap.String("device_id", deviceID), zap.Int("replayed", len(existing)))

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
		})
	}, nil
}

// LastN is a point-in-time read of the most recent n readings for a
// device, returned in ascending timestamp order. No subscription.
func (s *Store) LastN(deviceID string, n int) ([]models.Reading, error) {
	var readings []models.Reading
	err := s.db.Conn.
		Where("device_id = ?", deviceID).
		Order("timestamp desc").
		Limit(n).
		Find(&readings).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}
	return readings, nil
}

// WatchUserNotifications fires fn after every change to a user's
// notification log (insert or read-state flip). The watch carries no
// payload; watchers re-query through the query façade.
func (s *Store) WatchUserNotifications(userID string, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userSubs[userID] == nil {
		s.userSubs[userID] = make(map[int]func())
	}
	s.nextSubID++
	id := s.nextSubID
	s.userSubs[userID][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.userSubs[userID], id)
			if len(s.userSubs[userID]) == 0 {
				delete(s.userSubs, userID)
			}
		})
	}
}

// NotifyUser wakes every watcher attached to the user's notification log.
// Watchers run outside the registry lock and may call back into the Store.
func (s *Store) NotifyUser(userID string) {
	s.mu.Lock()
	watchers := make([]func(), 0, len(s.userSubs[userID]))
	for _, fn := range s.userSubs[userID] {
		watchers = append(watchers, fn)
	}
	s.mu.Unlock()

	for _, fn := range watchers {
		fn()
	}
}
