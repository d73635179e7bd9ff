package monitor

import "time"

type Freshness int

const (
	// Backfill readings were already visible at subscription time, or are
	// replays/stale inserts. Display only; never evaluated.
	Backfill Freshness = iota
	// Live readings arrived strictly after the initial snapshot and are
	// evaluated exactly once.
	Live
)

type classifierState int

const (
	stateInitializing classifierState = iota
	stateReady
	stateDetached
)

// DefaultRecencyWindow bounds how old a reading may be, relative to wall
// clock, and still be classified Live. It is a heuristic defense against
// store replays after a reconnect, not a correctness guarantee.
const DefaultRecencyWindow = 5 * time.Minute

// FreshnessClassifier separates a device subscription's replayed snapshot
// from genuinely new readings. It starts in the initializing state, where
// every delivery is Backfill and only raises the watermark; MarkReady is
// called once the snapshot replay completes. From then on a delivery is
// Live only if its timestamp is strictly above the watermark and within
// the recency window of now. The watermark advances before the caller
// evaluates, so a Live reading's own side effects can never make it
// observable as new a second time. Duplicate timestamps after the first
// are Backfill.
//
// Not self-locking: the owning subscription serializes calls.
type FreshnessClassifier struct {
	state         classifierState
	watermark     int64 // epoch milliseconds
	recencyWindow time.Duration
	now           func() time.Time
}

func NewFreshnessClassifier(recencyWindow time.Duration) *FreshnessClassifier {
	if recencyWindow <= 0 {
		recencyWindow = DefaultRecencyWindow
	}
	return &FreshnessClassifier{
		state:         stateInitializing,
		recencyWindow: recencyWindow,
		now:           time.Now,
	}
}

// MarkReady captures the snapshot: the watermark now holds the largest
// timestamp observed during replay. Only the first call transitions.
func (c *FreshnessClassifier) MarkReady() {
	if c.state == stateInitializing {
		c.state = stateReady
	}
}

// Detach is terminal; every later classification is Backfill.
func (c *FreshnessClassifier) Detach() {
	c.state = stateDetached
}

func (c *FreshnessClassifier) Detached() bool {
	return c.state == stateDetached
}

// Classify assigns exactly one freshness to a delivered timestamp.
func (c *FreshnessClassifier) Classify(timestampMs int64) Freshness {
	switch c.state {
	case stateInitializing:
		if timestampMs > c.watermark {
			c.watermark = timestampMs
		}
		return Backfill
	case stateReady:
		if timestampMs <= c.watermark {
			return Backfill
		}
		age := c.now().UnixMilli() - timestampMs
		if age > c.recencyWindow.Milliseconds() {
			return Backfill
		}
		c.watermark = timestampMs
		return Live
	default:
		return Backfill
	}
}
