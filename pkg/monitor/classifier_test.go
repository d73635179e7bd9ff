package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func frozenClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestClassifier_BackfillDuringInitializing(t *testing.T) {
	c := NewFreshnessClassifier(DefaultRecencyWindow)
	now := time.Now()
	c.now = frozenClock(now)

	base := now.UnixMilli() - 10_000
	for i := 0; i < 5; i++ {
		assert.Equal(t, Backfill, c.Classify(base+int64(i)*1000))
	}

	// Snapshot captured: watermark is the max replayed timestamp, so a
	// fresh later timestamp is Live and a replayed one is not.
	c.MarkReady()
	assert.Equal(t, Backfill, c.Classify(base+4000))
	assert.Equal(t, Live, c.Classify(now.UnixMilli()))
}

func TestClassifier_WatermarkAdvancesOnLive(t *testing.T) {
	c := NewFreshnessClassifier(DefaultRecencyWindow)
	now := time.Now()
	c.now = frozenClock(now)
	c.MarkReady()

	ts := now.UnixMilli() - 1000
	assert.Equal(t, Live, c.Classify(ts))
	// The same timestamp observed again (e.g. re-delivered by the store
	// because of the reading's own side effects) is suppressed.
	assert.Equal(t, Backfill, c.Classify(ts))
	assert.Equal(t, Live, c.Classify(ts+1))
}

func TestClassifier_DuplicateTimestampTie(t *testing.T) {
	c := NewFreshnessClassifier(DefaultRecencyWindow)
	now := time.Now()
	c.now = frozenClock(now)
	c.MarkReady()

	ts := now.UnixMilli()
	assert.Equal(t, Live, c.Classify(ts))
	assert.Equal(t, Backfill, c.Classify(ts))
	assert.Equal(t, Backfill, c.Classify(ts))
}

func TestClassifier_RecencyWindowRejectsStale(t *testing.T) {
	c := NewFreshnessClassifier(time.Minute)
	now := time.Now()
	c.now = frozenClock(now)
	c.MarkReady()

	// Above the watermark but far older than the window: a replayed or
	// clock-skewed historical insert, never Live.
	stale := now.Add(-10 * time.Minute).UnixMilli()
	assert.Equal(t, Backfill, c.Classify(stale))

	// And it must not have advanced the watermark.
	assert.Equal(t, Live, c.Classify(now.UnixMilli()))
}

func TestClassifier_MarkReadyOnlyTransitionsOnce(t *testing.T) {
	c := NewFreshnessClassifier(DefaultRecencyWindow)
	now := time.Now()
	c.now = frozenClock(now)

	c.Classify(now.UnixMilli() - 5000)
	c.MarkReady()
	assert.Equal(t, Live, c.Classify(now.UnixMilli()-4000))

	// A second MarkReady is a no-op, not a watermark reset.
	c.MarkReady()
	assert.Equal(t, Backfill, c.Classify(now.UnixMilli()-4000))
}

func TestClassifier_DetachIsTerminal(t *testing.T) {
	c := NewFreshnessClassifier(DefaultRecencyWindow)
	now := time.Now()
	c.now = frozenClock(now)
	c.MarkReady()

	c.Detach()
	assert.True(t, c.Detached())
	assert.Equal(t, Backfill, c.Classify(now.UnixMilli()))

	c.MarkReady() // cannot resurrect
	assert.Equal(t, Backfill, c.Classify(now.UnixMilli()+1))
}
