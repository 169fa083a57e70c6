package pubsub

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shmkit/shmkit/internal/osfs"
)

func isolatedTempDir(t *testing.T) {
	t.Helper()
	t.Setenv("TMPDIR", t.TempDir())
}

// TestSubscriberReceivesEachPublishOnce is spec.md scenario S5: a
// subscriber registered before two publishes receives exactly two
// callbacks, one per message.
func TestSubscriberReceivesEachPublishOnce(t *testing.T) {
	isolatedTempDir(t)

	p := New(osfs.NewReal(), "TestPubSubS5", 4096)
	require.NoError(t, p.Setup())
	defer p.Close()

	var mu sync.Mutex
	var received []string

	p.Subscribe("counter", func(_ string, payload []byte, _ any) {
		mu.Lock()
		received = append(received, string(payload))
		mu.Unlock()
	}, nil)

	require.NoError(t, p.PublishString("counter", "n=1"))
	time.Sleep(150 * time.Millisecond)
	require.NoError(t, p.PublishString("counter", "n=2"))
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"n=1", "n=2"}, received)
}

// TestFastPublishesCanBeCollapsed documents the by-design message-loss
// behavior: publishing faster than the poll period can overwrite a
// value before the poller observes it, so a subscriber may not see
// every intermediate message, only the latest at each tick.
func TestFastPublishesCanBeCollapsed(t *testing.T) {
	isolatedTempDir(t)

	p := New(osfs.NewReal(), "TestPubSubFastPublish", 4096)
	require.NoError(t, p.Setup())
	defer p.Close()

	var mu sync.Mutex
	var received []string
	p.Subscribe("fast", func(_ string, payload []byte, _ any) {
		mu.Lock()
		received = append(received, string(payload))
		mu.Unlock()
	}, nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, p.PublishString("fast", "value"))
	}
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	// At least the final state is observed; intermediate ones may be
	// collapsed since each Publish overwrites the prior value.
	require.NotEmpty(t, received)
	require.LessOrEqual(t, len(received), 5)
}

func TestMultipleSubscribersOnSameTopicAllDeliver(t *testing.T) {
	isolatedTempDir(t)

	p := New(osfs.NewReal(), "TestPubSubMultiSub", 4096)
	require.NoError(t, p.Setup())
	defer p.Close()

	var mu sync.Mutex
	var aCount, bCount int

	p.Subscribe("topic", func(_ string, _ []byte, _ any) {
		mu.Lock()
		aCount++
		mu.Unlock()
	}, nil)
	p.Subscribe("topic", func(_ string, _ []byte, _ any) {
		mu.Lock()
		bCount++
		mu.Unlock()
	}, nil)

	require.NoError(t, p.PublishString("topic", "hi"))
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, aCount)
	require.Equal(t, 1, bCount)
}

func TestCloseIsIdempotent(t *testing.T) {
	isolatedTempDir(t)

	p := New(osfs.NewReal(), "TestPubSubDoubleClose", 4096)
	require.NoError(t, p.Setup())
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
}
