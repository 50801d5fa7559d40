package broker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokerFactory is a function that creates a new broker instance for testing
type brokerFactory func(t *testing.T) Broker

// acceptanceTest represents a single acceptance test case
type acceptanceTest struct {
	name string
	test func(t *testing.T, createBroker brokerFactory)
}

// runAcceptanceTests runs all acceptance tests against a broker implementation
func runAcceptanceTests(t *testing.T, name string, factory brokerFactory) {
	tests := []acceptanceTest{
		{"creates unique topics", testUniqueTopics},
		{"reuses existing topics", testReuseTopics},
		{"publishes events to all subscribers", testPublishToAllSubscribers},
		{"handles subscription lifecycle", testSubscriptionLifecycle},
		{"handles context cancellation", testContextCancellation},
		{"handles concurrent operations", testConcurrentOperations},
		{"validates hook requirement", testHookValidation},
		{"counts subscribers", testSubscriberCount},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", name, tt.name), func(t *testing.T) {
			tt.test(t, factory)
		})
	}
}

func TestBrokerImplementations(t *testing.T) {
	t.Run("Local", func(t *testing.T) {
		runAcceptanceTests(t, "Local", func(t *testing.T) Broker {
			return Local()
		})
	})

	t.Run("NATS", func(t *testing.T) {
		nc, err := nats.Connect(nats.DefaultURL)
		if err != nil {
			t.Skipf("no NATS server at %s: %v", nats.DefaultURL, err)
		}
		nc.Close()

		runAcceptanceTests(t, "NATS", func(t *testing.T) Broker {
			nc, err := nats.Connect(nats.DefaultURL)
			require.NoError(t, err)
			t.Cleanup(func() { nc.Close() })
			// unique prefix per test so parallel runs don't see each other
			return NATS(nc, "vshl.test."+fmt.Sprint(time.Now().UnixNano()))
		})
	})
}

// recordingHook collects delivered events; safe for the asynchronous NATS delivery.
type recordingHook struct {
	mu     sync.Mutex
	events []Event
	wg     *sync.WaitGroup
}

func newRecordingHook() *recordingHook {
	return &recordingHook{}
}

func (r *recordingHook) OnEvent(_ context.Context, e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	if r.wg != nil {
		r.wg.Done()
	}
}

func (r *recordingHook) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recordingHook) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.events))
	for _, e := range r.events {
		names = append(names, e.Name)
	}
	return names
}

func waitGroup(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for events to be processed")
	}
}

func testUniqueTopics(t *testing.T, createBroker brokerFactory) {
	broker := createBroker(t)
	topic1 := broker.Topic(context.Background(), "voice_authstate_event#VA-001")
	topic2 := broker.Topic(context.Background(), "voice_authstate_event#VA-002")
	assert.NotEqual(t, topic1, topic2)
	assert.Equal(t, "voice_authstate_event#VA-001", topic1.Name())
}

func testReuseTopics(t *testing.T, createBroker brokerFactory) {
	broker := createBroker(t)
	topic1 := broker.Topic(context.Background(), "render_template")
	topic2 := broker.Topic(context.Background(), "render_template")
	assert.Same(t, topic1, topic2)
}

func testPublishToAllSubscribers(t *testing.T, createBroker brokerFactory) {
	broker := createBroker(t)
	topic := broker.Topic(context.Background(), "voice_dialogstate_event#VA-001")
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(4) // 2 recorders * 2 events
	recorder1 := newRecordingHook()
	recorder2 := newRecordingHook()
	recorder1.wg = &wg
	recorder2.wg = &wg

	sub1, err := topic.Subscribe(ctx, recorder1)
	require.NoError(t, err)
	sub2, err := topic.Subscribe(ctx, recorder2)
	require.NoError(t, err)
	defer sub1.Unsubscribe()
	defer sub2.Unsubscribe()

	require.NoError(t, topic.Publish(ctx, NewEvent(topic.Name(), []byte(`{"va_id":"VA-001","state":"LISTENING"}`))))
	require.NoError(t, topic.Publish(ctx, NewEvent(topic.Name(), []byte(`{"va_id":"VA-001","state":"IDLE"}`))))

	waitGroup(t, &wg)

	assert.Equal(t, 2, recorder1.count())
	assert.Equal(t, 2, recorder2.count())
	recorder1.mu.Lock()
	assert.JSONEq(t, `{"va_id":"VA-001","state":"LISTENING"}`, string(recorder1.events[0].Payload))
	recorder1.mu.Unlock()
}

func testSubscriptionLifecycle(t *testing.T, createBroker brokerFactory) {
	broker := createBroker(t)
	topic := broker.Topic(context.Background(), "phonecontrol/dial")
	ctx := context.Background()

	recorder := newRecordingHook()
	sub, err := topic.Subscribe(ctx, recorder)
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID())

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, topic.Publish(ctx, NewEvent(topic.Name(), []byte(`{}`))))
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, recorder.count())
}

func testContextCancellation(t *testing.T, createBroker brokerFactory) {
	broker := createBroker(t)
	topic := broker.Topic(context.Background(), "set_destination")

	ctx, cancel := context.WithCancel(context.Background())
	recorder := newRecordingHook()
	sub, err := topic.Subscribe(ctx, recorder)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	cancel()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, topic.Publish(context.Background(), NewEvent(topic.Name(), []byte(`{}`))))
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, recorder.count())
}

func testConcurrentOperations(t *testing.T, createBroker brokerFactory) {
	broker := createBroker(t)
	topic := broker.Topic(context.Background(), "clear_template")
	ctx := context.Background()

	const numSubscribers = 10
	const numEvents = 100

	var processWg sync.WaitGroup
	processWg.Add(numSubscribers * numEvents)

	recorders := make([]*recordingHook, numSubscribers)
	for i := range numSubscribers {
		recorders[i] = newRecordingHook()
		recorders[i].wg = &processWg
		sub, err := topic.Subscribe(ctx, recorders[i])
		require.NoError(t, err)
		defer sub.Unsubscribe()
	}

	var publishWg sync.WaitGroup
	publishWg.Add(numEvents)
	for i := range numEvents {
		go func(i int) {
			defer publishWg.Done()
			assert.NoError(t, topic.Publish(ctx, NewEvent(topic.Name(), []byte(fmt.Sprintf(`{"n":%d}`, i)))))
		}(i)
	}

	publishWg.Wait()
	waitGroup(t, &processWg)

	for _, recorder := range recorders {
		assert.Equal(t, numEvents, recorder.count())
	}
}

func testHookValidation(t *testing.T, createBroker brokerFactory) {
	broker := createBroker(t)
	topic := broker.Topic(context.Background(), "test")

	_, err := topic.Subscribe(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHookRequired)
	assert.Contains(t, err.Error(), "hook is required")
}

func testSubscriberCount(t *testing.T, createBroker brokerFactory) {
	broker := createBroker(t)
	topic := broker.Topic(context.Background(), "render_player_info")
	ctx := context.Background()

	assert.Zero(t, topic.Subscribers())
	sub1, err := topic.Subscribe(ctx, newRecordingHook())
	require.NoError(t, err)
	sub2, err := topic.Subscribe(ctx, newRecordingHook())
	require.NoError(t, err)
	assert.Equal(t, 2, topic.Subscribers())

	sub1.Unsubscribe()
	assert.Equal(t, 1, topic.Subscribers())
	sub2.Unsubscribe()
	assert.Zero(t, topic.Subscribers())
}
