package broker

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDeliversSynchronouslyInOrder(t *testing.T) {
	topic := Local().Topic(context.Background(), "voice_connectionstate_event#VA-001")
	ctx := context.Background()

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		_, err := topic.Subscribe(ctx, HookFunc(func(context.Context, Event) {
			order = append(order, name)
		}))
		require.NoError(t, err)
	}

	require.NoError(t, topic.Publish(ctx, NewEvent(topic.Name(), nil)))
	// no waiting: delivery happened before Publish returned
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestLocalHookMayUnsubscribeDuringDelivery(t *testing.T) {
	topic := Local().Topic(context.Background(), "phonecontrol/answer")
	ctx := context.Background()

	var sub Subscription
	calls := 0
	sub, err := topic.Subscribe(ctx, HookFunc(func(context.Context, Event) {
		calls++
		sub.Unsubscribe()
	}))
	require.NoError(t, err)
	other := newRecordingHook()
	_, err = topic.Subscribe(ctx, other)
	require.NoError(t, err)

	require.NoError(t, topic.Publish(ctx, NewEvent(topic.Name(), nil)))
	require.NoError(t, topic.Publish(ctx, NewEvent(topic.Name(), nil)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, other.count())
	assert.Equal(t, 1, topic.Subscribers())
}

func TestLocalPanickingHookIsDropped(t *testing.T) {
	topic := Local().Topic(context.Background(), "phonecontrol/stop")
	ctx := context.Background()

	_, err := topic.Subscribe(ctx, HookFunc(func(context.Context, Event) { panic("boom") }))
	require.NoError(t, err)
	healthy := newRecordingHook()
	_, err = topic.Subscribe(ctx, healthy)
	require.NoError(t, err)

	require.NotPanics(t, func() {
		require.NoError(t, topic.Publish(ctx, NewEvent(topic.Name(), nil)))
	})
	assert.Equal(t, 1, healthy.count())
	assert.Equal(t, 1, topic.Subscribers())
}

func TestLocalPublishStopsOnCancelledContext(t *testing.T) {
	topic := Local().Topic(context.Background(), "cancel_navigation")
	recorder := newRecordingHook()
	_, err := topic.Subscribe(context.Background(), recorder)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = topic.Publish(ctx, NewEvent(topic.Name(), nil))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, recorder.count())
}

func TestLocalSubscriptionIDs(t *testing.T) {
	n := 0
	b := Local(WithSubscriptionIDs(func() string {
		n++
		return fmt.Sprintf("sub-%d", n)
	}))
	topic := b.Topic(context.Background(), "x")

	sub, err := topic.Subscribe(context.Background(), newRecordingHook())
	require.NoError(t, err)
	assert.Equal(t, "sub-1", sub.ID())
}
