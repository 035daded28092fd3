package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Name() string { return "mock" }

func (m *MockSink) Deliver(ctx context.Context, event Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Deliver(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) kinds() []Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Kind
	for _, e := range s.events {
		out = append(out, e.Kind)
	}
	return out
}

func TestDispatcher_DeliversToEverySink(t *testing.T) {
	failing := new(MockSink)
	failing.On("Deliver", mock.Anything, mock.Anything).Return(errors.New("sink down"))
	rec := &recordingSink{}

	d := NewDispatcher(8, failing, rec)
	d.Start()

	d.Notify(context.Background(), Event{Kind: KindLevelUp, Audience: ToUser("u1")})
	d.Notify(context.Background(), Event{Kind: KindBadgeUnlocked, Audience: ToUser("u1")})
	d.Close()

	assert.Equal(t, []Kind{KindLevelUp, KindBadgeUnlocked}, rec.kinds())
	assert.Equal(t, int64(2), d.Delivered())
	failing.AssertNumberOfCalls(t, "Deliver", 2)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	rec := &recordingSink{}
	d := NewDispatcher(1, rec)

	d.Notify(context.Background(), Event{Kind: KindLevelUp})
	d.Notify(context.Background(), Event{Kind: KindBadgeUnlocked})
	assert.Equal(t, int64(1), d.Dropped())

	d.Start()
	d.Close()
	assert.Equal(t, []Kind{KindLevelUp}, rec.kinds())
}

func TestDispatcher_DropsAfterClose(t *testing.T) {
	d := NewDispatcher(4)
	d.Start()
	d.Close()

	assert.NotPanics(t, func() {
		d.Notify(context.Background(), Event{Kind: KindLevelUp})
	})
	assert.Equal(t, int64(1), d.Dropped())
}

func TestDispatcher_StampsCreatedAt(t *testing.T) {
	rec := &recordingSink{}
	d := NewDispatcher(1, rec)
	d.Start()
	d.Notify(context.Background(), Event{Kind: KindLevelUp})
	d.Close()

	require.Len(t, rec.events, 1)
	assert.False(t, rec.events[0].CreatedAt.IsZero())
}

func TestRedisSink_Publishes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	sub := client.Subscribe(ctx, DefaultChannel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	sink := NewRedisSink(client, "")
	event := Event{
		Kind:     KindRewardsExchange,
		Message:  "u1 exchanged 400 points",
		Payload:  map[string]interface{}{"points_exchanged": float64(400)},
		Audience: ToStaff(),
	}
	require.NoError(t, sink.Deliver(ctx, event))

	select {
	case msg := <-sub.Channel():
		var got Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, KindRewardsExchange, got.Kind)
		assert.Equal(t, []string{"admin", "super_admin"}, got.Audience.Roles)
		assert.Equal(t, float64(400), got.Payload["points_exchanged"])
	case <-time.After(2 * time.Second):
		t.Fatal("no message published")
	}
}

func TestDiscard(t *testing.T) {
	var n Notifier = Discard{}
	assert.NotPanics(t, func() { n.Notify(context.Background(), Event{Kind: KindLevelUp}) })
}
