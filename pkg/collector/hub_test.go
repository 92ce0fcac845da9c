package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/config"
)

func TestSubscriberWants(t *testing.T) {
	tests := []struct {
		name    string
		types   string
		hitType string
		want    bool
	}{
		{"empty matches all", "", "screen", true},
		{"listed", "screen,media", "media", true},
		{"not listed", "screen,media", "event", false},
		{"spaces trimmed", " screen , media ", "screen", true},
		{"only commas matches all", ",,", "event", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, newSubscriber(nil, tt.types).wants(tt.hitType))
		})
	}
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	slow := newSubscriber(nil, "")
	hub.register <- slow
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hit := Hit{ID: 1, Params: []Param{{Name: "type", Value: "screen"}}}
	for i := 0; i < config.WSChannelBuffer+1; i++ {
		require.NoError(t, hub.Publish(hit))
	}

	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)

	received := 0
	for range slow.send {
		received++
	}
	require.Equal(t, config.WSChannelBuffer, received)
}

func TestHubSkipsUnsubscribedTypes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	s := newSubscriber(nil, "media")
	hub.register <- s
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Publish(Hit{ID: 1, Params: []Param{{Name: "type", Value: "screen"}}}))
	require.NoError(t, hub.Publish(Hit{ID: 2, Params: []Param{{Name: "type", Value: "media"}}}))

	select {
	case message := <-s.send:
		require.Contains(t, string(message), `"id":2`)
	case <-time.After(time.Second):
		t.Fatal("media hit not delivered")
	}
	require.Empty(t, s.send)
}
