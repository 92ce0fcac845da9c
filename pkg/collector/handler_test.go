package collector

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/param"
	"github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/transport"
)

func newTestServer(t *testing.T, apiKey string) (*httptest.Server, *Hub) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	handler := NewHandler(NewLog(100), hub, NewMetrics(), apiKey)
	server := httptest.NewServer(NewRouter(handler))
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return server, hub
}

func get(t *testing.T, target, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func listHits(t *testing.T, target, token string) HitsResponse {
	t.Helper()
	resp := get(t, target, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out HitsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestReceiveHitFromTransport(t *testing.T) {
	server, _ := newTestServer(t, "")

	trans, err := transport.NewHTTP(server.URL+"/hit", "")
	require.NoError(t, err)

	stc, err := param.JSON(map[string]any{"lifecycle": map[string]int{"lc": 3}})()
	require.NoError(t, err)
	hit := []param.Pair{
		{Name: "s", Value: "410501"},
		{Name: "type", Value: "screen"},
		{Name: "p", Value: "app::home"},
		{Name: "stc", Value: url.QueryEscape(stc)},
	}
	require.NoError(t, trans.Send(context.Background(), hit))

	out := listHits(t, server.URL+"/api/hits", "")
	require.Equal(t, 1, out.Count)
	require.Equal(t, 1, out.Total)
	got := out.Hits[0]
	require.Equal(t, "screen", got.Type())
	require.Equal(t, "app::home", got.Get("p"))
	require.JSONEq(t, `{"lifecycle":{"lc":3}}`, got.Get("stc"))
}

func TestListFilters(t *testing.T) {
	server, _ := newTestServer(t, "")

	for _, q := range []string{"type=screen&p=a", "type=media&p=b", "type=screen&p=c"} {
		resp := get(t, server.URL+"/hit?"+q, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	out := listHits(t, server.URL+"/api/hits?type=screen&limit=1", "")
	require.Equal(t, 1, out.Count)
	require.Equal(t, 3, out.Total)
	require.Equal(t, "c", out.Hits[0].Get("p"))

	resp := get(t, server.URL+"/api/hits?limit=zero", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/hits", nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	require.Equal(t, http.StatusNoContent, del.StatusCode)
	require.Equal(t, 0, listHits(t, server.URL+"/api/hits", "").Total)
}

func TestEmptyHitIsRejected(t *testing.T) {
	server, _ := newTestServer(t, "")

	resp := get(t, server.URL+"/hit", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "empty hit", body.Message)
}

func TestAPIKey(t *testing.T) {
	server, _ := newTestServer(t, "secret")

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"hit without key", "/hit?type=screen", "", http.StatusUnauthorized},
		{"hit with wrong key", "/hit?type=screen", "nope", http.StatusUnauthorized},
		{"hit with key", "/hit?type=screen", "secret", http.StatusOK},
		{"list without key", "/api/hits", "", http.StatusUnauthorized},
		{"list with key", "/api/hits", "secret", http.StatusOK},
		{"health is open", "/health", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, server.URL+tt.path, tt.token)
			require.Equal(t, tt.want, resp.StatusCode)
		})
	}

	trans, err := transport.NewHTTP(server.URL+"/hit", "secret")
	require.NoError(t, err)
	require.NoError(t, trans.Send(context.Background(), []param.Pair{{Name: "type", Value: "media"}}))
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := newTestServer(t, "")

	get(t, server.URL+"/hit?type=screen&p=home", "")
	get(t, server.URL+"/hit?type=screen&p=away", "")
	get(t, server.URL+"/hit", "")

	resp := get(t, server.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	require.Contains(t, text, `collector_hits_received_total{type="screen"} 2`)
	require.Contains(t, text, `collector_hits_rejected_total{reason="malformed"} 1`)
	require.Contains(t, text, "collector_hits_stored 2")
}

func TestLiveFeed(t *testing.T) {
	server, hub := newTestServer(t, "")

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	get(t, server.URL+"/hit?type=screen&p=live", "")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg FeedMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "hit", msg.Type)
	require.Equal(t, "live", msg.Hit.Get("p"))
}

func TestLiveFeedFiltersByType(t *testing.T) {
	server, hub := newTestServer(t, "")

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws"
	all, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer all.Close()
	media, _, err := websocket.DefaultDialer.Dial(wsURL+"?type=media,event", nil)
	require.NoError(t, err)
	defer media.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 2 }, 2*time.Second, 10*time.Millisecond)

	get(t, server.URL+"/hit?type=screen&p=home", "")
	get(t, server.URL+"/hit?type=media&m1=trailer", "")

	var msg FeedMessage
	require.NoError(t, all.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, all.ReadJSON(&msg))
	require.Equal(t, "screen", msg.Hit.Type())
	require.NoError(t, all.ReadJSON(&msg))
	require.Equal(t, "media", msg.Hit.Type())

	msg = FeedMessage{}
	require.NoError(t, media.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, media.ReadJSON(&msg))
	require.Equal(t, "media", msg.Hit.Type())
	require.Equal(t, "trailer", msg.Hit.Get("m1"))
}
