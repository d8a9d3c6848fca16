package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ats-scout/internal/domain/progress"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_BroadcastsJobsUpdated(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))
	defer srv.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 5*time.Millisecond)

	hub.NotifyJobsUpdated("run-1", "php", "any", 12, "jobs_php_any_2026-10-14.csv")

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)

		var evt JobsUpdatedEvent
		require.NoError(t, json.Unmarshal(msg, &evt))
		assert.Equal(t, "jobs_updated", evt.Type)
		assert.Equal(t, "run-1", evt.RunID)
		assert.Equal(t, 12, evt.TotalJobs)
		assert.Equal(t, "jobs_php_any_2026-10-14.csv", evt.File)
	}

	_ = a.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestHub_NilSafe(t *testing.T) {
	var h *Hub
	h.Broadcast([]byte("x"))
	h.NotifyJobsUpdated("", "", "", 0, "")
	assert.Zero(t, h.ClientCount())
}

type fakeStreamer struct {
	events []progress.Event
}

func (f fakeStreamer) Open() error { return nil }

func (f fakeStreamer) Stream(ctx context.Context, deliver func(progress.Event) error) error {
	for _, e := range f.events {
		if err := deliver(e); err != nil {
			return err
		}
	}
	return nil
}

func TestStreamProgress_SendsOneFramePerEvent(t *testing.T) {
	events := []progress.Event{
		progress.SourceStarted("Lever", 0, 1),
		progress.SourceCompleted("Lever", 0, 0, 1),
		progress.Completed(0, "jobs_php_any_2026-10-14.csv", nil),
	}
	h := NewHandler(nil, fakeStreamer{events: events}, nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		go h.streamProgress(conn)
	}))
	defer srv.Close()

	conn := dial(t, srv)
	var got []progress.Event
	for {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected err: %v", err)
			break
		}
		var e progress.Event
		require.NoError(t, json.Unmarshal(msg, &e))
		got = append(got, e)
	}

	require.Len(t, got, 3)
	assert.Equal(t, progress.KindSourceStart, got[0].Kind)
	assert.Equal(t, progress.KindComplete, got[2].Kind)
	assert.Equal(t, "jobs_php_any_2026-10-14.csv", got[2].File)
}
