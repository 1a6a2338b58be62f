package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-plot/engine/loader"
	"github.com/Carmen-Shannon/oxy-plot/engine/registry"
	"github.com/Carmen-Shannon/oxy-plot/engine/session"
)

const sceneFrame = `{"type": "scene", "payload": {"scene": {
	"uuid": "s",
	"pixelarea": [0, 0, 100, 100],
	"camera": {"resolution": [100, 100]},
	"plots": []
}}}`

const insertFrame = `{"type": "insert_plots", "payload": {"scene": "s", "plots": [
	{"uuid": "p", "plot_type": "Lines", "positions": [0, 0, 1, 1, 2, 0]}
]}}`

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		want    session.Message
		wantErr error
	}{
		{
			name:  "attribute",
			frame: `{"type": "attribute", "payload": {"plot": "p", "name": "color", "values": [1, 2], "length": 2}}`,
			want:  &session.AttributeUpdate{PlotID: "p", Name: "color", Values: []float32{1, 2}, Length: 2},
		},
		{
			name:  "delete scenes",
			frame: `{"type": "delete_scenes", "payload": {"scenes": ["a"], "plots": ["b", "c"]}}`,
			want:  &session.DeleteScenes{SceneIDs: []string{"a"}, PlotIDs: []string{"b", "c"}},
		},
		{
			name:  "camera tuple",
			frame: `{"type": "camera", "payload": {"scene": "s", "camera": [[1,0,0,0,0,1,0,0,0,0,1,0,0,0,0,1],[1,0,0,0,0,1,0,0,0,0,1,0,0,0,0,1],[4,3],[0,0,1]]}}`,
			want: &session.CameraUpdate{SceneID: "s", Camera: loader.CameraState{
				View:        [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1},
				Projection:  [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1},
				Resolution:  [2]float32{4, 3},
				EyePosition: [3]float32{0, 0, 1},
			}},
		},
		{
			name:  "snapshot without payload",
			frame: `{"type": "snapshot"}`,
			want:  &session.Snapshot{},
		},
		{name: "unknown type", frame: `{"type": "explode", "payload": {}}`, wantErr: ErrUnknownKind},
		{name: "garbage", frame: `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.frame))
			if tt.want == nil {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg)
		})
	}
}

func TestEncodeInserted(t *testing.T) {
	frame, err := Encode(KindInserted, Inserted{ID: "snap", PlotID: "p"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "inserted", "payload": {"id": "snap", "plot": "p"}}`, string(frame))
}

// hostServer upgrades one connection, sends frames, and forwards everything the client
// writes back to the replies channel.
func hostServer(t *testing.T, frames []string, replies chan<- []byte) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			replies <- data
		}
	}))
}

func TestClientDeliversAndReplies(t *testing.T) {
	ld := loader.NewLoader()
	defer ld.Close()
	reg := registry.NewContext()
	sess := session.NewSession(reg, ld)

	replies := make(chan []byte, 4)
	srv := hostServer(t, []string{
		sceneFrame,
		`{"type": "bogus"}`,
		`{"type": "snapshot", "payload": {"id": "after-insert"}}`,
		insertFrame,
	}, replies)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sess.Run(ctx) }()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := NewClient(url, sess)
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case data := <-replies:
		var env Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		assert.Equal(t, KindInserted, env.Type)
		var ins Inserted
		require.NoError(t, json.Unmarshal(env.Payload, &ins))
		assert.Equal(t, Inserted{ID: "after-insert", PlotID: "p"}, ins)
	case <-time.After(5 * time.Second):
		t.Fatal("no inserted reply")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("client did not stop")
	}
}

func TestClientRunFailsWithoutReconnect(t *testing.T) {
	ld := loader.NewLoader()
	defer ld.Close()
	sess := session.NewSession(registry.NewContext(), ld)

	c := NewClient("ws://127.0.0.1:1/none", sess)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.Run(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
}
