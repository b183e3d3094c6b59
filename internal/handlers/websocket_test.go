package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"predictive_maintenance/internal/pipeline"
	"predictive_maintenance/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// --- parseInterval unit tests ---

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil)

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", defaultInterval},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_large", "/ws?interval=2m", defaultInterval},
		{"interval_ms_too_large", "/ws?interval_ms=60000", defaultInterval},
		{"interval_invalid_string", "/ws?interval=bogus", defaultInterval},
		{"interval_ms_invalid", "/ws?interval_ms=NaN", defaultInterval},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.u, nil)
			c, _ := gin.CreateTestContext(w)
			c.Request = req
			got := h.parseInterval(c)
			if got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

// --- websocket integration tests ---

type envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialWS(t *testing.T, dash *mockDashboard, intervalMs string) *websocket.Conn {
	t.Helper()
	r := gin.New()
	h := NewHandler(&service.Service{Dashboard: dash}, nil)
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	q := u.Query()
	q.Set("interval_ms", intervalMs)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) pipeline.Snapshot {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	if env.Type != wsTypeSnapshot || len(env.Data) == 0 {
		t.Fatalf("bad envelope: %+v", env)
	}
	var snap pipeline.Snapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	return snap
}

func TestWebSocket_InitialAndPeriodicSnapshot(t *testing.T) {
	dash := &mockDashboard{snap: pipeline.Snapshot{Generation: 4, Phase: pipeline.PhaseUploaded}}
	conn := dialWS(t, dash, "20")

	st := readSnapshot(t, conn)
	if st.Generation != 4 || st.Phase != pipeline.PhaseUploaded {
		t.Fatalf("unexpected initial snapshot: %+v", st)
	}
	// periodic resend
	if st = readSnapshot(t, conn); st.Generation != 4 {
		t.Fatalf("unexpected periodic snapshot: %+v", st)
	}
}

func TestWebSocket_PushesTransitions(t *testing.T) {
	dash := &mockDashboard{
		snap:    pipeline.Snapshot{Generation: 1, Phase: pipeline.PhaseIdle},
		updates: make(chan pipeline.Snapshot, 1),
	}
	// long interval so only pushed transitions arrive
	conn := dialWS(t, dash, "30000")

	if st := readSnapshot(t, conn); st.Phase != pipeline.PhaseIdle {
		t.Fatalf("unexpected initial phase %q", st.Phase)
	}
	dash.updates <- pipeline.Snapshot{Generation: 2, Phase: pipeline.PhaseAnalyzing}
	st := readSnapshot(t, conn)
	if st.Generation != 2 || st.Phase != pipeline.PhaseAnalyzing {
		t.Fatalf("unexpected pushed snapshot: %+v", st)
	}
}

func TestWebSocket_ClosedPipelineClosesStream(t *testing.T) {
	dash := &mockDashboard{updates: make(chan pipeline.Snapshot)}
	conn := dialWS(t, dash, "30000")

	readSnapshot(t, conn)
	close(dash.updates)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("expected going-away close, got %v", err)
	}
}

func TestWebSocket_RequiresToken(t *testing.T) {
	auth := &mockAuth{parseID: 5}
	srv := httptest.NewServer(newTestRouter(&service.Service{
		Authorization: auth,
		Dashboard: &mockDashboard{
			snap:    pipeline.Snapshot{Generation: 1},
			updates: make(chan pipeline.Snapshot, 1),
		},
	}))
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}

	// no token -> handshake refused
	_, resp, err := dialer.Dial(u.String(), nil)
	if err == nil {
		t.Fatalf("expected handshake to fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}

	// token as query parameter
	q := u.Query()
	q.Set("token", "ws-token")
	u.RawQuery = q.Encode()
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial with query token: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if st := readSnapshot(t, conn); st.Generation != 1 {
		t.Fatalf("unexpected snapshot: %+v", st)
	}

	// bearer header works as well
	u.RawQuery = ""
	conn2, _, err := dialer.Dial(u.String(), authHeader("hdr-token"))
	if err != nil {
		t.Fatalf("dial with header token: %v", err)
	}
	_ = conn2.Close()
}
