package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/tourneyd/internal/session"
)

func TestStopReleasesConnectionGoroutines(t *testing.T) {
	mgr := session.NewManager(zerolog.Nop(), quartz.NewReal(), session.DefaultManagerConfig())
	s := NewServer("127.0.0.1:0", mgr, log.New(io.Discard))
	go s.run()

	ts := httptest.NewServer(http.HandlerFunc(s.handleWebSocket))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "?player=7"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The welcome frame confirms the connection is registered and pumping.
	_, _, err = conn.ReadMessage()
	require.NoError(t, err)

	before := runtime.NumGoroutine()
	require.NoError(t, s.Stop())

	// Hub, read pump and write pump all exit; none block on unregister.
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before-3
	}, 5*time.Second, 10*time.Millisecond)
	t.Logf("before=%d after=%d", before, runtime.NumGoroutine())
	dumpGoroutines(t)
}
