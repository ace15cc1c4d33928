package devtools

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/atoms/pkg/atom"
)

func (f *fixture) dial(t *testing.T, name string) (*websocket.Conn, *http.Response) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/ws/" + name
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, resp
}

// next reads messages until one satisfies match.
func next(t *testing.T, conn *websocket.Conn, match func(Message) bool) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var m Message
		require.NoError(t, conn.ReadJSON(&m))
		if match(m) {
			return m
		}
	}
}

func valueIs(raw string) func(Message) bool {
	return func(m Message) bool {
		return m.Type == "value" && string(m.Value) == raw
	}
}

func TestWatchStreamsChanges(t *testing.T) {
	f := newFixture(t)
	conn, resp := f.dial(t, "doubled")
	assert.NotEmpty(t, resp.Header.Get(ConnIDHeader))

	first := next(t, conn, func(m Message) bool { return m.Type == "value" })
	assert.Equal(t, "ready", first.State)
	assert.Equal(t, "2", string(first.Value))
	assert.Equal(t, uint64(1), first.Seq)

	assert.True(t, f.store.IsMounted(f.count), "watch keeps the atom and its dependencies mounted")

	require.NoError(t, atom.Set(f.store, f.count, 4))
	next(t, conn, valueIs("8"))
}

func TestWatchPendingThenReady(t *testing.T) {
	f := newFixture(t)
	conn, _ := f.dial(t, "slow")

	first := next(t, conn, func(m Message) bool { return m.Type == "value" })
	assert.Equal(t, "pending", first.State)

	close(f.release)
	m := next(t, conn, valueIs(`"done"`))
	assert.Equal(t, "ready", m.State)
}

func TestWatchClientWrites(t *testing.T) {
	f := newFixture(t)
	conn, _ := f.dial(t, "count")
	next(t, conn, valueIs("1"))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("6")))
	var sawResult, sawValue bool
	next(t, conn, func(m Message) bool {
		sawResult = sawResult || m.Type == "result"
		sawValue = sawValue || valueIs("6")(m)
		return sawResult && sawValue
	})

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`"six"`)))
	m := next(t, conn, func(m Message) bool { return m.Type == "error" })
	assert.Contains(t, m.Error, "invalid value")
}

func TestWatchUnmountsOnClose(t *testing.T) {
	f := newFixture(t)
	conn, _ := f.dial(t, "doubled")
	next(t, conn, func(m Message) bool { return m.Type == "value" })
	require.True(t, f.store.IsMounted(f.count))

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))

	assert.Eventually(t, func() bool {
		return !f.store.IsMounted(f.count)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatchServerClose(t *testing.T) {
	f := newFixture(t)
	conn, _ := f.dial(t, "count")
	next(t, conn, func(m Message) bool { return m.Type == "value" })

	f.srv.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var err error
	for err == nil {
		_, _, err = conn.ReadMessage()
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.False(t, f.store.IsMounted(f.count))
}

func TestWatchUnknownAtom(t *testing.T) {
	f := newFixture(t)
	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/ws/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
