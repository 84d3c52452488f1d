//go:build integration

package integration

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestWebSocket_PageFlow(t *testing.T) {
	h := startHarnessWithoutScheduler(t)
	defer h.close(t)

	require.NoError(t, resetDatabase(t, h.db))

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(h.baseURL, "http")+"/v1/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	send := func(msg string) map[string]json.RawMessage {
		t.Helper()
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var resp map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &resp))
		return resp
	}
	status := func(resp map[string]json.RawMessage) string {
		var s string
		require.NoError(t, json.Unmarshal(resp["status"], &s))
		return s
	}

	resp := send(`{"type":"checkData"}`)
	require.Equal(t, "fileCountCheck", status(resp))
	require.JSONEq(t, `false`, string(resp["results"]))

	add := `{"type":"addFile","name":"ws.json","data":[` +
		playRecord("2020-12-24T18:00:00Z", "Carol", "Choir", "spotify:track:c", 600000) + `]}`
	require.Equal(t, "fileAdded", status(send(add)))

	require.Equal(t, "noAggregatedData", status(send(`{"type":"fetchAggregatedData","filter":"Lifetime"}`)))
	require.Equal(t, "aggregationComplete", status(send(`{"type":"checkAndAggregateFiles"}`)))

	resp = send(`{"type":"fetchKeys"}`)
	require.Equal(t, "keysFetched", status(resp))
	require.JSONEq(t, `["lifetime","2020"]`, string(resp["results"]))

	resp = send(`{"id":"req-1","type":"fetchAggregatedData","filter":"2020"}`)
	require.Equal(t, "aggregatedData", status(resp))
	require.JSONEq(t, `"req-1"`, string(resp["id"]))
}
