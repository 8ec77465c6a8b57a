package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/analyze?token=" + url.QueryEscape(token)
}

func TestWebsocketAnalyze(t *testing.T) {
	env := setupTestHandler(t)
	token := env.signup(t, "ada@example.com")

	srv := httptest.NewServer(env.handler.mux)
	defer srv.Close()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, token), nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, conn.WriteJSON(map[string]any{"text": "The ball was thrown by John."}))
	var result struct {
		Suggestions []map[string]any `json:"suggestions"`
	}
	require.NoError(t, conn.ReadJSON(&result))

	types := make([]any, 0, len(result.Suggestions))
	for _, s := range result.Suggestions {
		types = append(types, s["type"])
	}
	assert.Equal(t, []any{"readability", "style"}, types)

	// a bad message gets an error reply and the connection stays open
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	var reply map[string]string
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "Invalid request body", reply["detail"])

	require.NoError(t, conn.WriteJSON(map[string]any{"text": "Short."}))
	require.NoError(t, conn.ReadJSON(&result))
	assert.Empty(t, result.Suggestions)
}

func TestWebsocketRejectsBadToken(t *testing.T) {
	env := setupTestHandler(t)

	srv := httptest.NewServer(env.handler.mux)
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "forged"), nil)
	if err == nil {
		t.Fatal("Expected dial to fail")
	}
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
