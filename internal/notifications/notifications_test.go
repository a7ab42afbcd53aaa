package notifications

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/flow-controller/internal/config"
	"github.com/thatsimonsguy/flow-controller/internal/model"
	"github.com/thatsimonsguy/flow-controller/internal/report"
)

func ntfyServer(t *testing.T, status int) (*httptest.Server, *[]map[string]string) {
	t.Helper()
	var received []map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		received = append(received, body)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { initialized = false })
	return srv, &received
}

func TestSend(t *testing.T) {
	srv, received := ntfyServer(t, http.StatusOK)
	Init(config.Ntfy{Server: srv.URL, Topic: "flow-bench"})

	require.NoError(t, Send("Flow measurement 10s", "42 pulses in 10s"))

	require.Len(t, *received, 1)
	assert.Equal(t, map[string]string{
		"topic":   "flow-bench",
		"title":   "Flow measurement 10s",
		"message": "42 pulses in 10s",
	}, (*received)[0])
}

func TestSend_ServerError(t *testing.T) {
	srv, _ := ntfyServer(t, http.StatusBadRequest)
	Init(config.Ntfy{Server: srv.URL, Topic: "flow-bench"})

	err := Send("t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestSend_NotInitialized(t *testing.T) {
	Init(config.Ntfy{})
	assert.False(t, Enabled())
	assert.Error(t, Send("t", "m"))
}

func TestSink_OnlyResults(t *testing.T) {
	srv, received := ntfyServer(t, http.StatusOK)
	Init(config.Ntfy{Server: srv.URL, Topic: "flow-bench"})

	Sink{}.Report(report.Event{Kind: report.KindStarted, Seconds: 3})
	Sink{}.Report(report.Event{Kind: report.KindResult, Mode: model.ModeSplit, Seconds: 3, Cycles: 10, Pulses: 7})

	require.Len(t, *received, 1)
	assert.Equal(t, "Flow measurement 3s", (*received)[0]["title"])
	assert.Equal(t, "7 pulses over 10 x 3s windows", (*received)[0]["message"])
}
