package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/signalpro/internal/api/response"
	"github.com/newthinker/signalpro/internal/session"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func newSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.New(session.DefaultConfig(), session.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp response.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return data
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorDetail {
	t.Helper()
	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}
