package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hris-labs/shiftgate/api"
	"github.com/hris-labs/shiftgate/attendance"
	"github.com/hris-labs/shiftgate/directory"
	"github.com/hris-labs/shiftgate/shift"
	"github.com/hris-labs/shiftgate/storage/memory"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func seedSessions() []shift.Session {
	fifteen := 15 * time.Minute
	return []shift.Session{
		{Name: "morning", Start: shift.NewTimeOfDay(7, 0, 0), End: shift.NewTimeOfDay(12, 0, 0), LateThreshold: &fifteen},
		{Name: "afternoon", Start: shift.NewTimeOfDay(13, 0, 0), End: shift.NewTimeOfDay(17, 0, 0)},
		{Name: "night", Start: shift.NewTimeOfDay(22, 0, 0), End: shift.NewTimeOfDay(6, 0, 0), LateThreshold: &fifteen},
	}
}

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo := memory.NewRepository()
	sessions := attendance.NewSessionStore(repo)
	_, err := sessions.ReplaceAll(context.Background(), seedSessions())
	require.NoError(t, err)

	cache := shift.NewCache(directory.NewStoreDirectory(sessions))
	engine := shift.NewEngine(cache, shift.WithLogger(discard))
	records := attendance.NewRecordStore(repo)
	recorder := attendance.NewRecorder(engine, records,
		attendance.WithLocation(time.UTC),
		attendance.WithRecorderLogger(discard))

	a := api.New(sessions, records, recorder, engine, api.WithCache(cache), api.WithLogger(discard))
	r := chi.NewRouter()
	r.Mount("/api/v1", a.Router())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			reqBody.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
		}
	}
	req, err := http.NewRequestWithContext(t.Context(), method, url, &reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func clock(employeeID string, at time.Time) api.ClockRequest {
	return api.ClockRequest{EmployeeID: employeeID, At: &at}
}

func day(hour, minute int) time.Time {
	return time.Date(2025, 6, 2, hour, minute, 0, 0, time.UTC)
}

func TestListSessionsIsDirectoryPayload(t *testing.T) {
	srv := setupServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/sessions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	// The endpoint must be readable by the directory client.
	sessions, err := directory.DecodeSessions(resp.Body)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, int64(1), sessions[0].ID)
	assert.Equal(t, "morning", sessions[0].Name)
	assert.Nil(t, sessions[1].LateThreshold)
}

func TestRemoteDirectoryAgainstServer(t *testing.T) {
	srv := setupServer(t)

	engine := shift.NewEngine(shift.NewCache(directory.NewHTTPDirectory(srv.URL+"/api/v1/sessions")), shift.WithLogger(discard))
	ctx := context.Background()
	assert.Equal(t, "night", engine.ResolveSession(ctx, day(23, 30)))
	assert.True(t, engine.IsLate(ctx, day(7, 16), "morning"))
	assert.False(t, engine.IsAttendanceAllowed(ctx, day(12, 30)))
}

func TestSessionCRUD(t *testing.T) {
	srv := setupServer(t)
	base := srv.URL + "/api/v1"

	// Prime the cache: 19:00 is outside every session.
	resp := doJSON(t, http.MethodGet, base+"/evaluate?at=2025-06-02T19:00:00Z", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[shift.Verdict](t, resp).Allowed)

	resp = doJSON(t, http.MethodPost, base+"/sessions", map[string]any{
		"session_name": "evening",
		"time_in":      "18:00",
		"time_out":     "21:00:00",
		"late_time":    "00:10:00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[directory.SessionPayload](t, resp)
	assert.Equal(t, int64(4), created.ID)
	assert.Equal(t, "18:00:00", created.TimeIn)

	// The write invalidates the cache, so the engine sees it at once.
	resp = doJSON(t, http.MethodGet, base+"/evaluate?at=2025-06-02T19:00:00Z", nil)
	verdict := decode[shift.Verdict](t, resp)
	assert.True(t, verdict.Allowed)
	assert.Equal(t, "evening", verdict.Session)
	assert.True(t, verdict.Late)
	assert.False(t, verdict.Fallback)

	resp = doJSON(t, http.MethodGet, base+"/sessions/4", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "evening", decode[directory.SessionPayload](t, resp).SessionName)

	resp = doJSON(t, http.MethodPut, base+"/sessions/4", map[string]any{
		"id":           99,
		"session_name": "Evening",
		"time_in":      "19:30",
		"time_out":     "21:00",
		"late_time":    nil,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[directory.SessionPayload](t, resp)
	assert.Equal(t, int64(4), updated.ID, "path id wins")
	assert.Nil(t, updated.LateTime)

	resp = doJSON(t, http.MethodDelete, base+"/sessions/4", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = doJSON(t, http.MethodGet, base+"/sessions/4", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = doJSON(t, http.MethodDelete, base+"/sessions/4", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionValidationErrors(t *testing.T) {
	srv := setupServer(t)
	base := srv.URL + "/api/v1"

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"duplicate name", http.MethodPost, "/sessions", map[string]any{"session_name": "MORNING", "time_in": "01:00", "time_out": "02:00"}, http.StatusConflict},
		{"bad time", http.MethodPost, "/sessions", map[string]any{"session_name": "x", "time_in": "24:00", "time_out": "02:00"}, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/sessions", map[string]any{"session_name": "x", "time_in": "01:00", "time_out": "02:00", "colour": "red"}, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/sessions", `{"session_name":`, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/sessions/abc", nil, http.StatusBadRequest},
		{"missing id", http.MethodGet, "/sessions/99", nil, http.StatusNotFound},
		{"rename onto existing", http.MethodPut, "/sessions/1", map[string]any{"session_name": "Night", "time_in": "07:00", "time_out": "12:00"}, http.StatusConflict},
		{"bad evaluate time", http.MethodGet, "/evaluate?at=yesterday", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, tt.method, base+tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.NotEmpty(t, decode[api.ErrorResponse](t, resp).Error)
		})
	}
}

func TestEvaluate(t *testing.T) {
	srv := setupServer(t)

	tests := []struct {
		at      string
		session string
		late    bool
		allowed bool
	}{
		{"2025-06-02T07:14:00Z", "morning", false, true},
		{"2025-06-02T07:16:00Z", "morning", true, true},
		{"2025-06-02T12:00:00Z", "afternoon", false, false},
		{"2025-06-02T23:59:00Z", "night", true, true},
		// The late instant is not wrapped past midnight.
		{"2025-06-02T03:00:00Z", "night", false, true},
		// Read in the attendance time zone (UTC here).
		{"2025-06-02T09:10:00+02:00", "morning", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.at, func(t *testing.T) {
			resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/evaluate?at="+urlEscape(tt.at), nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			v := decode[shift.Verdict](t, resp)
			assert.Equal(t, tt.session, v.Session)
			assert.Equal(t, tt.late, v.Late)
			assert.Equal(t, tt.allowed, v.Allowed)
		})
	}
}

func urlEscape(s string) string {
	return string(bytes.ReplaceAll([]byte(s), []byte("+"), []byte("%2B")))
}

func TestClockInOut(t *testing.T) {
	srv := setupServer(t)
	base := srv.URL + "/api/v1/attendance"

	resp := doJSON(t, http.MethodPost, base+"/clock-in", clock("E-1", day(12, 30)))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, base+"/clock-in", clock("E-1", day(7, 20)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	in := decode[attendance.Record](t, resp)
	assert.Equal(t, attendance.StatusLate, in.Status)
	assert.Equal(t, "morning", in.Session)

	resp = doJSON(t, http.MethodPost, base+"/clock-in", clock("E-1", day(8, 0)))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, base+"/clock-out", clock("E-1", day(11, 55)))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[attendance.Record](t, resp)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, attendance.StatusCompleted, out.Status)

	resp = doJSON(t, http.MethodPost, base+"/clock-out", clock("E-1", day(12, 0)))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, base+"/clock-in", api.ClockRequest{EmployeeID: " "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTap(t *testing.T) {
	srv := setupServer(t)
	base := srv.URL + "/api/v1/attendance"

	resp := doJSON(t, http.MethodPost, base+"/tap", clock("E-7", day(13, 0)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, attendance.EventClockIn, decode[api.TapResponse](t, resp).Action)

	resp = doJSON(t, http.MethodPost, base+"/tap", clock("E-7", day(13, 0).Add(5*time.Second)))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, base+"/tap", clock("E-7", day(16, 59)))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tap := decode[api.TapResponse](t, resp)
	assert.Equal(t, attendance.EventClockOut, tap.Action)
	assert.Equal(t, attendance.StatusCompleted, tap.Record.Status)
}

func TestListAttendanceAndAbsences(t *testing.T) {
	srv := setupServer(t)
	base := srv.URL + "/api/v1/attendance"

	for i, id := range []string{"E-1", "E-2", "E-3"} {
		resp := doJSON(t, http.MethodPost, base+"/clock-in", clock(id, day(7, i)))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := doJSON(t, http.MethodPost, base+"/absences", api.AbsencesRequest{
		Date:        "2025-06-02",
		EmployeeIDs: []string{"E-1", "E-4", "E-5"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	absences := decode[api.AbsencesResponse](t, resp)
	require.Len(t, absences.Records, 2)
	assert.Equal(t, attendance.StatusAbsent, absences.Records[0].Status)

	resp = doJSON(t, http.MethodGet, base+"?date=2025-06-02&limit=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[api.ListAttendanceResponse](t, resp)
	assert.Equal(t, 5, page.TotalCount)
	assert.Len(t, page.Records, 2)
	assert.True(t, page.HasMore)

	resp = doJSON(t, http.MethodGet, base+"?employee_id=E-2", nil)
	page = decode[api.ListAttendanceResponse](t, resp)
	require.Equal(t, 1, page.TotalCount)
	assert.Equal(t, "E-2", page.Records[0].EmployeeID)

	resp = doJSON(t, http.MethodGet, base+"?date=2025-06-03", nil)
	page = decode[api.ListAttendanceResponse](t, resp)
	assert.Zero(t, page.TotalCount)
	assert.NotNil(t, page.Records)

	resp = doJSON(t, http.MethodGet, base+"?date=June", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, base+"/absences", api.AbsencesRequest{Date: "2025-06-02"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOpenAPIDocumentServed(t *testing.T) {
	srv := setupServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/openapi.yaml", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "/attendance/clock-in")
}
