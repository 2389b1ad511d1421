package hac_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"hacproxy/lib/scrapers/homeaccess"
	"hacproxy/lib/scrapers/homeaccess/hactest"
	"hacproxy/lib/telemetry"
	"hacproxy/services/hac"
	"hacproxy/services/session"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	portal *hactest.Portal
	server *httptest.Server
	client *http.Client
}

func newFixture(t *testing.T) *fixture {
	t.Cleanup(telemetry.SetupForTesting(t, "test:services/hac"))

	portal := hactest.New(hactest.Options{Username: "s123456", Password: "hunter2"})
	t.Cleanup(portal.Close)

	svc := hac.NewService(session.NewMemoryStore(), hac.Config{PortalUrl: portal.URL})
	server := httptest.NewServer(hac.NewRouter(svc))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &fixture{
		portal: portal,
		server: server,
		client: &http.Client{Jar: jar},
	}
}

func (f *fixture) post(t *testing.T, path string, body any) (int, []byte) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	res, err := f.client.Post(f.server.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, data
}

func TestLoginAndSchedule(t *testing.T) {
	f := newFixture(t)
	f.portal.SetSchedule("123456", "01/15/2025", []hactest.Row{
		{"1", "ENG101", "English I", "Smith, A", "204"},
		{"2", "ALG201", "Algebra II", "Jones, B", "117"},
	})

	status, _ := f.post(t, "/login", gin.H{"username": "s123456", "password": "hunter2"})
	require.Equal(t, http.StatusOK, status)

	status, body := f.post(t, "/schedule", gin.H{"date": "2025-01-15"})
	require.Equal(t, http.StatusOK, status)

	var result hac.ScheduleResult
	require.NoError(t, json.Unmarshal(body, &result))
	want := hac.ScheduleResult{
		Date: "01/15/2025",
		Schedule: []homeaccess.ScheduleEntry{
			{Period: "1", Course: "ENG101", Description: "English I", Teacher: "Smith, A", Room: "204"},
			{Period: "2", Course: "ALG201", Description: "Algebra II", Teacher: "Jones, B", Room: "117"},
		},
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("schedule mismatch (-want +got):\n%s", diff)
	}
}

func TestScheduleEmptyDayIsAnArray(t *testing.T) {
	f := newFixture(t)

	status, _ := f.post(t, "/login", gin.H{"username": "s123456", "password": "hunter2"})
	require.Equal(t, http.StatusOK, status)

	status, body := f.post(t, "/schedule", gin.H{"date": "2025-07-04"})
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(body), `"schedule":[]`)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)

	status, _ := f.post(t, "/login", gin.H{"username": "s123456", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, status)

	// nothing was persisted, the session is still anonymous
	status, _ = f.post(t, "/schedule", gin.H{"date": "2025-01-15"})
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestLoginMissingFields(t *testing.T) {
	f := newFixture(t)

	status, _ := f.post(t, "/login", gin.H{"username": "s123456"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 0, f.portal.LoginPageHits)
}

func TestScheduleBeforeLogin(t *testing.T) {
	f := newFixture(t)

	// anonymous callers get a 401 no matter what the body looks like
	status, _ := f.post(t, "/schedule", gin.H{"date": "2025-01-15"})
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = f.post(t, "/schedule", gin.H{"date": "not even a date"})
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestScheduleBadDate(t *testing.T) {
	f := newFixture(t)

	status, _ := f.post(t, "/login", gin.H{"username": "s123456", "password": "hunter2"})
	require.Equal(t, http.StatusOK, status)

	for _, date := range []string{"13/2024", "2024-13-40", "2025-02-30", ""} {
		status, _ := f.post(t, "/schedule", gin.H{"date": date})
		require.Equal(t, http.StatusBadRequest, status, "date %q", date)
	}
	require.Equal(t, 0, f.portal.ScheduleHits)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newFixture(t)

	status, _ := f.post(t, "/login", gin.H{"username": "s123456", "password": "hunter2"})
	require.Equal(t, http.StatusOK, status)

	for i := 0; i < 2; i++ {
		status, body := f.post(t, "/logout", gin.H{})
		require.Equal(t, http.StatusOK, status)
		require.Contains(t, string(body), `"ok":true`)
	}

	status, _ = f.post(t, "/schedule", gin.H{"date": "2025-01-15"})
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestLoginPortalUnreachable(t *testing.T) {
	f := newFixture(t)
	f.portal.Close()

	status, _ := f.post(t, "/login", gin.H{"username": "s123456", "password": "hunter2"})
	require.Equal(t, http.StatusInternalServerError, status)
}

func TestLoginMalformedBody(t *testing.T) {
	f := newFixture(t)

	res, err := f.client.Post(f.server.URL+"/login", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}
