package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/appsync/internal/domain/record"
	"github.com/GriffinCanCode/appsync/internal/domain/registry"
	"github.com/GriffinCanCode/appsync/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/appsync/internal/shared/id"
	"github.com/GriffinCanCode/appsync/internal/shared/types"
)

func newTestServer(t *testing.T, seed ...types.App) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(Config{Seed: seed}, nil, prometheus.NewRegistry())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func do(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &decoded), "body: %s", data)
	}
	return resp.StatusCode, decoded
}

func TestGetServesEnvelope(t *testing.T) {
	_, ts := newTestServer(t, types.App{ID: "1", Name: "A"}, types.App{ID: "2", Name: "B"})

	status, body := do(t, http.MethodGet, ts.URL+"/app", "")
	require.Equal(t, http.StatusOK, status)

	apps, ok := body["apps"].([]any)
	require.True(t, ok)
	require.Len(t, apps, 2)
	assert.Equal(t, float64(1), apps[0].(map[string]any)["id"])
	assert.Equal(t, "B", apps[1].(map[string]any)["name"])
	_, hasCurrent := body["id"]
	assert.False(t, hasCurrent)
}

func TestCreateAssignsIdentity(t *testing.T) {
	srv, ts := newTestServer(t, types.App{ID: "4", Name: "seed"})

	status, body := do(t, http.MethodPost, ts.URL+"/app", `{"name":"Notes"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, float64(5), body["id"], "ids continue after the seed")

	_, err := uuid.Parse(body["uuid"].(string))
	assert.NoError(t, err)

	current, ok := srv.Store().Current()
	require.True(t, ok)
	assert.Equal(t, "Notes", current.Name)

	_, list := do(t, http.MethodGet, ts.URL+"/app", "")
	assert.Equal(t, "Notes", list["name"], "the current entity rides along with the list")
}

func TestCreateRequiresName(t *testing.T) {
	_, ts := newTestServer(t)

	status, body := do(t, http.MethodPost, ts.URL+"/app", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "error", body["result"])
	assert.Equal(t, "name is required", body["text"])
}

func TestUpdate(t *testing.T) {
	_, ts := newTestServer(t, types.App{ID: "1", Name: "A"})

	status, body := do(t, http.MethodPut, ts.URL+"/app", `{"id":1,"name":"A2"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "A2", body["name"])

	status, body = do(t, http.MethodPut, ts.URL+"/app", `{"id":99,"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "app not found", body["text"])

	status, _ = do(t, http.MethodPut, ts.URL+"/app", `{"name":"x"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestDeleteCurrent(t *testing.T) {
	srv, ts := newTestServer(t)

	status, _ := do(t, http.MethodDelete, ts.URL+"/app", "")
	assert.Equal(t, http.StatusNotFound, status)

	do(t, http.MethodPost, ts.URL+"/app", `{"name":"Temp"}`)
	status, _ = do(t, http.MethodDelete, ts.URL+"/app", "")
	assert.Equal(t, http.StatusNoContent, status)
	assert.Empty(t, srv.Store().List())
}

func TestOverride(t *testing.T) {
	srv, ts := newTestServer(t, types.App{ID: "1"})
	srv.Store().SetOverride(&Override{Status: http.StatusOK, Body: `{}`})

	status, body := do(t, http.MethodGet, ts.URL+"/app", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body)

	srv.Store().SetOverride(nil)
	_, body = do(t, http.MethodGet, ts.URL+"/app", "")
	assert.Contains(t, body, "apps")
}

func TestCapturesRequests(t *testing.T) {
	srv, ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/app", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req_test")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "req_test", resp.Header.Get("X-Request-ID"))
	requests := srv.Store().Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodGet, requests[0].Method)
	assert.Equal(t, "/app", requests[0].Path)
	assert.Equal(t, "req_test", requests[0].RequestID)
}

func TestCaptureRejectsUnreadableBody(t *testing.T) {
	srv := New(Config{}, nil, prometheus.NewRegistry())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/app", iotest.ErrReader(errors.New("connection reset")))
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"result":"error","text":"could not read request body"}`, w.Body.String())
	assert.Empty(t, srv.Store().Requests())
	assert.Empty(t, srv.Store().List())
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	do(t, http.MethodGet, ts.URL+"/app", "")

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(data), `appsync_devserver_requests_total{method="GET",path="/app",status="200"} 1`)
}

func TestRecordAndRegistryRoundTrip(t *testing.T) {
	srv, ts := newTestServer(t, types.App{ID: "1", Name: "Mail"})

	opts := httpclient.DefaultOptions()
	opts.BaseURL = ts.URL
	opts.RetryMax = 0
	client := httpclient.NewClient(opts)
	ctx := context.Background()

	rec := record.New(client, "/app")
	require.NoError(t, rec.Set("name", "Calendar"))
	require.NoError(t, rec.Save(ctx))
	assert.Equal(t, id.AppID("2"), rec.ID())
	uuidValue, ok := rec.Get("uuid")
	require.True(t, ok)
	assert.NotEmpty(t, uuidValue)

	require.NoError(t, rec.Set("name", "Calendar Pro"))
	require.NoError(t, rec.Save(ctx))

	fetched := record.New(client, "/app")
	require.NoError(t, fetched.Fetch(ctx))
	assert.Equal(t, id.AppID("2"), fetched.ID())
	assert.Equal(t, "Calendar Pro", fetched.Name())
	_, hasApps := fetched.Get("apps")
	assert.False(t, hasApps)

	reg := registry.New(client, "/app")
	require.NoError(t, reg.Fetch(ctx))
	apps := reg.Apps()
	require.Len(t, apps, 2)
	assert.Equal(t, "Mail", apps[0].Name)
	assert.Equal(t, "Calendar Pro", apps[1].Name)

	require.NoError(t, rec.Destroy(ctx))
	require.NoError(t, reg.Fetch(ctx))
	assert.Equal(t, 1, reg.Len())

	methods := make([]string, 0)
	for _, req := range srv.Store().Requests() {
		assert.Equal(t, "/app", req.Path)
		methods = append(methods, req.Method)
	}
	assert.Equal(t, []string{"POST", "PUT", "GET", "GET", "DELETE", "GET"}, methods)
}

func TestRateLimit(t *testing.T) {
	srv := New(Config{RateLimitRPS: 1, RateLimitBurst: 1}, nil, prometheus.NewRegistry())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	status, _ := do(t, http.MethodGet, ts.URL+"/app", "")
	assert.Equal(t, http.StatusOK, status)

	status, body := do(t, http.MethodGet, ts.URL+"/app", "")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "rate limit exceeded", body["text"])
}

func TestClientRetriesRateLimitedRequest(t *testing.T) {
	srv := New(Config{RateLimitRPS: 1, RateLimitBurst: 1}, nil, prometheus.NewRegistry())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	opts := httpclient.DefaultOptions()
	opts.BaseURL = ts.URL
	opts.RetryMax = 2
	opts.RetryWaitMin = 10 * time.Millisecond
	opts.RetryWaitMax = 2 * time.Second
	client := httpclient.NewClient(opts)

	for i := 0; i < 2; i++ {
		_, err := client.Sync(context.Background(), http.MethodGet, "/app", nil)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, len(srv.Store().Requests()), 3, "the second call is retried after a 429")
}
