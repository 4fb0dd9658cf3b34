package api

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rflorenc/ng-migrator/internal/metrics"
	"github.com/rflorenc/ng-migrator/internal/models"
)

// legacyAPI serves {"resource": ...} envelopes keyed by request path.
func legacyAPI(t *testing.T, resources map[string]string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := resources[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"resource":` + body + `}`))
	}))
	t.Cleanup(ts.Close)
	return ts
}

// ngAPI accepts every POST and records its path.
type ngAPI struct {
	mu    sync.Mutex
	posts []string
}

func (n *ngAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":"ERROR","code":"RESOURCE_NOT_FOUND","message":"not found"}`))
		return
	}
	n.mu.Lock()
	n.posts = append(n.posts, r.URL.Path)
	n.mu.Unlock()
	w.Write([]byte(`{"status":"SUCCESS","data":{}}`))
}

func (n *ngAPI) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.posts)
}

func connBody(t *testing.T, ts *httptest.Server, typ string) map[string]interface{} {
	t.Helper()
	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	port, _ := strconv.Atoi(u.Port())
	return map[string]interface{}{
		"name":       typ + "-conn",
		"type":       typ,
		"scheme":     "http",
		"host":       u.Hostname(),
		"port":       port,
		"account_id": "acc1",
		"api_key":    "secret-key",
	}
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, rdr))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func waitForJob(t *testing.T, h http.Handler, id string) string {
	t.Helper()
	var status string
	require.Eventually(t, func() bool {
		var job struct {
			Status string `json:"status"`
		}
		decode(t, do(t, h, http.MethodGet, "/api/jobs/"+id, nil), &job)
		status = job.Status
		return status != "running"
	}, 5*time.Second, 20*time.Millisecond)
	return status
}

func newTestServer() (*Server, http.Handler) {
	_, m := metrics.NewRegistry()
	s := NewServer(models.NewConnectionStore(), nil, m, nil)
	s.Defaults = models.MigrationInput{OrgIdentifier: "default", ProjectIdentifier: "proj", IdentifierCaseFormat: models.CamelCase}
	return s, NewRouter(s)
}

func TestConnectionsCRUD(t *testing.T) {
	_, h := newTestServer()
	cg := legacyAPI(t, nil)

	rec := do(t, h, http.MethodPost, "/api/connections", connBody(t, cg, "cg"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Connection
	decode(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "source", created.Role)
	assert.NotEqual(t, "secret-key", created.APIKey)

	rec = do(t, h, http.MethodGet, "/api/connections", nil)
	var list []models.Connection
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.NotContains(t, rec.Body.String(), "secret-key")

	update := connBody(t, cg, "cg")
	update["name"] = "renamed"
	rec = do(t, h, http.MethodPut, "/api/connections/"+created.ID, update)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/connections/"+created.ID, nil)
	var got models.Connection
	decode(t, rec, &got)
	assert.Equal(t, "renamed", got.Name)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/connections/"+created.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/connections/"+created.ID, nil).Code)
}

func TestCreateConnection_Invalid(t *testing.T) {
	_, h := newTestServer()
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/connections", map[string]string{"type": "cg"}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/connections", map[string]string{"host": "h", "type": "awx"}).Code)
}

func TestDiscoverMigrateExport(t *testing.T) {
	_, h := newTestServer()
	cg := legacyAPI(t, map[string]string{
		"/api/services/svc1": `{"name":"web","appId":"app1","artifactConnectorIds":["c1"]}`,
		"/api/settings/c1":   `{"name":"Docker Hub","value":{"type":"DOCKER","url":"https://registry.example.com/${artifact.buildNo}"}}`,
	})
	ng := &ngAPI{}
	ngServer := httptest.NewServer(ng)
	defer ngServer.Close()

	var src, dst models.Connection
	decode(t, do(t, h, http.MethodPost, "/api/connections", connBody(t, cg, "cg")), &src)
	decode(t, do(t, h, http.MethodPost, "/api/connections", connBody(t, ngServer, "ng")), &dst)

	// Discovery
	rec := do(t, h, http.MethodPost, "/api/discover", map[string]string{
		"source_id": src.ID, "app_id": "app1", "type": "SERVICE", "id": "svc1",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	var started map[string]string
	decode(t, rec, &started)
	discoverJob := started["job_id"]
	require.Equal(t, "completed", waitForJob(t, h, discoverJob))

	var summary struct {
		Total  int `json:"total"`
		Counts []struct {
			Type  string `json:"type"`
			Count int    `json:"count"`
		} `json:"counts"`
	}
	decode(t, do(t, h, http.MethodGet, "/api/discover/"+discoverJob, nil), &summary)
	assert.Equal(t, 2, summary.Total)

	rec = do(t, h, http.MethodGet, "/api/discover/"+discoverJob+"/graph", nil)
	assert.Equal(t, "text/vnd.graphviz", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"SERVICE:svc1" -> "CONNECTOR:c1";`)

	// Export without pushing
	rec = do(t, h, http.MethodPost, "/api/export", map[string]string{"discovery_job_id": discoverJob})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "connector/dockerHub.yaml", zr.File[0].Name)
	assert.Zero(t, ng.count())

	// Migration
	rec = do(t, h, http.MethodPost, "/api/migrate", map[string]interface{}{
		"discovery_job_id": discoverJob,
		"destination_id":   dst.ID,
		"mode":             "two-phase",
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	decode(t, rec, &started)
	migrateJob := started["job_id"]
	require.Equal(t, "completed", waitForJob(t, h, migrateJob))

	var result struct {
		Status string               `json:"status"`
		Report models.SummaryReport `json:"report"`
	}
	decode(t, do(t, h, http.MethodGet, "/api/migrate/"+migrateJob, nil), &result)
	assert.Equal(t, "completed", result.Status)
	assert.Len(t, result.Report.Succeeded, 2)
	assert.Empty(t, result.Report.Errors)
	require.Len(t, result.Report.SkippedExpressions, 1)
	assert.Equal(t, []string{"${artifact.buildNo}"}, result.Report.SkippedExpressions[0].Expressions)
	assert.Equal(t, 2, ng.count())

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/jobs/"+migrateJob+"/cancel", nil).Code)

	rec = do(t, h, http.MethodGet, "/metrics", nil)
	assert.Contains(t, rec.Body.String(), `ngmigrator_migrated_entities_total{outcome="succeeded",type="SERVICE"} 1`)
	assert.Contains(t, rec.Body.String(), `ngmigrator_discovered_entities_total{type="CONNECTOR"} 1`)
}

func TestDiscover_RootMissingFailsJob(t *testing.T) {
	_, h := newTestServer()
	cg := legacyAPI(t, nil)
	var src models.Connection
	decode(t, do(t, h, http.MethodPost, "/api/connections", connBody(t, cg, "cg")), &src)

	rec := do(t, h, http.MethodPost, "/api/discover", map[string]string{"source_id": src.ID, "type": "SERVICE", "id": "gone"})
	var started map[string]string
	decode(t, rec, &started)
	assert.Equal(t, "failed", waitForJob(t, h, started["job_id"]))

	rec = do(t, h, http.MethodGet, "/api/discover/"+started["job_id"], nil)
	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "failed", body["status"])
	assert.True(t, strings.Contains(body["error"].(string), "root entity could not be discovered"))
}

func TestDiscover_Validation(t *testing.T) {
	_, h := newTestServer()
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/discover", map[string]string{"source_id": "x"}).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/discover", map[string]string{"source_id": "x", "type": "SERVICE", "id": "s"}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/discover/multi", map[string]interface{}{"source_id": "x"}).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/discover/unknown", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/migrate", map[string]string{"mode": "parallel"}).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/jobs/unknown", nil).Code)
}
