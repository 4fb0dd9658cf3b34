package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rflorenc/ng-migrator/internal/models"
)

func TestGetJob_WhileWorkerLogs(t *testing.T) {
	s, h := newTestServer()
	job := s.Jobs.Create("migrate-sequential")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			job.AppendLog("  OK: entity")
		}
		job.Complete()
	}()

	for i := 0; i < 50; i++ {
		rec := do(t, h, http.MethodGet, "/api/jobs/"+job.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var view models.JobView
		decode(t, rec, &view)
		assert.Equal(t, job.ID, view.ID)
		do(t, h, http.MethodGet, "/api/jobs", nil)
	}
	wg.Wait()

	var view models.JobView
	decode(t, do(t, h, http.MethodGet, "/api/jobs/"+job.ID, nil), &view)
	assert.Equal(t, "completed", view.Status)
	assert.Len(t, view.Output, 200)
	assert.NotNil(t, view.FinishedAt)
}

func TestListJobs_FilterByType(t *testing.T) {
	s, h := newTestServer()
	s.Jobs.Create("discover")
	s.Jobs.Create("discover-multi")
	s.Jobs.Create("migrate-two-phase")

	var all, discovers []models.JobView
	decode(t, do(t, h, http.MethodGet, "/api/jobs", nil), &all)
	decode(t, do(t, h, http.MethodGet, "/api/jobs?type=discover", nil), &discovers)
	assert.Len(t, all, 3)
	require.Len(t, discovers, 2)
	for _, j := range discovers {
		assert.True(t, strings.HasPrefix(j.Type, "discover"), j.Type)
	}
}

func TestCancelJob(t *testing.T) {
	s, h := newTestServer()
	job := s.Jobs.Create("migrate-sequential")

	rec := do(t, h, http.MethodPost, "/api/jobs/"+job.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view models.JobView
	decode(t, rec, &view)
	assert.Equal(t, "cancelled", view.Status)
	assert.Contains(t, view.Output, "CANCELLED: stopped by user")
	assert.Error(t, job.Context().Err())

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/jobs/"+job.ID+"/cancel", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/jobs/unknown/cancel", nil).Code)
}

func TestStreamJobLogs(t *testing.T) {
	s, h := newTestServer()
	ts := httptest.NewServer(h)
	defer ts.Close()

	job := s.Jobs.Create("discover")
	job.AppendLog("=== Discovering SERVICE:svc1 ===")
	job.AppendLog("  SKIP: CONNECTOR:c1: not found")
	job.Fail("root entity could not be discovered")

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/jobs/" + job.ID + "/logs?offset=1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "  SKIP: CONNECTOR:c1: not found", string(msg))

	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
	assert.Equal(t, "failed: root entity could not be discovered", closeErr.Text)
}

func TestCloseReason_Truncated(t *testing.T) {
	reason := closeReason(models.JobView{Status: "failed", Error: strings.Repeat("x", 200)})
	assert.Len(t, reason, maxCloseReason)
	assert.True(t, strings.HasPrefix(reason, "failed: x"))
}
