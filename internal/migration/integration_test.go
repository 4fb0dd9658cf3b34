package migration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	jujuerrors "github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rflorenc/ng-migrator/internal/discovery"
	"github.com/rflorenc/ng-migrator/internal/entity"
	"github.com/rflorenc/ng-migrator/internal/mapping"
	"github.com/rflorenc/ng-migrator/internal/models"
	"github.com/rflorenc/ng-migrator/internal/platform"
)

type legacySource map[string]models.Resource

func (s legacySource) GetEntity(ctx context.Context, path, accountID, appID, id string) (models.Resource, error) {
	if r, ok := s[path+"/"+id]; ok {
		return r, nil
	}
	return nil, jujuerrors.NotFoundf("%s %q", path, id)
}

// ngServer stores whatever is POSTed and serves it back on GET {path}/{identifier}.
type ngServer struct {
	mu     sync.Mutex
	stored map[string]bool
	posts  []string
}

func (s *ngServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		var payload map[string]map[string]interface{}
		if err := json.Unmarshal(body, &payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"status":"ERROR","code":"INVALID_REQUEST","message":"bad body"}`))
			return
		}
		for _, v := range payload {
			ident, _ := v["identifier"].(string)
			s.stored[r.URL.Path+"/"+ident] = true
			s.posts = append(s.posts, r.URL.Path+"/"+ident)
		}
		w.Write([]byte(`{"status":"SUCCESS","data":{}}`))
	case http.MethodGet:
		if !s.stored[r.URL.Path] {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"status":"ERROR","code":"RESOURCE_NOT_FOUND","message":"not found"}`))
			return
		}
		ident := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		w.Write([]byte(`{"status":"SUCCESS","data":{"identifier":"` + ident + `"}}`))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestEndToEnd_DiscoverMigrateRerun(t *testing.T) {
	src := legacySource{
		"services/svc1": {"name": "web", "appId": "app1", "artifactConnectorIds": []interface{}{"c1"}, "manifestIds": []interface{}{"m1"}},
		"settings/c1":   {"name": "Docker Hub", "secretIds": []interface{}{"s1"}, "value": map[string]interface{}{"type": "DOCKER", "url": "https://index.docker.io"}},
		"secrets/s1":    {"name": "docker pass"},
		"manifests/m1":  {"name": "values", "serviceId": "svc1", "fileName": "values.yaml", "fileContent": "replicas: 2"},
	}
	ng := &ngServer{stored: map[string]bool{}}
	ts := httptest.NewServer(ng)
	defer ts.Close()

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	port, _ := strconv.Atoi(u.Port())
	dest := &models.Connection{Type: "ng", Scheme: u.Scheme, Host: u.Hostname(), Port: port, AccountID: "ngacc", APIKey: "k"}

	registry := entity.NewDefaultRegistry(src)
	result, err := discovery.NewEngine(registry, nil, nil).Discover(context.Background(), "acc1", "app1", models.EntityID{Type: models.Service, ID: "svc1"}, nil)
	require.NoError(t, err)
	require.Len(t, result.Entities, 4)

	in := &models.MigrationInput{AccountID: "acc1", OrgIdentifier: "default", ProjectIdentifier: "proj", IdentifierCaseFormat: models.CamelCase}
	s := &Scheduler{
		Registry: registry,
		Clients:  platform.NewTargetClients(dest, in),
		Mappings: mapping.NewMemoryStore(),
	}

	first, err := s.Run(context.Background(), in, result, models.ModeSequential, nil)
	require.NoError(t, err)
	assert.Empty(t, first.Errors)
	assert.Equal(t, []string{
		"/ng/api/v2/secrets/dockerPass",
		"/ng/api/connectors/dockerHub",
		"/ng/api/file-store/web",
		"/ng/api/file-store/values",
		"/ng/api/servicesV2/web",
	}, ng.posts)
	assert.Len(t, first.Succeeded, 5)

	posted := len(ng.posts)
	second, err := s.Run(context.Background(), in, result, models.ModeSequential, nil)
	require.NoError(t, err)
	assert.Len(t, ng.posts, posted)
	assert.Empty(t, second.Errors)
	assert.Len(t, second.AlreadyMigrated, 4)
	assert.Empty(t, second.Succeeded)
}
