package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	jujuerrors "github.com/juju/errors"

	"github.com/rflorenc/ng-migrator/internal/models"
)

// Platform defines the health operations available on a legacy or NG connection.
type Platform interface {
	// Ping tests connectivity. Returns the reported version, possibly empty.
	Ping(ctx context.Context) (string, error)

	// CheckAuth verifies credentials. Returns nil if authenticated.
	CheckAuth(ctx context.Context) error
}

// NewPlatform creates the appropriate Platform implementation for a connection.
func NewPlatform(conn *models.Connection) Platform {
	switch conn.Type {
	case "ng":
		return &NGPlatform{client: NewClient(conn), accountID: conn.AccountID}
	default:
		return NewSource(conn)
	}
}

// Source reads entities from the legacy API.
type Source struct {
	client    *Client
	accountID string
}

// NewSource creates a Source for a legacy connection.
func NewSource(conn *models.Connection) *Source {
	return &Source{client: NewClient(conn), accountID: conn.AccountID}
}

// NewSourceWithClient wraps an existing client.
func NewSourceWithClient(c *Client, accountID string) *Source {
	return &Source{client: c, accountID: accountID}
}

type legacyEnvelope struct {
	Resource models.Resource `json:"resource"`
}

// GetEntity fetches GET /api/{path}/{id}. A 404 or an empty resource is
// reported as a NotFound error.
func (s *Source) GetEntity(ctx context.Context, path, accountID, appID, id string) (models.Resource, error) {
	params := url.Values{"accountId": {accountID}}
	if appID != "" {
		params.Set("appId", appID)
	}
	var env legacyEnvelope
	err := s.client.GetJSON(ctx, "/api/"+path+"/"+url.PathEscape(id), params, &env)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, jujuerrors.NotFoundf("%s %q", path, id)
		}
		return nil, err
	}
	if env.Resource == nil {
		return nil, jujuerrors.NotFoundf("%s %q", path, id)
	}
	return env.Resource, nil
}

// Ping calls the version endpoint.
func (s *Source) Ping(ctx context.Context) (string, error) {
	var env legacyEnvelope
	if err := s.client.GetJSON(ctx, "/api/version", nil, &env); err != nil {
		return "", err
	}
	return env.Resource.GetString("versionInfo.version"), nil
}

// CheckAuth verifies the credentials can read the account.
func (s *Source) CheckAuth(ctx context.Context) error {
	_, err := s.client.Get(ctx, "/api/users/user", url.Values{"accountId": {s.accountID}})
	return err
}

// NGPlatform checks health of an NG destination.
type NGPlatform struct {
	client    *Client
	accountID string
}

// Ping calls the NG version endpoint.
func (p *NGPlatform) Ping(ctx context.Context) (string, error) {
	body, err := p.client.Get(ctx, CorePrefix+"/version", nil)
	if err != nil {
		return "", err
	}
	return ParseVersionResponse(body), nil
}

// CheckAuth reads the destination account.
func (p *NGPlatform) CheckAuth(ctx context.Context) error {
	if p.accountID == "" {
		return fmt.Errorf("destination connection has no account id")
	}
	_, err := p.client.Get(ctx, CorePrefix+"/accounts/"+url.PathEscape(p.accountID),
		url.Values{"accountIdentifier": {p.accountID}})
	return err
}
