package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rflorenc/ng-migrator/internal/models"
)

// Target names one of the NG services artifacts are pushed to.
type Target string

const (
	TargetCore     Target = "core"
	TargetPipeline Target = "pipeline"
	TargetTemplate Target = "template"
)

// API prefixes of the NG services on the destination host.
const (
	CorePrefix     = "/ng/api"
	PipelinePrefix = "/pipeline/api"
	TemplatePrefix = "/template/api"
)

// TargetClients holds one client per NG service, all pointed at the same
// destination account.
type TargetClients struct {
	AccountID string
	Core      *Client
	Pipeline  *Client
	Template  *Client
}

// NewTargetClients builds the NG clients for a destination connection. The
// run's auth token, when set, replaces the connection's API key.
func NewTargetClients(conn *models.Connection, input *models.MigrationInput) *TargetClients {
	apiKey := conn.APIKey
	accountID := conn.AccountID
	if input != nil {
		if input.DestinationAuthToken != "" {
			apiKey = input.DestinationAuthToken
		}
		if input.DestinationAccountID != "" {
			accountID = input.DestinationAccountID
		}
	}
	base := conn.BaseURL()
	return &TargetClients{
		AccountID: accountID,
		Core:      newClient(base+CorePrefix, conn, apiKey),
		Pipeline:  newClient(base+PipelinePrefix, conn, apiKey),
		Template:  newClient(base+TemplatePrefix, conn, apiKey),
	}
}

// For returns the client for a target, defaulting to core.
func (t *TargetClients) For(target Target) *Client {
	switch target {
	case TargetPipeline:
		return t.Pipeline
	case TargetTemplate:
		return t.Template
	default:
		return t.Core
	}
}

// ScopeParams returns the account/org/project query parameters NG expects.
func (t *TargetClients) ScopeParams(d models.NGEntityDetail) url.Values {
	params := url.Values{"accountIdentifier": {t.AccountID}}
	if d.OrgIdentifier != "" {
		params.Set("orgIdentifier", d.OrgIdentifier)
	}
	if d.ProjectIdentifier != "" {
		params.Set("projectIdentifier", d.ProjectIdentifier)
	}
	return params
}

// Fetch GETs an NG entity and returns its "data" object. found is false when
// NG answers with 404, or with 400 and an *_NOT_FOUND code.
func (t *TargetClients) Fetch(ctx context.Context, target Target, path string, d models.NGEntityDetail) (models.Resource, bool, error) {
	body, err := t.For(target).Get(ctx, path, t.ScopeParams(d))
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			if httpErr.StatusCode == http.StatusNotFound {
				return nil, false, nil
			}
			if httpErr.StatusCode == http.StatusBadRequest {
				var env ngEnvelope
				if json.Unmarshal(httpErr.Body, &env) == nil && strings.HasSuffix(env.Code, "NOT_FOUND") {
					return nil, false, nil
				}
			}
		}
		return nil, false, err
	}
	var env struct {
		Data models.Resource `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, false, fmt.Errorf("parsing response from %s: %w", path, err)
	}
	if env.Data == nil {
		env.Data = models.Resource{}
	}
	return env.Data, true, nil
}

// Exists reports whether GET path returns the entity.
func (t *TargetClients) Exists(ctx context.Context, target Target, path string, d models.NGEntityDetail) (bool, error) {
	_, found, err := t.Fetch(ctx, target, path, d)
	return found, err
}

// ErrorMessage extracts the "message" field of an NG error body. It falls
// back to the HTTP status when the body carries no message.
func ErrorMessage(status int, body []byte) string {
	var env ngEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		return env.Message
	}
	if status == 0 {
		return "no response from destination"
	}
	return fmt.Sprintf("destination returned HTTP %d", status)
}
