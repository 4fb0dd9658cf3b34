package entity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	jujuerrors "github.com/juju/errors"
	"gopkg.in/yaml.v3"

	"github.com/rflorenc/ng-migrator/internal/models"
	"github.com/rflorenc/ng-migrator/internal/platform"
)

// Reference declares that a legacy field holds the id (or ids) of entities
// this type depends on.
type Reference struct {
	Field   string            // legacy field, dotted path
	Type    models.EntityType // type of the referenced entities
	NGField string            // payload field receiving the scoped NG identifier(s); empty = discovery only
	Many    bool              // NGField is a list
}

// FieldMap copies a legacy field into the NG payload.
type FieldMap struct {
	From string
	To   string
}

// TypeSpec describes one entity type for ResourcePlugin.
type TypeSpec struct {
	Type         models.EntityType
	LegacyPath   string // GET /api/{LegacyPath}/{id}; empty = never discovered
	NGPath       string // POST target and GET {NGPath}/{identifier}
	NGKind       string // root key of the payload
	Target       platform.Target
	DefaultScope models.Scope
	References   []Reference
	Fields       []FieldMap

	// NoArtifact types take part in discovery only.
	NoArtifact bool
	// FileStore types also emit one FILE_STORE folder per owning service.
	FileStore bool
	// MigrateWithRoot restricts migration of referenced entities to runs
	// rooted at one of these types. Empty means always migrate.
	MigrateWithRoot []models.EntityType
}

// Source is the legacy read API ResourcePlugin discovers through.
type Source interface {
	GetEntity(ctx context.Context, path, accountID, appID, id string) (models.Resource, error)
}

// ResourcePlugin is a table-driven Plugin for one TypeSpec.
type ResourcePlugin struct {
	spec   TypeSpec
	source Source
}

// NewResourcePlugin creates a plugin for spec reading from source.
func NewResourcePlugin(spec TypeSpec, source Source) *ResourcePlugin {
	return &ResourcePlugin{spec: spec, source: source}
}

// Spec returns the plugin's type description.
func (p *ResourcePlugin) Spec() TypeSpec {
	return p.spec
}

func (p *ResourcePlugin) Discover(ctx context.Context, accountID, appID, id string) (*models.DiscoveryNode, error) {
	if p.spec.LegacyPath == "" {
		return nil, jujuerrors.NotSupportedf("discovery of %s", p.spec.Type)
	}
	res, err := p.source.GetEntity(ctx, p.spec.LegacyPath, accountID, appID, id)
	if err != nil {
		return nil, jujuerrors.Annotatef(err, "discovering %s %s", p.spec.Type, id)
	}

	node := &models.EntityNode{
		EntityID: models.EntityID{Type: p.spec.Type, ID: id},
		AppID:    appID,
		Name:     res.Name(),
		Entity:   res,
	}
	if app := res.GetString("appId"); app != "" {
		node.AppID = app
	}
	if p.spec.Type == models.Application {
		node.AppID = id
	}
	if node.Name == "" {
		node.Name = id
	}

	var children []models.EntityID
	seen := make(map[models.EntityID]bool)
	for _, ref := range p.spec.References {
		for _, cid := range res.GetStrings(ref.Field) {
			child := models.EntityID{Type: ref.Type, ID: cid}
			if seen[child] {
				continue
			}
			seen[child] = true
			children = append(children, child)
		}
	}
	return &models.DiscoveryNode{Node: node, Children: children}, nil
}

func (p *ResourcePlugin) ExistingArtifact(ctx context.Context, mc *Context, id models.EntityID) (*models.Artifact, error) {
	if p.spec.NoArtifact || p.spec.NGPath == "" || mc.Clients == nil || mc.Mappings == nil {
		return nil, nil
	}
	detail, ok := mc.Mappings.Lookup(mc.AccountID, id)
	if !ok {
		return nil, nil
	}
	data, found, err := mc.Clients.Fetch(ctx, p.spec.Target, p.spec.NGPath+"/"+url.PathEscape(detail.Identifier), detail)
	if err != nil {
		return nil, fmt.Errorf("checking %s in NG: %w", detail.Identifier, err)
	}
	if !found {
		return nil, nil
	}
	return &models.Artifact{
		ForEntity: id,
		Type:      id.Type,
		Target:    detail,
		Filename:  p.filename(detail),
		Payload:   map[string]interface{}{p.spec.NGKind: map[string]interface{}(data)},
		Exists:    true,
		CGInfo:    mc.BasicInfo(id),
	}, nil
}

func (p *ResourcePlugin) Translate(mc *Context, id models.EntityID) (*Translation, error) {
	node := mc.Node(id)
	if node == nil {
		return nil, fmt.Errorf("%s was not discovered", id)
	}
	out := &Translation{}
	if p.spec.NoArtifact {
		return out, nil
	}

	name, target, err := ResolveTarget(mc, node, p.spec.DefaultScope)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"name":       name,
		"identifier": target.Identifier,
	}
	if target.OrgIdentifier != "" {
		body["orgIdentifier"] = target.OrgIdentifier
	}
	if target.ProjectIdentifier != "" {
		body["projectIdentifier"] = target.ProjectIdentifier
	}
	if desc := node.Entity.GetString("description"); desc != "" {
		body["description"] = TranslateExpressions(desc)
	}
	for _, f := range p.spec.Fields {
		if v, ok := node.Entity.Lookup(f.From); ok && v != nil {
			body[f.To] = TranslateValue(v)
		}
	}
	for _, ref := range p.spec.References {
		if ref.NGField == "" {
			continue
		}
		var refs []string
		for _, cid := range node.Entity.GetStrings(ref.Field) {
			refs = append(refs, ScopedRef(mc.Migrated, models.EntityID{Type: ref.Type, ID: cid}, RuntimeInput))
		}
		switch {
		case ref.Many:
			if refs == nil {
				refs = []string{}
			}
			body[ref.NGField] = refs
		case len(refs) > 0:
			body[ref.NGField] = refs[0]
		}
	}

	if p.spec.FileStore {
		folder := p.folderArtifact(mc, node, target)
		body["parentIdentifier"] = folder.Target.Identifier
		if !mc.IsMigrated(folder.ForEntity) {
			out.Artifacts = append(out.Artifacts, folder)
		}
	}

	out.Artifacts = append(out.Artifacts, &models.Artifact{
		ForEntity: id,
		Type:      id.Type,
		Target:    target,
		Filename:  p.filename(target),
		Payload:   map[string]interface{}{p.spec.NGKind: body},
		CGInfo:    node.BasicInfo(mc.AccountID),
	})
	return out, nil
}

// folderArtifact builds the file store folder that groups the files of one
// service.
func (p *ResourcePlugin) folderArtifact(mc *Context, node *models.EntityNode, file models.NGEntityDetail) *models.Artifact {
	folderID := node.Entity.GetString("serviceId")
	if folderID == "" {
		folderID = node.AppID
	}
	name := folderID
	if svc := mc.Node(models.EntityID{Type: models.Service, ID: folderID}); svc != nil {
		name = svc.Name
	}
	ident := GenerateIdentifier(name, mc.Input.IdentifierCaseFormat)
	if ident == "" {
		ident = GenerateIdentifier("folder "+folderID, mc.Input.IdentifierCaseFormat)
	}
	target := models.NGEntityDetail{
		EntityType:        models.FileStore,
		Identifier:        ident,
		OrgIdentifier:     file.OrgIdentifier,
		ProjectIdentifier: file.ProjectIdentifier,
	}
	return &models.Artifact{
		ForEntity: models.EntityID{Type: models.FileStore, ID: folderID},
		Type:      models.FileStore,
		Target:    target,
		Payload: map[string]interface{}{"file": map[string]interface{}{
			"name":             GenerateName(name),
			"identifier":       ident,
			"type":             "FOLDER",
			"parentIdentifier": "Root",
		}},
		CGInfo: models.CGBasicInfo{AccountID: mc.AccountID, AppID: node.AppID, ID: folderID, Type: models.FileStore, Name: name},
	}
}

func (p *ResourcePlugin) filename(d models.NGEntityDetail) string {
	return fmt.Sprintf("%s/%s.yaml", strings.ToLower(string(p.spec.Type)), d.Identifier)
}

func (p *ResourcePlugin) Push(ctx context.Context, mc *Context, a *models.Artifact) (*models.ImportResult, error) {
	if mc.Clients == nil {
		return nil, errors.New("no destination configured")
	}
	client := mc.Clients.For(p.spec.Target)
	params := mc.Clients.ScopeParams(a.Target)

	var (
		body   []byte
		status int
		err    error
	)
	switch p.spec.Target {
	case platform.TargetPipeline, platform.TargetTemplate:
		data, merr := yaml.Marshal(a.Payload)
		if merr != nil {
			return nil, fmt.Errorf("rendering %s: %w", a.ForEntity, merr)
		}
		body, status, err = client.PostYAML(ctx, p.spec.NGPath, params, data)
	default:
		body, status, err = client.Post(ctx, p.spec.NGPath, params, a.Payload)
	}
	return HandleResponse(a, status, body, err)
}

// HandleResponse turns an NG write response into an ImportResult. A 2xx is a
// success; any other status is a failure carrying the body's "message".
// Transport errors are returned as errors.
func HandleResponse(a *models.Artifact, status int, body []byte, err error) (*models.ImportResult, error) {
	if err == nil {
		return &models.ImportResult{Success: true}, nil
	}
	var httpErr *platform.HTTPError
	if !errors.As(err, &httpErr) {
		return nil, err
	}
	return &models.ImportResult{
		Success: false,
		Errors: []models.ImportError{{
			Entity:  a.CGInfo,
			Message: platform.ErrorMessage(status, body),
		}},
	}, nil
}

func (p *ResourcePlugin) CanMigrate(id, root models.EntityID, migrateReferenced bool) bool {
	if id == root || migrateReferenced || len(p.spec.MigrateWithRoot) == 0 {
		return true
	}
	for _, t := range p.spec.MigrateWithRoot {
		if root.Type == t {
			return true
		}
	}
	return false
}
