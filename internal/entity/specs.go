package entity

import (
	"github.com/rflorenc/ng-migrator/internal/models"
	"github.com/rflorenc/ng-migrator/internal/platform"
)

// DefaultSpecs describes every supported legacy type.
func DefaultSpecs() []TypeSpec {
	return []TypeSpec{
		{
			Type:       models.Application,
			LegacyPath: "apps",
			NoArtifact: true,
			References: []Reference{
				{Field: "serviceIds", Type: models.Service},
				{Field: "environmentIds", Type: models.Environment},
				{Field: "workflowIds", Type: models.Workflow},
				{Field: "pipelineIds", Type: models.Pipeline},
				{Field: "triggerIds", Type: models.Trigger},
			},
		},
		{
			Type:         models.SecretManagerTemplate,
			LegacyPath:   "secret-manager-templates",
			NGPath:       "/templates",
			NGKind:       "template",
			Target:       platform.TargetTemplate,
			DefaultScope: models.ScopeAccount,
			Fields: []FieldMap{
				{From: "type", To: "type"},
				{From: "script", To: "spec"},
			},
		},
		{
			Type:         models.SecretManager,
			LegacyPath:   "secret-managers",
			NGPath:       "/connectors",
			NGKind:       "connector",
			Target:       platform.TargetCore,
			DefaultScope: models.ScopeAccount,
			References: []Reference{
				{Field: "templateId", Type: models.SecretManagerTemplate, NGField: "templateRef"},
				{Field: "parentSecretManagerId", Type: models.SecretManager, NGField: "secretManagerRef"},
			},
			Fields: []FieldMap{
				{From: "encryptionType", To: "type"},
				{From: "delegateSelectors", To: "delegateSelectors"},
			},
		},
		{
			Type:         models.Secret,
			LegacyPath:   "secrets",
			NGPath:       "/v2/secrets",
			NGKind:       "secret",
			Target:       platform.TargetCore,
			DefaultScope: models.ScopeProject,
			References: []Reference{
				{Field: "kmsId", Type: models.SecretManager, NGField: "secretManagerIdentifier"},
			},
			Fields: []FieldMap{
				{From: "type", To: "type"},
				{From: "path", To: "reference"},
			},
		},
		{
			Type:         models.Connector,
			LegacyPath:   "settings",
			NGPath:       "/connectors",
			NGKind:       "connector",
			Target:       platform.TargetCore,
			DefaultScope: models.ScopeProject,
			References: []Reference{
				{Field: "secretIds", Type: models.Secret, NGField: "secretRefs", Many: true},
			},
			Fields: []FieldMap{
				{From: "value.type", To: "type"},
				{From: "value.url", To: "url"},
				{From: "value.username", To: "username"},
				{From: "delegateSelectors", To: "delegateSelectors"},
			},
		},
		{
			Type:         models.Environment,
			LegacyPath:   "environments",
			NGPath:       "/environmentsV2",
			NGKind:       "environment",
			Target:       platform.TargetCore,
			DefaultScope: models.ScopeProject,
			Fields: []FieldMap{
				{From: "environmentType", To: "type"},
			},
		},
		{
			Type:         models.Infra,
			LegacyPath:   "infrastructure-definitions",
			NGPath:       "/infrastructures",
			NGKind:       "infrastructureDefinition",
			Target:       platform.TargetCore,
			DefaultScope: models.ScopeProject,
			References: []Reference{
				{Field: "envId", Type: models.Environment, NGField: "environmentRef"},
				{Field: "cloudProviderId", Type: models.Connector, NGField: "connectorRef"},
			},
			Fields: []FieldMap{
				{From: "deploymentType", To: "deploymentType"},
				{From: "infrastructure.namespace", To: "namespace"},
				{From: "infrastructure.releaseName", To: "releaseName"},
			},
		},
		{
			Type:         models.Service,
			LegacyPath:   "services",
			NGPath:       "/servicesV2",
			NGKind:       "service",
			Target:       platform.TargetCore,
			DefaultScope: models.ScopeProject,
			References: []Reference{
				{Field: "manifestIds", Type: models.Manifest},
				{Field: "configFileIds", Type: models.ConfigFile},
				{Field: "serviceVariableIds", Type: models.ServiceVariable},
				{Field: "artifactConnectorIds", Type: models.Connector, NGField: "connectorRefs", Many: true},
			},
			Fields: []FieldMap{
				{From: "deploymentType", To: "deploymentType"},
			},
		},
		{
			Type:            models.Manifest,
			LegacyPath:      "manifests",
			NGPath:          "/file-store",
			NGKind:          "file",
			Target:          platform.TargetCore,
			DefaultScope:    models.ScopeProject,
			FileStore:       true,
			MigrateWithRoot: []models.EntityType{models.Service},
			References: []Reference{
				{Field: "gitConnectorId", Type: models.Connector, NGField: "connectorRef"},
			},
			Fields: []FieldMap{
				{From: "fileName", To: "fileName"},
				{From: "fileContent", To: "content"},
			},
		},
		{
			Type:            models.ConfigFile,
			LegacyPath:      "config-files",
			NGPath:          "/file-store",
			NGKind:          "file",
			Target:          platform.TargetCore,
			DefaultScope:    models.ScopeProject,
			FileStore:       true,
			MigrateWithRoot: []models.EntityType{models.Service},
			References: []Reference{
				{Field: "encryptedFileId", Type: models.Secret, NGField: "secretRef"},
			},
			Fields: []FieldMap{
				{From: "relativeFilePath", To: "fileName"},
				{From: "fileContent", To: "content"},
			},
		},
		{
			Type:       models.ServiceVariable,
			LegacyPath: "service-variables",
			NoArtifact: true,
			References: []Reference{
				{Field: "encryptedValue", Type: models.Secret},
			},
		},
		{
			Type:         models.Template,
			LegacyPath:   "templates",
			NGPath:       "/templates",
			NGKind:       "template",
			Target:       platform.TargetTemplate,
			DefaultScope: models.ScopeProject,
			Fields: []FieldMap{
				{From: "type", To: "type"},
				{From: "templateObject", To: "spec"},
			},
		},
		{
			Type:         models.Workflow,
			LegacyPath:   "workflows",
			NGPath:       "/templates",
			NGKind:       "template",
			Target:       platform.TargetTemplate,
			DefaultScope: models.ScopeProject,
			References: []Reference{
				{Field: "serviceIds", Type: models.Service, NGField: "serviceRefs", Many: true},
				{Field: "envId", Type: models.Environment, NGField: "environmentRef"},
				{Field: "infraDefinitionIds", Type: models.Infra, NGField: "infrastructureRefs", Many: true},
				{Field: "linkedTemplateIds", Type: models.Template, NGField: "templateRefs", Many: true},
			},
			Fields: []FieldMap{
				{From: "workflowType", To: "type"},
				{From: "orchestrationWorkflow", To: "spec"},
			},
		},
		{
			Type:         models.Pipeline,
			LegacyPath:   "pipelines",
			NGPath:       "/pipelines/v2",
			NGKind:       "pipeline",
			Target:       platform.TargetPipeline,
			DefaultScope: models.ScopeProject,
			References: []Reference{
				{Field: "workflowIds", Type: models.Workflow, NGField: "stageTemplateRefs", Many: true},
			},
			Fields: []FieldMap{
				{From: "pipelineStages", To: "stages"},
			},
		},
		{
			Type:         models.Trigger,
			LegacyPath:   "triggers",
			NGPath:       "/triggers",
			NGKind:       "trigger",
			Target:       platform.TargetPipeline,
			DefaultScope: models.ScopeProject,
			References: []Reference{
				{Field: "pipelineId", Type: models.Pipeline, NGField: "pipelineIdentifier"},
				{Field: "workflowId", Type: models.Workflow, NGField: "templateRef"},
			},
			Fields: []FieldMap{
				{From: "condition", To: "source"},
			},
		},
		{
			Type:         models.UserGroup,
			LegacyPath:   "user-groups",
			NGPath:       "/user-groups",
			NGKind:       "userGroup",
			Target:       platform.TargetCore,
			DefaultScope: models.ScopeAccount,
			Fields: []FieldMap{
				{From: "memberIds", To: "users"},
			},
		},
		{
			Type:         models.FileStore,
			NGPath:       "/file-store",
			NGKind:       "file",
			Target:       platform.TargetCore,
			DefaultScope: models.ScopeProject,
		},
	}
}

// NewDefaultRegistry registers a ResourcePlugin per DefaultSpecs entry plus the
// head plugin.
func NewDefaultRegistry(source Source) *Registry {
	r := NewRegistry()
	for _, spec := range DefaultSpecs() {
		r.Register(spec.Type, NewResourcePlugin(spec, source))
	}
	r.Register(models.DummyHead, HeadPlugin{})
	return r
}
