package models

// Scope is the NG level an artifact is created at.
type Scope string

const (
	ScopeAccount Scope = "ACCOUNT"
	ScopeOrg     Scope = "ORG"
	ScopeProject Scope = "PROJECT"
)

// CaseFormat selects how NG identifiers are generated from names.
type CaseFormat string

const (
	CamelCase       CaseFormat = "CAMEL_CASE"
	LowerCase       CaseFormat = "LOWER_CASE"
	SnakeCase       CaseFormat = "SNAKE_CASE"
	HarnessUIFormat CaseFormat = "HARNESS_UI_FORMAT"
)

// Mode selects when generated artifacts are pushed.
type Mode string

const (
	// ModeSequential pushes each artifact right after it is generated.
	ModeSequential Mode = "sequential"
	// ModeTwoPhase generates everything first and pushes in a second pass.
	ModeTwoPhase Mode = "two-phase"
)

// Override replaces the generated name, identifier or scope of one entity.
type Override struct {
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Scope      Scope  `json:"scope,omitempty" yaml:"scope,omitempty"`
}

// MigrationInput is the run-scoped configuration threaded through every
// plugin call.
type MigrationInput struct {
	AccountID                 string                `json:"account_id" yaml:"account_id"`
	DestinationAccountID      string                `json:"destination_account_id" yaml:"destination_account_id"`
	DestinationAuthToken      string                `json:"-" yaml:"-"`
	OrgIdentifier             string                `json:"org_identifier" yaml:"org_identifier"`
	ProjectIdentifier         string                `json:"project_identifier" yaml:"project_identifier"`
	MigrateReferencedEntities bool                  `json:"migrate_referenced_entities" yaml:"migrate_referenced_entities"`
	IdentifierCaseFormat      CaseFormat            `json:"identifier_case_format,omitempty" yaml:"identifier_case_format,omitempty"`
	DefaultScopes             map[EntityType]Scope  `json:"default_scopes,omitempty" yaml:"default_scopes,omitempty"`
	Overrides                 map[EntityID]Override `json:"overrides,omitempty" yaml:"overrides,omitempty"`
	Root                      EntityID              `json:"root" yaml:"root"`
}

// CGBasicInfo summarizes a legacy entity for reports and mappings.
type CGBasicInfo struct {
	AccountID string     `json:"account_id" yaml:"account_id"`
	AppID     string     `json:"app_id,omitempty" yaml:"app_id,omitempty"`
	ID        string     `json:"id" yaml:"id"`
	Type      EntityType `json:"type" yaml:"type"`
	Name      string     `json:"name" yaml:"name"`
}

// NGEntityDetail is the identity of an artifact on the NG side.
type NGEntityDetail struct {
	EntityType        EntityType `json:"entity_type" yaml:"entity_type"`
	Identifier        string     `json:"identifier" yaml:"identifier"`
	OrgIdentifier     string     `json:"org_identifier,omitempty" yaml:"org_identifier,omitempty"`
	ProjectIdentifier string     `json:"project_identifier,omitempty" yaml:"project_identifier,omitempty"`
}

// Scope derives the NG scope from which identifiers are set.
func (d NGEntityDetail) Scope() Scope {
	switch {
	case d.ProjectIdentifier != "":
		return ScopeProject
	case d.OrgIdentifier != "":
		return ScopeOrg
	default:
		return ScopeAccount
	}
}

// ScopedIdentifier is how other NG entities reference this one.
func (d NGEntityDetail) ScopedIdentifier() string {
	switch d.Scope() {
	case ScopeAccount:
		return "account." + d.Identifier
	case ScopeOrg:
		return "org." + d.Identifier
	default:
		return d.Identifier
	}
}

// Artifact is the NG representation generated for one legacy entity.
type Artifact struct {
	ForEntity EntityID       `json:"for_entity"`
	Type      EntityType     `json:"type"`
	Target    NGEntityDetail `json:"target"`
	Filename  string         `json:"filename,omitempty"`
	Payload   interface{}    `json:"payload"`
	Exists    bool           `json:"exists"`
	CGInfo    CGBasicInfo    `json:"cg_info"`
}

// ImportError is one entity-local failure.
type ImportError struct {
	Entity  CGBasicInfo `json:"entity"`
	Message string      `json:"message"`
}

// ImportResult is what a push returns.
type ImportResult struct {
	Success bool          `json:"success"`
	Errors  []ImportError `json:"errors,omitempty"`
}

// SkipDetail explains why an entity produced no artifact.
type SkipDetail struct {
	Entity EntityID `json:"entity"`
	Name   string   `json:"name,omitempty"`
	Reason string   `json:"reason"`
}

// SkippedExpression lists legacy expressions left untranslated in an artifact.
type SkippedExpression struct {
	EntityType        EntityType `json:"entity_type"`
	Identifier        string     `json:"identifier"`
	OrgIdentifier     string     `json:"org_identifier,omitempty"`
	ProjectIdentifier string     `json:"project_identifier,omitempty"`
	Expressions       []string   `json:"expressions"`
}

// EntityStats counts outcomes for one entity type.
type EntityStats struct {
	AlreadyMigrated int `json:"already_migrated"`
	Succeeded       int `json:"succeeded"`
	Failed          int `json:"failed"`
}

// MigratedDetail pairs a legacy entity with the NG entity it became.
type MigratedDetail struct {
	CG CGBasicInfo    `json:"cg"`
	NG NGEntityDetail `json:"ng"`
}

// ProcessedEntity records the batch an entity was handled in.
type ProcessedEntity struct {
	Entity EntityID `json:"entity"`
	Batch  int      `json:"batch"`
}

// SummaryReport is the output of a migration run.
type SummaryReport struct {
	Stats              map[EntityType]*EntityStats `json:"stats"`
	Errors             []ImportError               `json:"errors"`
	SkipDetails        []SkipDetail                `json:"skip_details"`
	SkippedExpressions []SkippedExpression         `json:"skipped_expressions"`
	AlreadyMigrated    []MigratedDetail            `json:"already_migrated"`
	Succeeded          []MigratedDetail            `json:"succeeded"`
	Artifacts          []*Artifact                 `json:"-"`
	Order              []ProcessedEntity           `json:"order"`
}

// NewSummaryReport returns a report with every collection initialized.
func NewSummaryReport() *SummaryReport {
	return &SummaryReport{
		Stats:              make(map[EntityType]*EntityStats),
		Errors:             []ImportError{},
		SkipDetails:        []SkipDetail{},
		SkippedExpressions: []SkippedExpression{},
		AlreadyMigrated:    []MigratedDetail{},
		Succeeded:          []MigratedDetail{},
		Order:              []ProcessedEntity{},
	}
}

// StatsFor returns the counters for t, creating them on first use.
func (r *SummaryReport) StatsFor(t EntityType) *EntityStats {
	s, ok := r.Stats[t]
	if !ok {
		s = &EntityStats{}
		r.Stats[t] = s
	}
	return s
}

// Clean reports whether the run had no errors and no skips.
func (r *SummaryReport) Clean() bool {
	return len(r.Errors) == 0 && len(r.SkipDetails) == 0
}

