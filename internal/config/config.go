package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/rflorenc/ng-migrator/internal/log"
	"github.com/rflorenc/ng-migrator/internal/models"
)

// TokenEnv is read when no destination token is given on the command line.
const TokenEnv = "NG_MIGRATOR_TOKEN"

// ConnectionConfig represents a pre-configured connection in the config file.
type ConnectionConfig struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"` // "cg" or "ng"
	Role      string `yaml:"role"` // "source" or "destination"
	Scheme    string `yaml:"scheme"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	AccountID string `yaml:"account_id"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	APIKey    string `yaml:"api_key"`
	Insecure  bool   `yaml:"insecure"`
}

// Connection converts the entry into a models.Connection with defaults applied.
func (cc ConnectionConfig) Connection() *models.Connection {
	conn := &models.Connection{
		Name:      cc.Name,
		Type:      cc.Type,
		Role:      cc.Role,
		Scheme:    cc.Scheme,
		Host:      cc.Host,
		Port:      cc.Port,
		AccountID: cc.AccountID,
		Username:  cc.Username,
		Password:  cc.Password,
		APIKey:    cc.APIKey,
		Insecure:  cc.Insecure,
	}
	conn.ApplyDefaults()
	return conn
}

// MigrationDefaults seeds the MigrationInput of every run.
type MigrationDefaults struct {
	Mode                      string                             `yaml:"mode"`
	AccountID                 string                             `yaml:"account_id"`
	DestinationAccountID      string                             `yaml:"destination_account_id"`
	OrgIdentifier             string                             `yaml:"org_identifier"`
	ProjectIdentifier         string                             `yaml:"project_identifier"`
	IdentifierCaseFormat      string                             `yaml:"identifier_case_format"`
	MigrateReferencedEntities bool                               `yaml:"migrate_referenced_entities"`
	DefaultScopes             map[models.EntityType]models.Scope `yaml:"default_scopes"`
}

// Config holds all configuration (CLI flags + config file).
type Config struct {
	Listen      string             `yaml:"listen"`
	Log         log.Config         `yaml:"log"`
	Connections []ConnectionConfig `yaml:"connections"`
	Migration   MigrationDefaults  `yaml:"migration"`
	MappingFile string             `yaml:"mapping_file"`

	// DestinationToken is never read from the file.
	DestinationToken string `yaml:"-"`

	// internal: path to config file (from CLI flag)
	configFile string
}

// RegisterFlags binds the persistent CLI flags to c.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.configFile, "config", "", "Path to config file (YAML)")
	fs.StringVar(&c.Listen, "listen", "", "HTTP listen address")
	fs.StringVar(&c.Log.Level, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&c.Log.Format, "log-format", "", "Log format (console, json)")
	fs.StringVar(&c.MappingFile, "mapping-file", "", "YAML file recording CG to NG mappings")
	fs.StringVar(&c.Migration.Mode, "mode", "", "Push mode (sequential, two-phase)")
	fs.StringVar(&c.Migration.AccountID, "account", "", "Legacy account id")
	fs.StringVar(&c.Migration.DestinationAccountID, "destination-account", "", "NG account identifier")
	fs.StringVar(&c.Migration.OrgIdentifier, "org", "", "NG organization identifier")
	fs.StringVar(&c.Migration.ProjectIdentifier, "project", "", "NG project identifier")
	fs.StringVar(&c.Migration.IdentifierCaseFormat, "identifier-case", "", "Identifier case format")
	fs.BoolVar(&c.Migration.MigrateReferencedEntities, "migrate-referenced", false, "Also migrate referenced entities")
	fs.StringVar(&c.DestinationToken, "destination-token", "", "NG API token (default $"+TokenEnv+")")
}

// Load overlays config file values onto unset flags, then applies defaults
// and validates the result. CLI flags take precedence over config file values.
func (c *Config) Load(fs *pflag.FlagSet) error {
	if c.configFile != "" {
		if err := c.loadFile(c.configFile, fs); err != nil {
			return err
		}
	}
	if c.DestinationToken == "" {
		c.DestinationToken = os.Getenv(TokenEnv)
	}
	c.applyDefaults()
	return c.Validate()
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Migration.Mode == "" {
		c.Migration.Mode = string(models.ModeSequential)
	}
	if c.Migration.IdentifierCaseFormat == "" {
		c.Migration.IdentifierCaseFormat = string(models.CamelCase)
	}
}

// Validate rejects unknown modes, case formats and log levels.
func (c *Config) Validate() error {
	switch models.Mode(c.Migration.Mode) {
	case models.ModeSequential, models.ModeTwoPhase:
	default:
		return fmt.Errorf("unknown mode %q", c.Migration.Mode)
	}
	switch models.CaseFormat(c.Migration.IdentifierCaseFormat) {
	case models.CamelCase, models.LowerCase, models.SnakeCase, models.HarnessUIFormat:
	default:
		return fmt.Errorf("unknown identifier case format %q", c.Migration.IdentifierCaseFormat)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	for i, cc := range c.Connections {
		if cc.Host == "" {
			return fmt.Errorf("connection %d (%s): host is required", i, cc.Name)
		}
		if cc.Type != "" && cc.Type != "cg" && cc.Type != "ng" {
			return fmt.Errorf("connection %d (%s): unknown type %q", i, cc.Name, cc.Type)
		}
	}
	return nil
}

// Input builds the run input from the migration defaults.
func (c *Config) Input() models.MigrationInput {
	m := c.Migration
	return models.MigrationInput{
		AccountID:                 m.AccountID,
		DestinationAccountID:      m.DestinationAccountID,
		DestinationAuthToken:      c.DestinationToken,
		OrgIdentifier:             m.OrgIdentifier,
		ProjectIdentifier:         m.ProjectIdentifier,
		MigrateReferencedEntities: m.MigrateReferencedEntities,
		IdentifierCaseFormat:      models.CaseFormat(m.IdentifierCaseFormat),
		DefaultScopes:             m.DefaultScopes,
	}
}

// loadFile reads a YAML config file. Values from the file are only applied
// if the corresponding CLI flag was not explicitly set.
func (c *Config) loadFile(path string, fs *pflag.FlagSet) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	set := func(flag string, dst *string, v string) {
		if v != "" && (fs == nil || !fs.Changed(flag)) {
			*dst = v
		}
	}
	set("listen", &c.Listen, file.Listen)
	set("log-level", &c.Log.Level, file.Log.Level)
	set("log-format", &c.Log.Format, file.Log.Format)
	set("mapping-file", &c.MappingFile, file.MappingFile)
	set("mode", &c.Migration.Mode, file.Migration.Mode)
	set("account", &c.Migration.AccountID, file.Migration.AccountID)
	set("destination-account", &c.Migration.DestinationAccountID, file.Migration.DestinationAccountID)
	set("org", &c.Migration.OrgIdentifier, file.Migration.OrgIdentifier)
	set("project", &c.Migration.ProjectIdentifier, file.Migration.ProjectIdentifier)
	set("identifier-case", &c.Migration.IdentifierCaseFormat, file.Migration.IdentifierCaseFormat)
	if fs == nil || !fs.Changed("migrate-referenced") {
		c.Migration.MigrateReferencedEntities = file.Migration.MigrateReferencedEntities
	}

	// Connections and scopes always come from config file
	c.Connections = file.Connections
	c.Migration.DefaultScopes = file.Migration.DefaultScopes

	return nil
}
