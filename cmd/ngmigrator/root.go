package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rflorenc/ng-migrator/internal/config"
	"github.com/rflorenc/ng-migrator/internal/log"
	"github.com/rflorenc/ng-migrator/internal/mapping"
	"github.com/rflorenc/ng-migrator/internal/metrics"
	"github.com/rflorenc/ng-migrator/internal/models"
)

// app holds what every subcommand shares once flags and config are loaded.
type app struct {
	cfg         config.Config
	logger      *zap.Logger
	connections *models.ConnectionStore
	mappings    mapping.Store
	metrics     *metrics.Metrics
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "ngmigrator",
		Short:         "Migrate legacy CD configuration entities to NG",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	a.cfg.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newServeCmd(a),
		newDiscoverCmd(a),
		newMigrateCmd(a),
		newExportCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if err := a.cfg.Load(cmd.Flags()); err != nil {
		return err
	}
	logger, err := log.New(a.cfg.Log)
	if err != nil {
		return err
	}
	a.logger = logger

	if a.cfg.MappingFile != "" {
		store, err := mapping.OpenFileStore(a.cfg.MappingFile)
		if err != nil {
			return err
		}
		a.mappings = store
	} else {
		a.mappings = mapping.NewMemoryStore()
	}

	_, a.metrics = metrics.NewRegistry()

	a.connections = models.NewConnectionStore()
	for _, cc := range a.cfg.Connections {
		conn := cc.Connection()
		a.connections.Create(conn)
		a.logger.Info("loaded connection",
			zap.String("name", conn.Name),
			zap.String("type", conn.Type),
			zap.String("url", conn.BaseURL()))
	}
	return nil
}

// connection finds a configured connection by name, falling back to the
// first one with role when name is empty.
func (a *app) connection(name, role, typ string) (*models.Connection, error) {
	var conn *models.Connection
	if name == "" {
		conn = a.connections.FindByRole(role)
	} else {
		for _, c := range a.connections.List() {
			if c.Name == name {
				conn = c
				break
			}
		}
	}
	if conn == nil {
		if name == "" {
			return nil, fmt.Errorf("no %s connection configured", role)
		}
		return nil, fmt.Errorf("connection %q not found", name)
	}
	if conn.Type != typ {
		return nil, fmt.Errorf("connection %q must be of type %s", conn.Name, typ)
	}
	return conn, nil
}

// input returns the run input from config, scoped to accountID.
func (a *app) input(accountID string) *models.MigrationInput {
	in := a.cfg.Input()
	if in.AccountID == "" {
		in.AccountID = accountID
	}
	return &in
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ngmigrator %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

// progressPrinter writes progress lines to stderr.
func progressPrinter(cmd *cobra.Command) func(string) {
	return func(line string) {
		fmt.Fprintln(cmd.ErrOrStderr(), strings.TrimRight(line, "\n"))
	}
}
