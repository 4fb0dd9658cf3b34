package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rflorenc/ng-migrator/internal/discovery"
	"github.com/rflorenc/ng-migrator/internal/entity"
	"github.com/rflorenc/ng-migrator/internal/migration"
	"github.com/rflorenc/ng-migrator/internal/models"
	"github.com/rflorenc/ng-migrator/internal/platform"
)

// discoverFlags selects the legacy entities a command starts from.
type discoverFlags struct {
	source string
	appID  string
	typ    string
	id     string
	seeds  []string
}

func (f *discoverFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.source, "source", "", "Name of the cg connection (default: first source)")
	fs.StringVar(&f.appID, "app", "", "Legacy application id")
	fs.StringVar(&f.typ, "type", "", "Root entity type (e.g. SERVICE, PIPELINE)")
	fs.StringVar(&f.id, "id", "", "Root entity id")
	fs.StringSliceVar(&f.seeds, "seed", nil, "Extra root as TYPE:ID, repeatable")
}

// parseSeeds turns the root and --seed values into discovery seeds.
func (f *discoverFlags) parseSeeds() ([]discovery.Seed, error) {
	var seeds []discovery.Seed
	if f.typ != "" || f.id != "" {
		if f.typ == "" || f.id == "" {
			return nil, fmt.Errorf("--type and --id must be given together")
		}
		seeds = append(seeds, discovery.Seed{AppID: f.appID, Type: models.EntityType(strings.ToUpper(f.typ)), ID: f.id})
	}
	for _, s := range f.seeds {
		typ, id, ok := strings.Cut(s, ":")
		if !ok || typ == "" || id == "" {
			return nil, fmt.Errorf("invalid seed %q, expected TYPE:ID", s)
		}
		seeds = append(seeds, discovery.Seed{AppID: f.appID, Type: models.EntityType(strings.ToUpper(typ)), ID: id})
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("a root (--type/--id) or at least one --seed is required")
	}
	return seeds, nil
}

// discover runs discovery and returns the result with the registry that
// produced it.
func (a *app) discover(ctx context.Context, cmd *cobra.Command, f *discoverFlags) (*models.DiscoveryResult, *entity.Registry, string, error) {
	seeds, err := f.parseSeeds()
	if err != nil {
		return nil, nil, "", err
	}
	src, err := a.connection(f.source, "source", "cg")
	if err != nil {
		return nil, nil, "", err
	}
	accountID := a.cfg.Migration.AccountID
	if accountID == "" {
		accountID = src.AccountID
	}
	if accountID == "" {
		return nil, nil, "", fmt.Errorf("no legacy account id: set --account or account_id on the connection")
	}

	registry := entity.NewDefaultRegistry(platform.NewSource(src))
	engine := discovery.NewEngine(registry, a.logger, a.metrics)
	progress := progressPrinter(cmd)

	var result *models.DiscoveryResult
	if len(seeds) == 1 {
		s := seeds[0]
		result, err = engine.Discover(ctx, accountID, s.AppID, s.EntityID(), progress)
	} else {
		result, err = engine.DiscoverMulti(ctx, accountID, seeds, progress)
	}
	if err != nil {
		return nil, nil, "", err
	}
	return result, registry, accountID, nil
}

func newDiscoverCmd(a *app) *cobra.Command {
	var (
		f      discoverFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Discover the dependency graph of legacy entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, _, accountID, err := a.discover(cmd.Context(), cmd, &f)
			if err != nil {
				return err
			}
			switch format {
			case "dot":
				return discovery.WriteDOT(cmd.OutOrStdout(), result)
			case "json":
				return printJSON(cmd.OutOrStdout(), discovery.Summarize(accountID, result))
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&format, "format", "json", "Output format (json, dot)")
	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	var (
		f           discoverFlags
		destination string
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Discover legacy entities and create them in NG",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			result, registry, accountID, err := a.discover(ctx, cmd, &f)
			if err != nil {
				return err
			}
			dst, err := a.connection(destination, "destination", "ng")
			if err != nil {
				return err
			}
			in := a.input(accountID)
			in.Root = result.Root

			scheduler := &migration.Scheduler{
				Registry: registry,
				Clients:  platform.NewTargetClients(dst, in),
				Mappings: a.mappings,
				Metrics:  a.metrics,
				Logger:   a.logger,
			}
			report, err := scheduler.Run(ctx, in, result, models.Mode(a.cfg.Migration.Mode), progressPrinter(cmd))
			if report != nil {
				if perr := printJSON(cmd.OutOrStdout(), report); perr != nil {
					a.logger.Warn("printing report", zap.Error(perr))
				}
			}
			if err != nil {
				return err
			}
			if len(report.Errors) > 0 {
				return fmt.Errorf("%d entities failed to migrate", len(report.Errors))
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&destination, "destination", "", "Name of the ng connection (default: first destination)")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		f           discoverFlags
		out         string
		destination string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Generate NG YAML for legacy entities into a zip file",
		Long: `Generate NG YAML for legacy entities into a zip file without pushing.
With --destination, entities that already exist in that NG account are
left out of the bundle.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			result, registry, accountID, err := a.discover(ctx, cmd, &f)
			if err != nil {
				return err
			}
			in := a.input(accountID)
			in.Root = result.Root

			scheduler := &migration.Scheduler{
				Registry: registry,
				Mappings: a.mappings,
				Metrics:  a.metrics,
				Logger:   a.logger,
			}
			if destination != "" {
				dst, err := a.connection(destination, "destination", "ng")
				if err != nil {
					return err
				}
				scheduler.Clients = platform.NewTargetClients(dst, in)
			}
			report, err := scheduler.Generate(ctx, in, result, progressPrinter(cmd))
			if err != nil {
				return err
			}

			file, err := os.Create(out)
			if err != nil {
				return err
			}
			n, err := migration.ExportBundle(file, report.Artifacts)
			if cerr := file.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d files to %s\n", n, out)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&out, "output", "o", "ng-migration.zip", "Zip file to write")
	cmd.Flags().StringVar(&destination, "destination", "", "Name of the ng connection used to leave out existing entities")
	return cmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
