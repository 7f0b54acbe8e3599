package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/SusheelSathyaraj/ClicomImport/config"
	"github.com/SusheelSathyaraj/ClicomImport/database"
	"github.com/SusheelSathyaraj/ClicomImport/logger"
	"github.com/SusheelSathyaraj/ClicomImport/migration"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// command line options, they override the config file
type options struct {
	ConfigPath string
	EnvFile    string
	Sort       bool
	DryRun     bool
	LogLevel   string
	Pretty     bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "clicom-import",
		Short: "Copy the CLICOM tables from MySQL into MongoDB",
		Long: `clicom-import reads CLIENT, PRODUIT, COMMANDE and DETAIL from the source database
and writes the CLIENT, PRODUIT and COMMANDE collections of the CLICOM_MONGO database,
with the DETAIL rows of each order nested in its DETAILS array.

Existing documents are left untouched: running it twice inserts everything twice.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return run(c.Context(), out, opts, c.Flags().Changed)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to an optional YAML config file")
	cmd.Flags().StringVar(&opts.EnvFile, "env-file", ".env", "Path to a .env file loaded before reading the environment")
	cmd.Flags().BoolVar(&opts.Sort, "sort", false, "Read every table ordered by its key for deterministic output")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Read and transform without writing to the target")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", true, "Human readable log lines instead of JSON")

	return cmd
}

// loads settings, runs the import and reports the outcome
func run(ctx context.Context, out io.Writer, opts *options, changed func(string) bool) error {
	log := logger.New(out, opts.LogLevel, opts.Pretty)

	if err := loadEnvFile(opts.EnvFile); err != nil {
		log.Error().Err(err).Msg("failed to load env file")
		return err
	}

	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		return err
	}
	if changed("sort") {
		cfg.Import.Sort = opts.Sort
	}
	if changed("dry-run") {
		cfg.Import.DryRun = opts.DryRun
	}

	source, err := newSourceClient(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to create source client")
		return err
	}
	target := database.NewMongoDBClientFromConfig(cfg)

	log.Info().
		Str("source", fmt.Sprintf("%s://%s:%d/%s", cfg.Source.Driver, cfg.Source.Host, cfg.Source.Port, cfg.Source.DBName)).
		Str("target_db", config.TargetDatabase).
		Msg("configuration loaded")

	importer := migration.NewImporter(cfg.Import, source, target, log)
	if _, err := importer.Run(ctx); err != nil {
		logFailure(log, err)
		return err
	}
	return nil
}

// a missing .env file is fine, the environment is used as is
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func newSourceClient(cfg *config.Config) (database.SourceDatabase, error) {
	switch strings.ToLower(cfg.Source.Driver) {
	case config.DriverMySQL:
		return database.NewMySQLClientFromConfig(cfg), nil
	case config.DriverPostgreSQL:
		return database.NewPostgreSQLClientFromConfig(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported source database type %s", cfg.Source.Driver)
	}
}

func logFailure(log zerolog.Logger, err error) {
	if stepErr, ok := migration.AsStepError(err); ok {
		log.Error().
			Str("step", stepErr.Step).
			Str("kind", string(stepErr.Kind)).
			Err(stepErr.Err).
			Msg("import failed")
		return
	}
	log.Error().Err(err).Msg("import failed")
}

func main() {
	if err := newRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
