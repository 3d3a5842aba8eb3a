package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/boost-backend/pkg/config"
	"github.com/angelmondragon/boost-backend/pkg/db"
	"github.com/angelmondragon/boost-backend/pkg/logger"
	"github.com/angelmondragon/boost-backend/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
	noTx    bool
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", "", "migrations directory (empty uses the set embedded in the binary)")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.BoolVar(&opts.noTx, "no-tx", false, "mark a created migration as NO TRANSACTION")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fail(context.Background(), logg, "load config", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
		"dir": opts.dir,
	})

	switch opts.cmd {
	case "create":
		runCreate(ctx, logg, opts)
		return
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			fail(ctx, logg, "validate migrations", err)
		}
		logg.Info(ctx, "migrations valid")
		return
	}

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		fail(ctx, logg, "connect database", err)
	}
	defer dbClient.Close()

	if cfg.FeatureFlags.UseSQLite {
		if opts.cmd != "up" {
			fail(ctx, logg, "sqlite", fmt.Errorf("only -cmd=up is supported for sqlite, got %q", opts.cmd))
		}
		if err := dbClient.AutoMigrate(ctx); err != nil {
			fail(ctx, logg, "sqlite auto-migrate", err)
		}
		logg.Info(ctx, "sqlite schema migrated")
		return
	}

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		fail(ctx, logg, "extract sql.DB", err)
	}
	if err := runDB(ctx, logg, sqlDB, opts); err != nil {
		fail(ctx, logg, "migrate "+opts.cmd, err)
	}
}

func runCreate(ctx context.Context, logg *logger.Logger, opts options) {
	if opts.name == "" {
		fail(ctx, logg, "create", fmt.Errorf("-name is required"))
	}
	dir := opts.dir
	if dir == "" {
		dir = migrate.DefaultDir
	}
	path, err := migrate.CreateSQLMigration(dir, opts.name, migrate.CreateOptions{NoTransaction: opts.noTx})
	if err != nil {
		fail(ctx, logg, "create migration", err)
	}
	logg.Info(logg.WithField(ctx, "path", path), "migration created")
}

func runDB(ctx context.Context, logg *logger.Logger, sqlDB *sql.DB, opts options) error {
	switch opts.cmd {
	case "up":
		applied, err := migrate.Up(ctx, sqlDB, opts.dir)
		if err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "applied", applied), "migrations applied")
	case "down":
		version, err := migrate.Down(ctx, sqlDB, opts.dir)
		if err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "rolled_back", version), "migration rolled back")
	case "status":
		statuses, err := migrate.StatusOf(ctx, sqlDB, opts.dir)
		if err != nil {
			return err
		}
		printStatus(statuses)
	case "version":
		if opts.version == "" {
			return fmt.Errorf("-version is required")
		}
		if err := migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version); err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "version", opts.version), "schema at target version")
	default:
		return fmt.Errorf("unknown -cmd value %q", opts.cmd)
	}
	return nil
}

func printStatus(statuses []migrate.Status) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, st := range statuses {
		state, at := "pending", "-"
		if st.Applied {
			state, at = "applied", st.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", st.Version, state, at, st.Path)
	}
	_ = w.Flush()
}

func fail(ctx context.Context, logg *logger.Logger, step string, err error) {
	logg.Error(ctx, "migrate failed: "+step, err)
	os.Exit(1)
}
