package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thiagofreitashalogen/halokm-sub000/config"
	"github.com/Thiagofreitashalogen/halokm-sub000/database"
	authCtrlImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/auth/controllerImp"
	docCtrlImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/document/controllerImp"
	entryCtrlImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/entry/controllerImp"
	healthCtrlImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/health/controllerImp"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/inbox"
	linkCtrlImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/link/controllerImp"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/logger"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/middleware"
	searchCtrlImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/search/controllerImp"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/sheet"
	sheetCtrlImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/sheet/controllerImp"
	studioCtrlImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/studio/controllerImp"
	"github.com/Thiagofreitashalogen/halokm-sub000/router"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads config and the logger shared by every command.
func setup() (config.AppConfig, *zap.Logger, error) {
	cfg := config.Load()
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return cfg, nil, err
	}
	if cfg.EnvFileErr != nil {
		log.Debug("no .env loaded", zap.Error(cfg.EnvFileErr))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, log, fmt.Errorf("config: %w", err)
	}
	log.Debug("config loaded", zap.Any("config", cfg.Redacted()))
	return cfg, log, nil
}

func withApp(fn func(ctx context.Context, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		a, err := newApp(ctx, cfg, log)
		if err != nil {
			log.Error("startup failed", zap.Error(err))
			return err
		}
		defer a.Close()
		return fn(ctx, a)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "halokm",
		Short:        "Knowledge base and offer studio",
		SilenceUsage: true,
		RunE:         withApp(serve),
	}
	root.AddCommand(
		&cobra.Command{Use: "serve", Short: "Run the HTTP server", RunE: withApp(serve)},
		migrateCmd(),
		&cobra.Command{Use: "reindex", Short: "Rebuild the search index", RunE: withApp(reindex)},
		exportCmd(),
		importCmd(),
	)
	return root
}

func serve(ctx context.Context, a *app) error {
	authCfg := middleware.AuthConfig{JWTSecret: a.cfg.AuthJWTSecret, AllowedDomain: a.cfg.AllowedEmailDomain}
	if authCfg.DevMode() {
		a.log.Warn("AUTH_JWT_SECRET unset, running in dev auth mode", zap.String("default_user", authCfg.DefaultDevUser()))
	}

	e := echo.New()
	e.HideBanner = true
	router.New(e, authCfg, a.log, router.Controllers{
		Auth:     authCtrlImp.NewAuthController(authCfg),
		Health:   healthCtrlImp.NewHealthCtrl(a.db, a.store, a.llm.Name(), a.embedderName()),
		Entry:    entryCtrlImp.New(a.entries),
		Link:     linkCtrlImp.New(a.links),
		Search:   searchCtrlImp.New(a.search),
		Document: docCtrlImp.New(a.docs),
		Sheet:    sheetCtrlImp.New(a.entries),
		Studio:   studioCtrlImp.New(a.studio),
	})

	errc := make(chan error, 2)
	if a.cfg.InboxDir != "" {
		w, err := inbox.New(inbox.Config{Dir: a.cfg.InboxDir, Patterns: a.cfg.InboxPatterns, ScanExisting: true}, a.docs, a.log)
		if err != nil {
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				errc <- fmt.Errorf("inbox: %w", err)
			}
		}()
	}
	go func() {
		a.log.Info("listening", zap.String("port", a.cfg.Port), zap.String("llm", a.llm.Name()))
		if err := e.Start(":" + a.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutting down")
	case runErr = <-errc:
		a.log.Error("server stopped", zap.Error(runErr))
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		a.log.Warn("shutdown", zap.Error(err))
	}
	return runErr
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			db, err := database.OpenSQLite(cfg.DBPath, log)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			log.Info("schema up to date", zap.String("db", cfg.DBPath))
			return nil
		},
	}
}

func reindex(ctx context.Context, a *app) error {
	start := time.Now()
	n, err := a.search.Reindex(ctx)
	if err != nil {
		return err
	}
	a.log.Info("reindexed", zap.Int("entries", n), zap.Duration("took", time.Since(start)))
	return nil
}

func exportCmd() *cobra.Command {
	var out string
	var categories []string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write entries to an XLSX workbook",
		RunE: withApp(func(ctx context.Context, a *app) error {
			entries, err := a.entries.All("")
			if err != nil {
				return err
			}
			f, err := sheet.Export(entries, categories)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := f.SaveAs(out); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			a.log.Info("exported", zap.Int("entries", len(entries)), zap.String("file", out))
			return nil
		}),
	}
	cmd.Flags().StringVar(&out, "out", "entries.xlsx", "output workbook")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "categories to export (default all)")
	return cmd
}

func importCmd() *cobra.Command {
	var file, category, user string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create entries from a CSV or XLSX file",
		RunE: withApp(func(ctx context.Context, a *app) error {
			fh, err := os.Open(file)
			if err != nil {
				return err
			}
			defer fh.Close()
			res, err := sheet.Import(filepath.Base(file), fh, category)
			if err != nil {
				return err
			}
			n, errs := sheet.Load(ctx, a.entries, res.Entries, user)
			for _, err := range errs {
				a.log.Warn("row not imported", zap.Error(err))
			}
			a.log.Info("imported", zap.Int("created", n), zap.Int("skipped", res.Skipped), zap.Int("failed", len(errs)))
			if len(errs) > 0 {
				return fmt.Errorf("%d rows failed", len(errs))
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&file, "file", "", "CSV or XLSX file")
	cmd.Flags().StringVar(&category, "category", "", "category for every row (else read from a Category column)")
	cmd.Flags().StringVar(&user, "user", "import", "recorded as the creator")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
