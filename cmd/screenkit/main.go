package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"screenkit/internal/admin"
	"screenkit/internal/auth"
	"screenkit/internal/config"
	"screenkit/internal/container"
	"screenkit/internal/render"
	"screenkit/internal/screen"
	"screenkit/internal/server"
	"screenkit/internal/store"
	"screenkit/internal/telemetry"
	"screenkit/internal/ui"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: screenkit <command> [flags]\n\n")
	fmt.Fprintf(os.Stderr, "Screenkit serves admin screens composed from layouts, filters and tables.\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve     start the HTTP server\n")
	fmt.Fprintf(os.Stderr, "  routes    list registered screens\n")
	fmt.Fprintf(os.Stderr, "  migrate   apply database migrations\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Styles.Error.Render("screenkit: "+err.Error()))
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "serve":
		err = runServe(cfg, args)
	case "routes":
		err = runRoutes(cfg, args)
	case "migrate":
		err = runMigrate(cfg, args)
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Styles.Error.Render(fmt.Sprintf("screenkit %s: %v", cmd, err)))
		os.Exit(1)
	}
}

func openDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("database dir: %w", err)
		}
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	if _, err := store.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// app is everything serve and routes share.
type app struct {
	db      *sql.DB
	runtime *screen.Runtime
	server  *server.Server
}

func build(cfg config.Config, tp *telemetry.Provider) (*app, error) {
	db, err := openDB(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	engine, err := render.NewEngine(cfg.Templates.Dir)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := engine.ParseFS(admin.Templates, "templates/*.html"); err != nil {
		db.Close()
		return nil, err
	}

	router := server.NewRouter(cfg.Server.BasePath)
	c := container.New()
	rt := screen.NewRuntime(engine, c,
		screen.WithURLBuilder(server.URLBuilder{Router: router}),
		screen.WithBasePath(cfg.Server.BasePath),
		screen.WithLocale(cfg.Locale),
		screen.WithTracer(tp.Tracer("screenkit/screen")),
	)
	if err := admin.Register(c, rt, db); err != nil {
		db.Close()
		return nil, err
	}

	users := store.NewUserRepo(db)
	lookup := func(ctx context.Context, email string) (auth.Principal, error) {
		u, err := users.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		return u.Principal(), nil
	}
	srv := server.New(router, rt, lookup, server.Config{
		Addr:        cfg.Server.Addr,
		Header:      cfg.Auth.Header,
		DefaultUser: cfg.Auth.DefaultUser,
	})
	return &app{db: db, runtime: rt, server: srv}, nil
}

func runServe(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.Server.Addr, "listen address")
	verbose := fs.Bool("verbose", false, "enable detailed logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.Server.Addr = *addr

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.New(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Printf("screenkit: telemetry shutdown: %v", err)
		}
	}()

	a, err := build(cfg, tp)
	if err != nil {
		return err
	}
	defer a.db.Close()

	if *verbose {
		log.Printf("config: addr=%s base=%s db=%s templates=%q locale=%s",
			cfg.Server.Addr, cfg.Server.BasePath, cfg.Database.Path, cfg.Templates.Dir, cfg.Locale)
	}
	if err := a.server.Start(); err != nil {
		return err
	}
	fmt.Println(ui.Styles.Title.Render("screenkit listening on " + a.server.Addr() + cfg.Server.BasePath))

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.server.Stop(shutdownCtx)
}

func runRoutes(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("routes", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := build(cfg, nil)
	if err != nil {
		return err
	}
	defer a.db.Close()

	var routes []ui.Route
	for _, info := range a.runtime.Screens() {
		routes = append(routes, ui.Route{Info: info, URL: a.runtime.URL(info.Slug)})
	}
	fmt.Println(ui.RenderRoutes(routes))
	return nil
}

func runMigrate(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dbPath := fs.String("db", cfg.Database.Path, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
			return fmt.Errorf("database dir: %w", err)
		}
	}
	db, err := store.Open(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	version, err := store.Migrate(db)
	if err != nil {
		return err
	}
	fmt.Println(ui.Styles.Title.Render(fmt.Sprintf("database at version %d", version)))
	return nil
}
