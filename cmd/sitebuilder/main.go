package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/sitebuilder/internal/builder"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/events"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/version"
	"git.home.luguber.info/inful/sitebuilder/internal/watch"
)

var CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitebuilder.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `help:"Print version and exit"`

	Build struct {
	} `cmd:"" help:"Build the site once"`

	Init struct {
		Force bool `help:"Overwrite existing files"`
	} `cmd:"" help:"Scaffold a new site in the current directory"`

	Watch struct {
		Every       time.Duration `help:"Also rebuild on a fixed interval (e.g. 5m); 0 disables" default:"0"`
		MetricsAddr string        `help:"Serve Prometheus metrics on this address (e.g. :9090)"`
	} `cmd:"" help:"Rebuild on content or template changes"`

	History struct {
		Limit int `help:"Number of builds to show" default:"20"`
	} `cmd:"" help:"Show recent build history"`
}

func main() {
	// A .env file in the working directory is optional.
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI, kong.Vars{"version": version.Version})

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	var err error
	switch ctx.Command() {
	case "build":
		err = runBuild()
	case "init":
		err = runInit(CLI.Init.Force)
	case "watch":
		err = runWatch()
	case "history":
		err = runHistory(CLI.History.Limit)
	}
	if err != nil {
		slog.Error("Command failed", logfields.Error(err))
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return config.Config{}, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// newBuilder wires the optional event publisher and history store from
// configuration. Both are best effort: an unreachable NATS server degrades
// to a local-only build.
func newBuilder(cfg config.Config) (*builder.Builder, func(), error) {
	var opts []builder.Option
	cleanup := func() {}

	if cfg.Events.URL != "" {
		pub, err := events.Connect(cfg.Events.URL, cfg.Events.Subject)
		if err != nil {
			slog.Warn("Event publishing disabled", logfields.URL(cfg.Events.URL), logfields.Error(err))
		} else {
			opts = append(opts, builder.WithPublisher(pub))
			cleanup = pub.Close
		}
	}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			slog.Warn("Build history disabled", logfields.Path(cfg.History.Path), logfields.Error(err))
		} else {
			opts = append(opts, builder.WithHistory(store))
			prev := cleanup
			cleanup = func() {
				prev()
				if err := store.Close(); err != nil {
					slog.Warn("Failed to close history store", logfields.Error(err))
				}
			}
		}
	}

	b, err := builder.New(cfg, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return b, cleanup, nil
}

func runBuild() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	b, cleanup, err := newBuilder(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := b.Build(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Built %d pages in %s (%s)\n", result.Pages, result.Duration.Round(time.Millisecond), result.BuildID)
	return nil
}

func runWatch() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	b, cleanup, err := newBuilder(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsAddr := CLI.Watch.MetricsAddr
	if metricsAddr == "" {
		metricsAddr = cfg.Metrics.Addr
	}
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			slog.Info("Serving metrics", logfields.URL(metricsAddr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", logfields.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	w, err := watch.New(
		[]string{cfg.ContentDir, cfg.TemplatesDir},
		func(ctx context.Context) error {
			_, err := b.Build(ctx)
			return err
		},
		watch.WithInterval(CLI.Watch.Every),
	)
	if err != nil {
		return err
	}

	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	slog.Info("Watch stopped")
	return nil
}

func runHistory(limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open build history: %w", err)
	}
	defer store.Close()

	records, err := store.Recent(limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No builds recorded yet.")
		return nil
	}
	for _, r := range records {
		fmt.Printf("%s  %-9s  %4d pages  %6dms  %s\n",
			r.StartedAt.Format(time.RFC3339), r.Status, r.Pages, r.DurationMS, r.BuildID)
	}
	return nil
}

const starterConfig = `site:
  title: My Site
  description: A site built from Markdown.
  # url: https://example.com

content_dir: content
output_dir: dist
templates_dir: templates
`

const starterIndex = `---
Title: Home
---

# Welcome

Edit ` + "`content/index.md`" + ` to change this page.

:::children
:::
`

const starterTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{title}}{{#if site-title}} | {{site-title}}{{/if site-title}}</title>
{{#if description}}<meta name="description" content="{{description}}">{{/if description}}
</head>
<body>
<nav>{{navigation}}</nav>
{{breadcrumbs}}
<main>{{content}}</main>
<footer>{{label-cloud}}</footer>
</body>
</html>
`

func runInit(force bool) error {
	files := []struct {
		path    string
		content string
	}{
		{CLI.Config, starterConfig},
		{filepath.Join("content", "index.md"), starterIndex},
		{filepath.Join("templates", "default.html"), starterTemplate},
	}
	for _, f := range files {
		path, content := f.path, f.content
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("create directory for %s: %w", path, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		slog.Info("Created", logfields.Path(path))
	}
	fmt.Println("Site scaffolded. Run `sitebuilder build` to generate it.")
	return nil
}
