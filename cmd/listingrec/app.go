package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"github.com/rushteam/listingrec/config"
	"github.com/rushteam/listingrec/core"
	"github.com/rushteam/listingrec/recommend"
	"github.com/rushteam/listingrec/server"
	"github.com/rushteam/listingrec/weights"
)

// appState 保存 Before 阶段加载的配置与日志
type appState struct {
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
}

func newApp() *cli.App {
	st := &appState{}
	return &cli.App{
		Name:  "listingrec",
		Usage: "Content-based listing search and similar-listing recommendations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Override logging level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "catalog-file",
				Usage: "Load the catalog from a JSON file instead of PostgreSQL",
			},
			&cli.StringFlag{
				Name:  "weights-file",
				Usage: "YAML/JSON similarity weights loaded at start-up",
			},
		},
		Before: st.setup,
		After:  st.teardown,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API",
				Action: st.serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides server.addr)",
					},
				},
			},
			{
				Name:      "recommend",
				Usage:     "Print listings similar to the given listing",
				ArgsUsage: "<listing-id>",
				Action:    st.recommendCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: core.DefaultMaxResults,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity score",
						Value: core.DefaultThreshold,
					},
					&cli.StringFlag{
						Name:  "filter",
						Usage: "CEL expression candidates must satisfy, e.g. 'listing.price <= 200.0'",
					},
					&cli.IntFlag{
						Name:  "per-neighbourhood",
						Usage: "Maximum results per neighbourhood (0 = unlimited)",
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Include per-feature score contributions",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search listings by name or neighbourhood",
				ArgsUsage: "<query>",
				Action:    st.searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: core.DefaultSearchLimit,
					},
				},
			},
			{
				Name:   "refresh",
				Usage:  "Load the catalog once and report the listing count",
				Action: st.refreshCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "stats",
						Usage: "Print per-feature coverage of the loaded catalog",
					},
				},
			},
			{
				Name:  "weights",
				Usage: "Inspect similarity weights",
				Subcommands: []*cli.Command{
					{
						Name:      "check",
						Usage:     "Validate a weights file",
						ArgsUsage: "<file>",
						Action:    st.weightsCheckCommand,
					},
					{
						Name:   "show",
						Usage:  "Print the weights the service would start with",
						Action: st.weightsShowCommand,
					},
				},
			},
		},
	}
}

func (st *appState) setup(c *cli.Context) error {
	cfg, err := config.Read(c.String("config"))
	if err != nil {
		return err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Logging.Level = strings.ToLower(lvl)
	}
	if f := c.String("catalog-file"); f != "" {
		cfg.Catalog.Source = config.SourceFile
		cfg.Catalog.File = f
	}
	if f := c.String("weights-file"); f != "" {
		cfg.Similarity.WeightsFile = f
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	st.cfg = cfg
	st.logger, st.closeLog = config.SetupLogger(cfg.Logging)
	slog.SetDefault(st.logger)
	return nil
}

func (st *appState) teardown(*cli.Context) error {
	if st.closeLog != nil {
		return st.closeLog()
	}
	return nil
}

func (st *appState) serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, cleanup, err := buildEngine(ctx, st.cfg, st.logger)
	if err != nil {
		return err
	}
	defer cleanup()

	// 预热目录；失败时首个请求会重试
	if n, err := engine.RefreshCatalog(ctx); err != nil {
		st.logger.Warn("catalog warm-up failed", slog.String("error", err.Error()))
	} else {
		st.logger.Info("catalog loaded", slog.Int("listings", n))
	}

	go st.reloadOnHangup(ctx, engine)

	sc := st.cfg.Server
	if addr := c.String("addr"); addr != "" {
		sc.Addr = addr
	}
	srv := server.New(engine, server.Config{
		Addr:            sc.Addr,
		ReadTimeout:     sc.ReadTimeout,
		WriteTimeout:    sc.WriteTimeout,
		RequestTimeout:  sc.RequestTimeout,
		ShutdownTimeout: sc.ShutdownTimeout,
	}, server.WithLogger(st.logger))
	return srv.Run(ctx)
}

// reloadOnHangup 在收到 SIGHUP 时执行 reload，直到 ctx 结束
func (st *appState) reloadOnHangup(ctx context.Context, engine *recommend.Engine) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			st.reload(engine)
		}
	}
}

// reload 让目录快照过期并重新读取权重文件；权重文件无效时保留当前权重。
func (st *appState) reload(engine *recommend.Engine) {
	engine.InvalidateCatalog()
	st.logger.Info("catalog invalidated")

	path := st.cfg.Similarity.WeightsFile
	if path == "" {
		return
	}
	w, err := weights.LoadFile(path)
	if err == nil {
		err = engine.ApplyWeights(w)
	}
	if err != nil {
		st.logger.Warn("reload weights failed", slog.String("file", path), slog.String("error", err.Error()))
	}
}

func (st *appState) recommendCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("recommend requires exactly one listing id", 2)
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid listing id %q", c.Args().First()), 2)
	}

	engine, cleanup, err := buildEngine(c.Context, st.cfg, st.logger)
	if err != nil {
		return err
	}
	defer cleanup()

	req := recommend.NewRequest(id)
	req.MaxResults = c.Int("limit")
	req.Threshold = c.Float64("threshold")
	req.Filter = c.String("filter")
	req.MaxPerNeighbourhood = c.Int("per-neighbourhood")
	req.Explain = c.Bool("explain")

	results, err := engine.Recommend(c.Context, req)
	if err != nil {
		return err
	}
	if results == nil {
		results = []recommend.Result{}
	}
	return printJSON(c, results)
}

func (st *appState) searchCommand(c *cli.Context) error {
	engine, cleanup, err := buildEngine(c.Context, st.cfg, st.logger)
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := engine.Search(c.Context, strings.Join(c.Args().Slice(), " "), c.Int("limit"))
	if err != nil {
		return err
	}
	return printJSON(c, results)
}

func (st *appState) refreshCommand(c *cli.Context) error {
	engine, cleanup, err := buildEngine(c.Context, st.cfg, st.logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if c.Bool("stats") {
		stats, err := engine.CatalogStats(c.Context)
		if err != nil {
			return err
		}
		return printJSON(c, stats)
	}
	n, err := engine.RefreshCatalog(c.Context)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "%d listings\n", n)
	return err
}

func (st *appState) weightsCheckCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("weights check requires exactly one file", 2)
	}
	w, err := weights.LoadFile(c.Args().First())
	if err != nil {
		return err
	}
	return printJSON(c, w.Map())
}

func (st *appState) weightsShowCommand(c *cli.Context) error {
	m, err := loadWeights(st.cfg, st.logger)
	if err != nil {
		return err
	}
	return printJSON(c, m.Get().Map())
}

func printJSON(c *cli.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}
