package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/regwatch/regwatch-crawler/internal/clock/system"
	"github.com/regwatch/regwatch-crawler/internal/config"
	"github.com/regwatch/regwatch-crawler/internal/fetch"
	"github.com/regwatch/regwatch-crawler/internal/harvest"
	"github.com/regwatch/regwatch-crawler/internal/logging"
	"github.com/regwatch/regwatch-crawler/internal/metrics"
	"github.com/regwatch/regwatch-crawler/internal/pipeline"
	"github.com/regwatch/regwatch-crawler/internal/sink"
	"github.com/regwatch/regwatch-crawler/internal/source"
	"github.com/regwatch/regwatch-crawler/internal/storage/local"
)

func newExtractCmd() *cobra.Command {
	var daysBack int
	var only []string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Runs the extraction pipelines and writes a run manifest",
		Long: `Fetches each enabled source's listing, processes its items strictly
sequentially with the source's politeness delay, and writes all surviving
records into a single JSON manifest. Sources run independently; one source
failing never blocks the others.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd, daysBack, only)
		},
	}

	cmd.Flags().IntVar(&daysBack, "days-back", 0, "lookback window in days (overrides config)")
	cmd.Flags().StringSliceVar(&only, "sources", nil, "restrict the run to these sources")

	return cmd
}

func runExtract(cmd *cobra.Command, daysBack int, only []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if daysBack <= 0 {
		daysBack = cfg.Extract.DaysBack
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		metrics.Init()
		go serveMetrics(cfg.Metrics.Addr, logger)
	}

	static, err := fetch.NewCollyFetcher(fetch.CollyConfig{
		UserAgent:      cfg.HTTP.UserAgent,
		RequestTimeout: cfg.HTTPTimeout(),
		HostQPS:        cfg.HTTP.HostQPS,
	}, logger)
	if err != nil {
		return fmt.Errorf("init fetcher: %w", err)
	}

	store, err := local.New(local.Config{BaseDir: cfg.Output.AttachmentDir})
	if err != nil {
		return fmt.Errorf("init attachment store: %w", err)
	}
	writer, err := sink.NewWriter(cfg.Output.Dir)
	if err != nil {
		return fmt.Errorf("init manifest writer: %w", err)
	}

	clk := system.New()
	manifest := sink.NewManifest(daysBack, clk.Now())

	configs, err := selectSources(cfg, only)
	if err != nil {
		return err
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []sink.SourceResult
	)
	for _, sc := range configs {
		wg.Add(1)
		go func(sc pipeline.SourceConfig) {
			defer wg.Done()
			result := runSource(ctx, cfg, sc, daysBack, static, store, clk, logger)
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(sc)
	}
	wg.Wait()

	// Keep manifest ordering stable regardless of which source finished
	// first.
	for _, sc := range configs {
		for _, res := range results {
			if res.Name == sc.Name {
				manifest.Sources = append(manifest.Sources, res)
			}
		}
	}
	manifest.FinishedAt = clk.Now()

	path, err := writer.Write(manifest)
	if err != nil {
		return err
	}
	logger.Info("run complete",
		zap.String("run_id", manifest.RunID),
		zap.String("manifest", path),
		zap.Int("sources", len(manifest.Sources)),
	)
	return ctx.Err()
}

// runSource builds and runs one source's pipeline. Every failure mode ends
// up in the returned result; nothing here aborts the sibling sources.
func runSource(ctx context.Context, cfg config.Config, sc pipeline.SourceConfig, daysBack int, static fetch.Fetcher, store harvest.Store, clk pipeline.Clock, logger *zap.Logger) sink.SourceResult {
	result := sink.SourceResult{Name: sc.Name, Label: sc.Label, Records: []pipeline.Record{}}

	deps := pipeline.Deps{
		Static: static,
		Clock:  clk,
		Logger: logger,
	}

	if sc.RenderedListing || sc.RenderedDetail {
		if !cfg.Headless.Enabled {
			result.Error = "source needs rendering but headless is disabled"
			return result
		}
		renderer, err := fetch.NewChromeRenderer(fetch.RenderConfig{
			UserAgent:    cfg.HTTP.UserAgent,
			NavTimeout:   cfg.NavTimeout(),
			WaitSelector: sc.WaitSelector,
			WaitTimeout:  sc.WaitTimeout,
		}, logger)
		if err != nil {
			result.Error = fmt.Sprintf("start renderer: %v", err)
			return result
		}
		defer renderer.Close()
		deps.Renderer = renderer
	}

	if len(sc.AttachmentKeywords) > 0 {
		harvester, err := harvest.New(harvest.Config{
			TriggerKeywords: sc.AttachmentKeywords,
			Delay:           sc.InterRequestDelay,
		}, sc.Name, static, store, pipeline.TimerSleeper{}, logger)
		if err != nil {
			result.Error = fmt.Sprintf("init harvester: %v", err)
			return result
		}
		deps.Harvester = harvester
	}

	p, err := pipeline.New(sc, deps)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	records, err := p.Extract(ctx, daysBack)
	if err != nil {
		result.Error = err.Error()
	}
	if records != nil {
		result.Records = records
	}
	return result
}

// selectSources resolves the configured and requested source set.
func selectSources(cfg config.Config, only []string) ([]pipeline.SourceConfig, error) {
	names := only
	if len(names) == 0 {
		names = source.Names()
	}
	configs := make([]pipeline.SourceConfig, 0, len(names))
	for _, name := range names {
		sc, err := source.ByName(name)
		if err != nil {
			return nil, err
		}
		if !cfg.SourceEnabled(name) {
			continue
		}
		configs = append(configs, cfg.ApplySource(sc))
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("no sources selected")
	}
	return configs, nil
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("metrics listener started", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics listener stopped", zap.Error(err))
	}
}
