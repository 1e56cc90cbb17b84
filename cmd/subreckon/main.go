// Command subreckon runs the passive subdomain reconnaissance engine: for
// each target domain it fans a selected set of discovery sources out
// concurrently, merges and scopes their results, and writes a report.
// Grounded in the teacher's cmd/passive-rec/main.go for the overall
// flag-parse/log/run/exit shape, rebuilt on cobra for the subcommand surface
// the rest of this corpus reaches for.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"subreckon/internal/cache"
	"subreckon/internal/config"
	"subreckon/internal/driver"
	"subreckon/internal/format"
	"subreckon/internal/logx"
	"subreckon/internal/metrics"
	"subreckon/internal/orchestrator"
	"subreckon/internal/plugin"
	"subreckon/internal/progress"
	"subreckon/internal/runner"
	"subreckon/internal/workerpool"
)

// version is stamped at build time via -ldflags; it seeds the cache's
// plugin-hash and the Runner's User-Agent.
var version = "dev"

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "subreckon",
		Short:         "Passive subdomain reconnaissance orchestrator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newScanCommand())
	root.AddCommand(newCacheCommand())
	return root
}

func newScanCommand() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run discovery sources against one or more targets",
	}
	resolve := config.Bind(cmd, v)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := resolve()
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return err
		}
		return runScan(cmd.Context(), cfg)
	}
	return cmd
}

func newCacheCommand() *cobra.Command {
	var cacheDir string
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or maintain the on-disk result cache",
	}
	cmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "cache directory")

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ok := cache.New(cacheDir)
			if !ok {
				return fmt.Errorf("cache: --cache-dir is required")
			}
			if err := c.Clear(); err != nil {
				return fmt.Errorf("cache: clear: %w", err)
			}
			fmt.Println("cache cleared")
			return nil
		},
	}

	var maxAge time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Remove cached entries older than --max-age",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ok := cache.New(cacheDir)
			if !ok {
				return fmt.Errorf("cache: --cache-dir is required")
			}
			if err := c.Prune(maxAge); err != nil {
				return fmt.Errorf("cache: prune: %w", err)
			}
			fmt.Println("cache pruned")
			return nil
		},
	}
	prune.Flags().DurationVar(&maxAge, "max-age", 24*time.Hour, "entries older than this are removed")

	cmd.AddCommand(clear, prune)
	return cmd
}

func runScan(ctx context.Context, cfg *config.Config) error {
	logx.SetVerbosity(cfg.Verbosity)

	targets, err := driver.ResolveTargets(cfg.Targets, cfg.InputFile)
	if err != nil {
		logx.Errorf("%v", err)
		return err
	}

	m := metrics.New()

	pool := workerpool.New(cfg.Workers)
	sink := progress.LogSink{}
	userAgent := "subreckon/" + version
	rn := runner.New(pool, sink, cfg.Retries, userAgent).WithMetrics(m)
	orch := orchestrator.New(rn)

	var c *cache.Cache
	if cached, ok := cache.New(cfg.CacheDir); ok {
		c = cached.WithMetrics(m)
	}

	registry := plugin.NewRegistry()
	drv, err := driver.New(registry, orch, c, driver.Options{
		Include:       cfg.Include,
		Exclude:       cfg.Exclude,
		TaskTimeout:   time.Duration(cfg.TaskTimeoutS) * time.Second,
		GlobalTimeout: time.Duration(cfg.GlobalTimeoutS) * time.Second,
		EngineVersion: version,
	})
	if err != nil {
		logx.Errorf("%v", err)
		return err
	}
	drv = drv.WithMetrics(m)

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		logx.Errorf("creating output directory: %v", err)
		return err
	}

	outputPath := cfg.Output
	if outputPath == "" {
		outputPath = filepath.Join(cfg.OutDir, "subreckon."+cfg.Format)
	}
	writer, err := driver.OpenWriter(format.Kind(cfg.Format), outputPath, false)
	if err != nil {
		logx.Errorf("%v", err)
		return err
	}
	if writer != nil {
		defer func() {
			if cerr := writer.Close(); cerr != nil {
				logx.Errorf("closing output: %v", cerr)
			}
		}()
	}

	processed := drv.Run(ctx, targets, writer)
	logx.Infof("subreckon: processed %d/%d targets", processed, len(targets))
	if processed == 0 {
		return fmt.Errorf("no target completed successfully")
	}
	return nil
}
