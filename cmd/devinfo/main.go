// Package main is the devinfo command: it collects hardware, system and
// network diagnostics from the running device and prints them.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitalis-app/deviceinfo"
	"github.com/vitalis-app/deviceinfo/internal/clock"
	"github.com/vitalis-app/deviceinfo/internal/config"
	"github.com/vitalis-app/deviceinfo/internal/logging"
	"github.com/vitalis-app/deviceinfo/internal/render"
	"github.com/vitalis-app/deviceinfo/internal/scheduler"
)

var (
	// Set at build time via -ldflags.
	version    = "dev"
	commitHash = "unknown"
	buildDate  = "unknown"
)

var (
	cfgFile            string
	formatFlag         string
	logLevelFlag       string
	includeUnavailable bool
	noCache            bool

	watchInterval time.Duration
	watchFresh    bool

	initPath  string
	initForce bool
)

var rootCmd = &cobra.Command{
	Use:   "devinfo",
	Short: "devinfo - device hardware, system and network diagnostics",
	Long: `devinfo collects a diagnostic snapshot of the device it runs on:
hardware specs, OS build and security state, and network connectivity.

Run without a subcommand to print the full report (equivalent to 'report').`,
	SilenceUsage: true,
	RunE:         runReport,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Collect every category and print the report",
	RunE:  runReport,
}

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Show required and missing permissions per collector",
	RunE:  runPermissions,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Collect twice and show cache statistics",
	RunE:  runCache,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print a fresh report on every interval until interrupted",
	RunE:  runWatch,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the devinfo configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "devinfo %s (commit: %s, built: %s)\n", version, commitHash, buildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.devinfo/config.yaml, /etc/devinfo/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "o", "", "output format: text or json (default: text on a terminal, json otherwise)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error, none")
	rootCmd.PersistentFlags().BoolVar(&includeUnavailable, "include-unavailable", false, "report categories that could not be collected")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "disable the result cache")

	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", 0, "refresh interval (default 30s)")
	watchCmd.Flags().BoolVar(&watchFresh, "fresh", true, "bypass the cache on every refresh")

	configInitCmd.Flags().StringVar(&initPath, "path", "", "where to write the file (default ~/.devinfo/config.yaml)")
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(reportCmd)
	for _, c := range deviceinfo.Categories() {
		rootCmd.AddCommand(categoryCmd(c))
	}
	rootCmd.AddCommand(permissionsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// categoryCmd builds the command printing a single category.
func categoryCmd(c deviceinfo.Category) *cobra.Command {
	return &cobra.Command{
		Use:   string(c),
		Short: fmt.Sprintf("Collect and print %s information", c),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			return a.printer.Outcome(c, a.sdk.Collect(cmd.Context(), c))
		},
	}
}

// app bundles what every command needs.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	sdk     *deviceinfo.SDK
	printer *render.Printer
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	sdkCfg, err := cfg.ToSDK()
	if err != nil {
		return nil, err
	}
	format, err := resolveFormat(cfg.Output.Format, isTerminal(os.Stdout))
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	sdk := deviceinfo.Initialize(nil, sdkCfg, deviceinfo.WithLogger(logger))
	logger.Debug("devinfo starting",
		zap.String("version", version),
		zap.String("format", string(format)))

	return &app{
		cfg:     cfg,
		logger:  logger,
		sdk:     sdk,
		printer: render.New(cmd.OutOrStdout(), format),
	}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func loadConfig() (*config.Config, error) {
	cli := config.CLIOverrides{
		Format:             formatFlag,
		LogLevel:           logLevelFlag,
		Interval:           watchInterval,
		IncludeUnavailable: includeUnavailable,
		NoCache:            noCache,
	}
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadLayered(cli, cfgFile)
	} else {
		cfg, err = config.LoadLayered(cli)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// resolveFormat maps the configured format to a renderer format. "auto"
// picks text on a terminal and JSON otherwise.
func resolveFormat(format string, tty bool) (render.Format, error) {
	if strings.EqualFold(format, config.FormatAuto) || format == "" {
		if tty {
			return render.Text, nil
		}
		return render.JSON, nil
	}
	return render.ParseFormat(format)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	return a.printer.Report(a.sdk.CollectAll(cmd.Context()))
}

func runPermissions(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	return a.printer.Permissions(a.sdk.RequiredPermissions(), a.sdk.MissingPermissions(), a.sdk.AvailableCollectors())
}

func runCache(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	clk := clock.Real()
	for pass := 1; pass <= 2; pass++ {
		start := clk.Now()
		a.sdk.CollectAll(cmd.Context())
		a.logger.Info("Collection pass finished",
			zap.Int("pass", pass),
			zap.Duration("took", clk.Now().Sub(start)))
	}
	return a.printer.CacheStats(a.sdk.CacheStats(), clk.Now())
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := scheduler.New(a.sdk, a.cfg.Watch.Interval.Duration, clock.Real(), a.logger)
	w.Fresh = watchFresh
	var printErr error
	w.OnReport(func(r *deviceinfo.Report) {
		if err := a.printer.Report(r); err != nil && printErr == nil {
			printErr = err
			stop()
		}
	})

	a.logger.Info("Watching device", zap.Duration("interval", a.cfg.Watch.Interval.Duration))
	w.Start(ctx)
	return printErr
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := initPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".devinfo", "config.yaml")
	}
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.WriteConfig(config.DefaultConfig(), path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfgFile
	if path == "" {
		path = config.Locate()
	}
	if path == "" {
		path = "(defaults)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n", path)
	return config.Encode(cmd.OutOrStdout(), cfg)
}
