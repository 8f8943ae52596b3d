package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/japaniel/jambu/pkg/config"
	"github.com/japaniel/jambu/pkg/controller"
	"github.com/japaniel/jambu/pkg/fetch"
	"github.com/japaniel/jambu/pkg/history"
)

var (
	configPath  string
	verbose     bool
	historyPath string
	refreshMode string
	trigger     string
	noHistory   bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "jambu",
	Short: "Filter and browse a lexicon listing from the terminal",
	Long: `jambu drives the filter controls of a lexicon listing: text filters,
the language select, column sorting and pagination. Every change is
reflected in the listing URL and the results are refreshed in place.

Run "jambu browse" for the interactive browser.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if historyPath != "" {
			cfg.HistoryDB = historyPath
		}
		if refreshMode != "" {
			cfg.RefreshMode = config.RefreshMode(refreshMode)
		}
		if trigger != "" {
			cfg.CommitTrigger = config.CommitTrigger(trigger)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		// The browser owns the terminal, so it logs to a file.
		logger, err = newLogger(cmd.Name() == "browse")
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func newLogger(toFile bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if toFile {
		path, err := config.ExpandPath(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		zc.OutputPaths = []string{path}
		zc.ErrorOutputPaths = []string{path}
	}
	return zc.Build()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.DefaultPath, "path to the config file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log debug output")
	pf.StringVar(&historyPath, "history-db", "", "path to the visit log database")
	pf.BoolVar(&noHistory, "no-history", false, "do not record visited pages")
	pf.StringVar(&refreshMode, "refresh", "", "refresh mode: partial or full")
	pf.StringVar(&trigger, "trigger", "", "commit trigger: debounce or blur-or-enter")

	rootCmd.AddCommand(browseCmd, queryCmd, historyCmd)
}

// startURL picks the listing to open: the argument if given, else the
// configured base URL.
func startURL(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.BaseURL
}

// openHistory opens the visit log unless recording is disabled.
func openHistory() (*history.Store, error) {
	if noHistory {
		return nil, nil
	}
	path, err := config.ExpandPath(cfg.HistoryDB)
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}

func parseListingURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("listing url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("listing url %q: want an absolute http(s) url", s)
	}
	return u, nil
}

// newController wires a controller from the loaded settings. store may be
// nil.
func newController(start string, store *history.Store) (*controller.Controller, error) {
	u, err := parseListingURL(start)
	if err != nil {
		return nil, err
	}
	opts, err := controller.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts.Logger = logger
	if store != nil {
		opts.Recorder = store
	}

	f := fetch.New(time.Duration(cfg.HTTPTimeout), cfg.UserAgent)
	f.Logger = logger
	return controller.New(f, u, opts), nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
