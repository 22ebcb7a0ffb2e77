// Command tracker is the CLI presentation layer: it drives the activity
// ledger directly against the configured remote store and local cache.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"example.com/timetracker/internal/cache"
	"example.com/timetracker/internal/domain"
	"example.com/timetracker/internal/ledger"
	"example.com/timetracker/internal/remote"
)

var (
	flagUser    string
	flagDate    string
	flagRemote  string
	flagCache   string
	flagVerbose bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Track daily activities against a remote day ledger",
	Long: `tracker records named activities with a category and a duration for a
chosen date, keeps a local cache for fast reloads, and derives a daily
dashboard (totals, remaining minutes, category breakdown, timeline).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zapcore.WarnLevel
		if flagVerbose {
			level = zapcore.DebugLevel
		}
		zapCfg := zap.NewDevelopmentConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(level)
		logger, _ = zapCfg.Build()
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", os.Getenv("TRACKER_USER"), "user identifier (or TRACKER_USER)")
	rootCmd.PersistentFlags().StringVar(&flagDate, "date", "", "day to operate on, YYYY-MM-DD (default today)")
	rootCmd.PersistentFlags().StringVar(&flagRemote, "remote", os.Getenv("REMOTE_BASE_URL"), "remote store base URL (or REMOTE_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&flagCache, "cache", defaultCachePath(), "local cache database path (or CACHE_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(addCmd, editCmd, rmCmd, dayCmd, dashboardCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func defaultCachePath() string {
	if path := os.Getenv("CACHE_PATH"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".timetracker/cache.db"
	}
	return home + "/.timetracker/cache.db"
}

// newLedger builds a ledger pointed at (flagUser, flagDate) and loads it.
// The returned close function releases the cache handle.
func newLedger(ctx context.Context) (*ledger.Ledger, func(), error) {
	if flagUser == "" {
		return nil, nil, errors.New("no user: pass --user or set TRACKER_USER")
	}
	if flagRemote == "" {
		return nil, nil, errors.New("no remote store: pass --remote or set REMOTE_BASE_URL")
	}

	client := remote.NewClient(flagRemote,
		remote.WithLogger(logger),
		remote.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}))

	closeFn := func() {}
	var cacheStore ledger.CacheStore
	if store, err := cache.Open(flagCache, cache.WithLogger(logger)); err != nil {
		logger.Warn("local cache unavailable, running remote-only", zap.Error(err))
	} else {
		cacheStore = store
		closeFn = func() { store.Close() }
	}

	led := ledger.New(client, cacheStore, ledger.WithLogger(logger))

	if flagDate != "" {
		if err := led.SetDate(ctx, flagDate); err != nil {
			closeFn()
			return nil, nil, err
		}
	}
	if err := led.SetUser(ctx, flagUser); err != nil {
		// A failed authoritative load may still leave a cached snapshot to
		// show; commands that only read decide whether that is acceptable.
		var pErr *domain.PersistenceError
		if errors.As(err, &pErr) && led.Provisional() {
			return led, closeFn, errProvisional
		}
		closeFn()
		return nil, nil, err
	}
	return led, closeFn, nil
}

// errProvisional marks a ledger that loaded from cache only.
var errProvisional = errors.New("remote unavailable, showing cached data")
