// Package main implements the tzdash CLI: a live world-time dashboard
// for the terminal, a one-shot time converter, directory search, and
// an HTTP API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/tzdash/tzdash/pkg/config"
	"github.com/tzdash/tzdash/pkg/dashboard"
	"github.com/tzdash/tzdash/pkg/directory"
	"github.com/tzdash/tzdash/pkg/geoloc"
	"github.com/tzdash/tzdash/pkg/prefs"
	"github.com/tzdash/tzdash/pkg/server"
	"github.com/tzdash/tzdash/pkg/session"
	"github.com/tzdash/tzdash/pkg/tztime"
	"github.com/tzdash/tzdash/pkg/weather"
)

const version = "tzdash v1.0.0"

var (
	configPath    string
	verbose       bool
	noGeolocation bool
	demoWeather   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tzdash",
		Short: "World time dashboard with day/night and weather",
		Long: `tzdash shows the current time, day/night state and weather for your
geolocated location plus up to two added locations, and converts an
arbitrary reference time across all of them.`,
		RunE: runDashboard,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noGeolocation, "no-geolocation", false, "skip geolocation and start from the fallback location")
	rootCmd.PersistentFlags().BoolVar(&demoWeather, "demo-weather", false, "use built-in demo weather even when an API key is configured")

	rootCmd.AddCommand(convertCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// buildSession wires providers from config and flags. The returned
// cleanup closes the preference store; call it on exit.
func buildSession(logger *slog.Logger) (*session.Session, config.Config, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, config.Config{}, nil, err
	}

	var geo geoloc.Provider
	switch {
	case noGeolocation || !cfg.Geolocation:
		geo = geoloc.Disabled{}
	case cfg.PinLat != nil && cfg.PinLon != nil:
		geo = geoloc.Static{Coordinates: geoloc.Coordinates{Latitude: *cfg.PinLat, Longitude: *cfg.PinLon}}
	default:
		geo = geoloc.NewIPLocator(nil, logger)
	}

	var wx weather.Provider = weather.DemoProvider{}
	if cfg.WeatherAPIKey != "" && !demoWeather {
		wx = weather.NewClient(cfg.WeatherAPIKey, nil, logger)
	}

	opts := []session.Option{
		session.WithGeolocator(geo),
		session.WithWeather(wx),
	}

	cleanup := func() {}
	if cfg.PrefsPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.PrefsPath), 0o750); err != nil {
			logger.Warn("cannot create preference directory, theme will not persist", "error", err)
		} else if store, err := prefs.Open(cfg.PrefsPath); err != nil {
			logger.Warn("cannot open preference store, theme will not persist", "error", err)
		} else {
			opts = append(opts, session.WithPrefStore(store))
			cleanup = func() {
				if err := store.Close(); err != nil {
					logger.Debug("closing preference store", "error", err)
				}
			}
		}
	}

	return session.New(logger, opts...), cfg, cleanup, nil
}

func runDashboard(_ *cobra.Command, _ []string) error {
	logger := newLogger()
	ctx, cancel := signalContext()
	defer cancel()

	sess, _, cleanup, err := buildSession(logger)
	if err != nil {
		return err
	}
	defer cleanup()

	sess.Init(ctx)
	dashboard.Run(ctx, sess)
	return nil
}

func convertCmd() *cobra.Command {
	var (
		dateStr string
		timeStr string
		adds    []string
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Project a wall-clock time across your locations",
		Long: `Interprets --date and --time as a wall clock in the primary
location's timezone (DST-correct for that date) and shows the
corresponding time in every location.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()
			ctx, cancel := signalContext()
			defer cancel()

			sess, _, cleanup, err := buildSession(logger)
			if err != nil {
				return err
			}
			defer cleanup()
			sess.Init(ctx)

			for _, query := range adds {
				results := directory.Search(query)
				if len(results) == 0 {
					return fmt.Errorf("no place matches %q", query)
				}
				if err := sess.AddLocation(ctx, results[0]); err != nil {
					return err
				}
			}

			instant, err := tztime.ResolveWallClockToInstant(dateStr, timeStr, sess.ReferenceTimezone())
			if err != nil {
				return err
			}
			sess.SetCustomInstant(instant)

			dashboard.RenderConverter(cmd.OutOrStdout(), sess)
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "calendar date, YYYY-MM-DD")
	cmd.Flags().StringVar(&timeStr, "time", "", "wall-clock time, HH:MM")
	cmd.Flags().StringArrayVar(&adds, "add", nil, "add a location by search query (repeatable, max 2)")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("time")

	return cmd
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search the location directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dashboard.RenderSearchResults(cmd.OutOrStdout(), directory.Search(strings.Join(args, " ")))
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard as an HTTP API",
		RunE: func(_ *cobra.Command, _ []string) error {
			logger := newLogger()
			ctx, cancel := signalContext()
			defer cancel()

			sess, cfg, cleanup, err := buildSession(logger)
			if err != nil {
				return err
			}
			defer cleanup()
			sess.Init(ctx)

			if listen != "" {
				cfg.Listen = listen
			}
			return server.New(logger, sess, cfg.Listen, cfg.RefreshCron).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
