package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	huidu "github.com/alparslanahmed/huidu-client"
	"github.com/alparslanahmed/huidu-client/internal/config"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

var errNoDevices = errors.New("no devices found")

// app holds the state shared by every subcommand of one invocation.
type app struct {
	configPath string
	envFile    string
	logLevel   string
	timeout    time.Duration
	devices    []string

	cfg      *config.Config
	log      *slog.Logger
	registry *prometheus.Registry
	metrics  *huidu.Metrics
	client   *huidu.Client
}

// Execute runs the root command until it finishes or SIGINT/SIGTERM arrives
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "hdctl",
		Short: "hdctl - Huidu HD LED controller client",
		Long: `hdctl discovers Huidu HD controllers on the local network and sends
them SDK commands: list programs, toggle playback, replace text, switch the
screen on or off.

Devices are found with a UDP broadcast unless static devices are configured
with --device, HD_NETWORK_DEVICES or network.devices in the config file.

Use "hdctl [command] --help" for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Config file (YAML)")
	flags.StringVar(&a.envFile, "env-file", ".env", "Env file with HD_* overrides")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	flags.DurationVar(&a.timeout, "timeout", huidu.DefaultTimeout, "TCP connect and write timeout")
	flags.StringSliceVarP(&a.devices, "device", "d", nil, "Static device host[:port], skips the broadcast scan")

	// Add subcommands
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newScanCmd(a))
	rootCmd.AddCommand(newInfoCmd(a))
	rootCmd.AddCommand(newProgramsCmd(a))
	rootCmd.AddCommand(newPlayCmd(a))
	rootCmd.AddCommand(newTextCmd(a))
	rootCmd.AddCommand(newDeleteCmd(a))
	rootCmd.AddCommand(newScreenCmd(a))
	rootCmd.AddCommand(newCallCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))

	return rootCmd
}

// setup loads the configuration and builds the logger, metrics and client
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, a.envFile)
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Network.Timeout = a.timeout
	}
	if len(a.devices) > 0 {
		cfg.Network.Devices = a.devices
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	logger, err := newLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logger
	a.registry = prometheus.NewRegistry()
	a.metrics = huidu.NewMetrics(a.registry)

	opts := append(cfg.ClientOptions(), huidu.WithLogger(logger), huidu.WithMetrics(a.metrics))
	a.client = huidu.NewClient(opts...)

	logger.Debug("Configuration loaded",
		slog.String("config_path", a.configPath),
		slog.Int("port", cfg.Network.Port),
		slog.String("broadcast_address", cfg.Network.BroadcastAddress),
		slog.Int("static_devices", len(cfg.Network.Devices)),
		slog.Int("max_devices", cfg.Limits.MaxDevices),
		slog.Int("max_programs", cfg.Limits.MaxPrograms),
	)
	return nil
}

// discover fills the client's device list, from static entries if any are
// configured and from a broadcast scan otherwise.
func (a *app) discover(ctx context.Context) ([]huidu.Device, error) {
	if len(a.cfg.Network.Devices) > 0 {
		if devices := a.client.Devices(); len(devices) > 0 {
			return devices, nil
		}
		for _, entry := range a.cfg.Network.Devices {
			host, port, err := a.cfg.Network.SplitDevice(entry)
			if err != nil {
				return nil, err
			}
			if _, err := a.client.AddDevice(host, port); err != nil {
				return nil, fmt.Errorf("device %s: %w", entry, err)
			}
		}
		return a.client.Devices(), nil
	}

	devices, err := a.client.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	if len(devices) == 0 {
		return nil, errNoDevices
	}
	a.log.Info("Devices discovered", slog.Int("count", len(devices)))
	return devices, nil
}

// withPrograms discovers devices and refreshes the program list of device
func (a *app) withPrograms(ctx context.Context, device int) ([]string, error) {
	if _, err := a.discover(ctx); err != nil {
		return nil, err
	}
	return a.client.FetchPrograms(ctx, device)
}

// parseIndex parses a zero-based device or program position
func parseIndex(kind, arg string) (int, error) {
	idx, err := strconv.Atoi(arg)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("invalid %s index %q", kind, arg)
	}
	return idx, nil
}

// newVersionCmd shows version info
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "hdctl\n")
			fmt.Fprintf(out, "  Version:  %s\n", Version)
			fmt.Fprintf(out, "  Commit:   %s\n", Commit)
		},
	}
}
