package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/havenmarch/rtrace/internal/display"
	"github.com/havenmarch/rtrace/internal/trace"
	"github.com/havenmarch/rtrace/pkg/hop"
)

// Config holds the parsed CLI configuration.
type Config struct {
	Target   string
	Protocol string
	Port     int
	FirstHop int
	MaxHops  int
	Tries    int
	Timeout  int
	Size     int
	IPv4Only bool
	IPv6Only bool
	NoColor  bool
	Verbose  bool
	DryRun   bool
}

var validProtocols = map[string]bool{
	"icmp": true,
	"udp":  true,
}

// NewRootCmd creates and returns the root cobra command.
func NewRootCmd() *cobra.Command {
	var cfg Config

	cmd := &cobra.Command{
		Use:   "rtrace <target>",
		Short: "Raw-socket traceroute",
		Long: `rtrace discovers the routers between this host and a target by sending
ICMP Echo or UDP probes with increasing TTL values and correlating the
ICMP errors that come back. Requires raw-socket privileges.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !validProtocols[cfg.Protocol] {
				return fmt.Errorf("invalid protocol %q: must be icmp or udp", cfg.Protocol)
			}
			if cfg.IPv4Only && cfg.IPv6Only {
				return fmt.Errorf("-4/--ipv4 and -6/--ipv6 are mutually exclusive")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Target = args[0]

			if cfg.DryRun {
				return nil
			}

			return runTrace(cmd, &cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.Protocol, "protocol", "udp", "Probe protocol: icmp|udp")
	cmd.Flags().IntVar(&cfg.Port, "port", trace.DefaultPort, "UDP base port (destination port is base+ttl)")
	cmd.Flags().IntVarP(&cfg.FirstHop, "first-hop", "f", trace.DefaultBeginTTL, "TTL to start probing at")
	cmd.Flags().IntVarP(&cfg.MaxHops, "max-hops", "m", trace.DefaultMaxTTL, "Maximum TTL to probe")
	cmd.Flags().IntVarP(&cfg.Tries, "tries", "q", trace.DefaultMaxTries, "Probe attempts per hop")
	cmd.Flags().IntVar(&cfg.Timeout, "timeout", trace.DefaultTimeoutMs, "Per-probe wait in milliseconds")
	cmd.Flags().IntVar(&cfg.Size, "size", trace.DefaultSize, "UDP probe payload size in bytes")
	cmd.Flags().BoolVarP(&cfg.IPv4Only, "ipv4", "4", false, "Use IPv4 only")
	cmd.Flags().BoolVarP(&cfg.IPv6Only, "ipv6", "6", false, "Use IPv6 only")
	cmd.Flags().BoolVar(&cfg.NoColor, "no-color", false, "Disable colors")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Verbose logging to stderr")
	cmd.Flags().BoolVar(&cfg.DryRun, "dry-run", false, "Validate args without running trace")

	return cmd
}

// runTrace resolves the target and drives one trace to completion,
// rendering observations as they arrive.
func runTrace(cmd *cobra.Command, cfg *Config) error {
	logger := newLogger(cfg.Verbose)
	defer logger.Sync() //nolint:errcheck
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	targetIP, err := ResolveTarget(cfg.Target, addressFamily(cfg))
	if err != nil {
		return fmt.Errorf("failed to resolve target: %w", err)
	}

	opts := []trace.Option{
		trace.WithBeginTTL(cfg.FirstHop),
		trace.WithMaxTTL(cfg.MaxHops),
		trace.WithMaxTries(cfg.Tries),
		trace.WithTimeoutMs(cfg.Timeout),
		trace.WithPort(cfg.Port),
		trace.WithSize(cfg.Size),
	}
	if cfg.Protocol == "icmp" {
		opts = append(opts, trace.WithProtocol(trace.ProtocolICMP))
	}

	tr, stream, err := trace.New(targetIP, opts...)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "traceroute to %s (%s), %d hops max, %s probes\n",
		cfg.Target, targetIP, cfg.MaxHops, cfg.Protocol)

	tr.Run(ctx)

	renderer := display.NewSimpleRenderer(cmd.OutOrStdout())
	renderer.NoColor = cfg.NoColor
	last := renderer.Render(stream)

	if ctx.Err() != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "\nTrace interrupted")
		return nil
	}
	if last.Reason == hop.ReasonTransportFailure {
		return last.Err
	}
	return nil
}

func addressFamily(cfg *Config) AddressFamily {
	if cfg.IPv4Only {
		return AddressFamilyIPv4
	}
	if cfg.IPv6Only {
		return AddressFamilyIPv6
	}
	return AddressFamilyAuto
}

// newLogger builds the process logger: human-readable output to stderr,
// debug level only under --verbose so probe-by-probe noise stays out of
// normal runs.
func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
