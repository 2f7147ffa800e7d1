package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/dockerdns/pkg/config"
	dnssrv "github.com/cuemby/dockerdns/pkg/dns"
	"github.com/cuemby/dockerdns/pkg/docker"
	"github.com/cuemby/dockerdns/pkg/log"
	"github.com/cuemby/dockerdns/pkg/metrics"
	"github.com/cuemby/dockerdns/pkg/resolver"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dockerdns",
	Short: "Authoritative DNS for Docker container names",
	Long: `dockerdns answers A and AAAA queries for the names of containers
running on the local Docker daemon, optionally scoped by a DNS suffix
(e.g. ".docker"). Deploy it next to a container host so other containers
and the host itself can reach workloads by name.`,
	Version: Version,
	RunE:    runServe,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"dockerdns version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	rootCmd.Flags().String("config", "", "Path to YAML config file")
	rootCmd.Flags().String("bind", config.DefaultBind, "UDP listen address")
	rootCmd.Flags().String("socket", config.DefaultSocket, "Docker daemon socket")
	rootCmd.Flags().Duration("hit-timeout", config.DefaultHitTimeout, "Max cache age before any query forces a refresh")
	rootCmd.Flags().Duration("miss-timeout", config.DefaultMissTimeout, "Max cache age before a missing-name query forces a refresh")
	rootCmd.Flags().Duration("docker-timeout", config.DefaultDockerTimeout, "Wall-clock bound on one inventory fetch")
	rootCmd.Flags().String("suffix", "", "DNS authority suffix, e.g. .docker (empty answers for every name)")
	rootCmd.Flags().Int("ttl", config.DefaultTTL, "TTL in seconds stamped on answer records")
	rootCmd.Flags().String("metrics-addr", "", "Address for /metrics and /health (empty disables)")

	cobra.OnInitialize(initLogging)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Re-init in case the config file changed the logging setup.
	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
	})
	metrics.SetVersion(Version)

	logger := log.WithComponent("main")
	logger.Info().
		Str("version", Version).
		Str("bind", cfg.Bind).
		Str("socket", cfg.Socket).
		Str("suffix", cfg.Suffix).
		Msg("starting dockerdns")

	client, err := docker.New(cfg.Socket)
	if err != nil {
		return err
	}
	defer client.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.DockerTimeout))
	err = client.Ping(pingCtx)
	cancel()
	if err != nil {
		return err
	}
	metrics.UpdateComponent("docker", true, "")

	cache := resolver.NewCache(client, resolver.Config{
		HitTimeout:     time.Duration(cfg.HitTimeout),
		MissTimeout:    time.Duration(cfg.MissTimeout),
		RefreshTimeout: time.Duration(cfg.DockerTimeout),
	})

	handler := dnssrv.NewHandler(cache, cfg.Suffix, uint32(cfg.TTL))
	server := dnssrv.NewServer(handler, cfg.Bind)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		startMetricsServer(cfg.MetricsAddr)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start DNS server: %w", err)
	}

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")
	return server.Stop()
}

// loadConfig layers CLI flags over the config file over defaults, then
// validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed("bind") {
		cfg.Bind, _ = flags.GetString("bind")
	}
	if flags.Changed("socket") {
		cfg.Socket, _ = flags.GetString("socket")
	}
	if flags.Changed("hit-timeout") {
		d, _ := flags.GetDuration("hit-timeout")
		cfg.HitTimeout = config.Duration(d)
	}
	if flags.Changed("miss-timeout") {
		d, _ := flags.GetDuration("miss-timeout")
		cfg.MissTimeout = config.Duration(d)
	}
	if flags.Changed("docker-timeout") {
		d, _ := flags.GetDuration("docker-timeout")
		cfg.DockerTimeout = config.Duration(d)
	}
	if flags.Changed("suffix") {
		cfg.Suffix, _ = flags.GetString("suffix")
	}
	if flags.Changed("ttl") {
		cfg.TTL, _ = flags.GetInt("ttl")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-json") {
		cfg.LogJSON, _ = flags.GetBool("log-json")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", metrics.HealthHandler())

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Logger.Error().
				Err(err).
				Str("component", "metrics").
				Msg("metrics server error")
		}
	}()

	log.Logger.Info().
		Str("component", "metrics").
		Str("address", addr).
		Msg("metrics server started")
}
