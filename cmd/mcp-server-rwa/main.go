package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rwa-tools/mcp-server-rwa/internal"
	"github.com/rwa-tools/mcp-server-rwa/internal/assets"
	"github.com/rwa-tools/mcp-server-rwa/internal/coingecko"
	"github.com/rwa-tools/mcp-server-rwa/internal/config"
	"github.com/rwa-tools/mcp-server-rwa/internal/tools"
	"github.com/rwa-tools/mcp-server-rwa/mcp"
)

var rootCmd = &cobra.Command{
	Use:   "mcp-server-rwa",
	Short: "An MCP server for crypto and real-world asset prices",
	Long: `mcp-server-rwa is an MCP server that looks up USD prices of cryptocurrencies
and tokenized real-world assets (RWA) on CoinGecko.

By default it processes JSON-RPC requests from stdin and writes responses to stdout.
With --http it serves the same protocol at POST /mcp instead.

Tool sets (--variant):
- rwa:    list_supported_rwa, get_rwa_price
- legacy: get_crypto_price`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		g, ctx := errgroup.WithContext(ctx)

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		if !verbose {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}

		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		applyFlags(cmd, cfg)
		cfg.ApplyEnv(os.LookupEnv)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		variant, err := tools.ParseVariant(cfg.Variant)
		if err != nil {
			return err
		}

		g.Go(func() error {
			headers := http.Header{}
			headers.Set("User-Agent", "mcp-server-rwa/"+version)

			if cfg.PriceAPI.APIKey != "" {
				key, isRef, err := internal.ResolveSecretReference(ctx, cfg.PriceAPI.APIKey)
				if err != nil {
					return fmt.Errorf("error resolving API key: %w", err)
				}
				if isRef {
					logger.Info("resolved API key reference")
				}
				headers.Set(cfg.PriceAPI.APIKeyHeader, key)
			}

			client := internal.NewHTTPClient(internal.HTTPClientOptions{
				Retries: cfg.PriceAPI.Retries,
				Timeout: cfg.PriceAPI.Timeout,
				RPS:     cfg.PriceAPI.RPS,
				Headers: headers,
				Logger:  logger,
			})

			prices := coingecko.New(
				coingecko.WithBaseURL(cfg.PriceAPI.BaseURL),
				coingecko.WithHTTPClient(client),
				coingecko.WithTimeout(cfg.PriceAPI.Timeout),
			)

			registry, err := tools.New(assets.Default(), prices, logger).Registry(variant)
			if err != nil {
				return fmt.Errorf("error building tools: %w", err)
			}

			server, err := mcp.NewServer(
				mcp.WithRegistry(registry),
				mcp.WithLogger(logger),
				mcp.WithServerInfo("mcp-server-rwa", version),
			)
			if err != nil {
				return fmt.Errorf("error creating server: %w", err)
			}

			logger.Info("starting server", "variant", variant, "tools", registry.Len())

			if cfg.HTTP.Addr != "" {
				return mcp.ServeHTTP(ctx, cfg.HTTP.Addr, server.Handle, logger)
			}

			transport := mcp.NewStdioTransport(os.Stdin, os.Stdout, os.Stderr, mcp.WithMaxInFlight(cfg.MaxInFlight))
			return transport.Run(ctx, server.Handle)
		})

		return g.Wait()
	},
}

var (
	configPath  string
	variantFlag string
	httpAddr    string
	baseURL     string
	apiKey      string
	verbose     bool
	retries     int
	timeout     time.Duration
	rps         int
	maxInFlight int

	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func init() {
	defaults := config.DefaultConfig()

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.Flags().StringVar(&variantFlag, "variant", defaults.Variant, "Tool set to expose (rwa or legacy)")
	rootCmd.Flags().StringVar(&httpAddr, "http", "", "Serve over HTTP on this address (e.g. ':8080') instead of stdio")
	rootCmd.Flags().StringVar(&baseURL, "base-url", defaults.PriceAPI.BaseURL, "CoinGecko API base URL")
	rootCmd.Flags().StringVar(&apiKey, "api-key", "", "CoinGecko API key, an op:// reference or env:NAME (default $"+config.APIKeyEnv+")")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging to stderr")
	rootCmd.Flags().IntVar(&retries, "retries", defaults.PriceAPI.Retries, "Maximum number of retries for failed price requests")
	rootCmd.Flags().DurationVar(&timeout, "timeout", defaults.PriceAPI.Timeout, "Price request timeout, retries included")
	rootCmd.Flags().IntVarP(&rps, "rps", "r", 0, "Maximum outbound requests per second (0 for no limit)")
	rootCmd.Flags().IntVar(&maxInFlight, "max-in-flight", defaults.MaxInFlight, "Maximum concurrently handled requests")

	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built at: %s)", version, commit, date)
}

// applyFlags overrides config values with flags set on the command line
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("variant") {
		cfg.Variant = variantFlag
	}
	if flags.Changed("http") {
		cfg.HTTP.Addr = httpAddr
	}
	if flags.Changed("base-url") {
		cfg.PriceAPI.BaseURL = baseURL
	}
	if flags.Changed("api-key") {
		cfg.PriceAPI.APIKey = apiKey
	}
	if flags.Changed("retries") {
		cfg.PriceAPI.Retries = retries
	}
	if flags.Changed("timeout") {
		cfg.PriceAPI.Timeout = timeout
	}
	if flags.Changed("rps") {
		cfg.PriceAPI.RPS = rps
	}
	if flags.Changed("max-in-flight") {
		cfg.MaxInFlight = maxInFlight
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
