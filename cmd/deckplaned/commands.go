package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/deckplane/internal/config"
	"github.com/muurk/deckplane/internal/discovery"
	"github.com/muurk/deckplane/internal/gateway"
	"github.com/muurk/deckplane/internal/icon"
	"github.com/muurk/deckplane/internal/keys"
	"github.com/muurk/deckplane/internal/logging"
	"github.com/muurk/deckplane/internal/page"
	"github.com/muurk/deckplane/internal/reconcile"
	"github.com/muurk/deckplane/internal/server"
)

// Run command and flags
var (
	configPath      string
	listenAddr      string
	gatewayAddr     string
	profileName     string
	assetDir        string
	logLevel        string
	discoverTimeout int
)

// Discover command flags
var scanTimeout int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the daemon",
	Long: `Start the Deckplane daemon.

The daemon connects to the key-grid gateway service, takes ownership of
its configured hardware profile, and listens for one controlling client
on the TCP control channel. If no gateway address is configured it is
discovered via mDNS.

Flags override the corresponding configuration file settings.`,
	Example: `  # Start with the configuration file (gateway discovered via mDNS)
  deckplaned run

  # Start against an explicit gateway with debug logging
  deckplaned run --gateway ws://127.0.0.1:50354 --log-level debug

  # Serve the control channel on a different port
  deckplaned run --listen 127.0.0.1:7700`,
	RunE: runDaemon,
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to configuration file (default: platform config dir)")
	runCmd.Flags().StringVar(&listenAddr, "listen", "", "TCP address for the control channel")
	runCmd.Flags().StringVar(&gatewayAddr, "gateway", "", "Websocket URL of the key-grid gateway (empty = discover via mDNS)")
	runCmd.Flags().StringVar(&profileName, "profile", "", "Hardware profile the daemon owns")
	runCmd.Flags().StringVar(&assetDir, "asset-dir", "", "Directory bare icon names resolve against")
	runCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	runCmd.Flags().IntVar(&discoverTimeout, "discover-timeout", 0, "mDNS discovery timeout in seconds")
}

// discoverCmd lists key-grid gateways found on the network
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover key-grid gateways on the network",
	Long: `Discover key-grid gateways using mDNS/DNS-SD.

This command listens for mDNS broadcasts from key-grid gateway services
and displays all discovered gateways with their addresses and metadata.`,
	Example: `  # Scan for 10 seconds (default)
  deckplaned discover

  # Quick 3-second scan
  deckplaned discover --timeout 3`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	fmt.Printf("Scanning for key-grid gateways (timeout: %ds)...\n\n", scanTimeout)

	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(scanTimeout) * time.Second

	endpoints, err := scanner.Scan(context.Background())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(endpoints) == 0 {
		fmt.Println("No gateways found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the gateway service is running on this network")
		fmt.Println("  - Check that mDNS traffic is not blocked by a firewall")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use 'run --gateway ws://<host:port>' to skip discovery")
		return nil
	}

	fmt.Printf("Found %d gateway(s):\n\n", len(endpoints))

	for i, endpoint := range endpoints {
		fmt.Printf("%d. %s\n", i+1, endpoint.Instance)
		fmt.Printf("   Host:    %s\n", endpoint.Hostname)
		fmt.Printf("   Address: ws://%s\n", endpoint.Addr())
		if v := endpoint.GetMetadata("version"); v != "" {
			fmt.Printf("   Version: %s\n", v)
		}
		fmt.Println()
	}

	fmt.Println("Use 'deckplaned run --gateway ws://<host:port>' to connect to one directly")

	return nil
}

// loadSettings loads the configuration file and applies flag overrides.
func loadSettings() (*config.Settings, error) {
	var settings *config.Settings
	var err error
	if configPath != "" {
		settings, err = config.LoadFrom(configPath)
	} else {
		settings, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if listenAddr != "" {
		settings.ListenAddr = listenAddr
	}
	if gatewayAddr != "" {
		settings.GatewayAddr = gatewayAddr
	}
	if profileName != "" {
		settings.Profile = profileName
	}
	if assetDir != "" {
		settings.AssetDir = assetDir
	}
	if logLevel != "" {
		settings.LogLevel = logLevel
	}
	if discoverTimeout > 0 {
		settings.DiscoverTimeout = discoverTimeout
	}
	return settings, nil
}

// resolveGatewayAddr returns the configured gateway URL, discovering one
// via mDNS when the configuration leaves it empty.
func resolveGatewayAddr(ctx context.Context, settings *config.Settings) (string, error) {
	if settings.GatewayAddr != "" {
		return settings.GatewayAddr, nil
	}

	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(settings.DiscoverTimeout) * time.Second

	logging.Info("No gateway configured, discovering via mDNS",
		zap.Duration("timeout", scanner.Timeout),
	)
	endpoint, err := scanner.FindFirst(ctx)
	if err != nil {
		return "", fmt.Errorf("gateway discovery failed: %w", err)
	}

	logging.Info("Discovered key-grid gateway", zap.String("endpoint", endpoint.String()))
	return "ws://" + endpoint.Addr(), nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if settings.LogLevel != "" {
		err = logging.Initialize(settings.LogLevel)
	} else {
		err = logging.InitializeFromEnv()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, err := resolveGatewayAddr(ctx, settings)
	if err != nil {
		return err
	}

	gw := gateway.NewClient(addr)
	if err := gw.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to gateway: %w", err)
	}
	defer gw.Close()

	renderer := icon.NewFileRenderer(settings.AssetDir)
	store := keys.NewStore()
	controller := reconcile.New(gw, renderer, settings.Profile)
	registry := page.NewRegistry(controller)

	go controller.Run(ctx)

	logging.Info("Deckplane daemon starting",
		zap.String("profile", settings.Profile),
		zap.String("gateway", addr),
		zap.String("listen", settings.ListenAddr),
	)

	srv := server.New(&server.Config{ListenAddr: settings.ListenAddr}, store, registry, controller)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("control channel failed: %w", err)
	}
	return nil
}
