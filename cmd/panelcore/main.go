package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/saltyorg/panelcore/internal/config"
	"github.com/saltyorg/panelcore/internal/core"
	"github.com/saltyorg/panelcore/internal/database"
	"github.com/saltyorg/panelcore/internal/logging"
	"github.com/saltyorg/panelcore/internal/web"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI flags
var (
	userdataPath string
	installDir   string
	envFile      string
	verbosity    int

	port        int
	bind        string
	allowSubnet string
	releaseURL  string

	// Timeout flags (advanced)
	connectTimeout time.Duration
	updateTimeout  time.Duration
	httpTimeout    time.Duration

	pingRoot   bool
	pingServer int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "panelcore",
		Short:         "panelcore - hosting panel database and status core",
		Long:          `panelcore provides the database connection layer and the core status API of the hosting panel.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&userdataPath, "userdata", "", "Path to the userdata YAML file (or set PANEL_USERDATA env var)")
	rootCmd.PersistentFlags().StringVar(&installDir, "install-dir", "", "Panel install directory holding logs/ (or set PANEL_INSTALL_DIR env var)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading env vars")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	rootCmd.PersistentFlags().DurationVar(&connectTimeout, "connect-timeout", 10*time.Second, "Timeout for connecting to the database server")
	rootCmd.PersistentFlags().DurationVar(&updateTimeout, "update-timeout", 10*time.Second, "Timeout for the release update check")
	rootCmd.PersistentFlags().StringVar(&releaseURL, "release-url", core.DefaultReleaseURL, "URL of the latest release JSON")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  serve,
	}
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP server port (required, or set PORT env var)")
	serveCmd.Flags().StringVarP(&bind, "bind", "b", "", "IP address to bind to (e.g., 127.0.0.1, 0.0.0.0)")
	serveCmd.Flags().StringVarP(&allowSubnet, "allow-subnet", "a", "", "CIDR subnet allowed to connect (e.g., 192.168.1.0/24)")
	serveCmd.Flags().DurationVar(&httpTimeout, "http-timeout", 60*time.Second, "Timeout for each API request")

	statusCmd := &cobra.Command{
		Use:       "status {version|apiversion|update|system}",
		Short:     "Print a core status report as JSON",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"version", "apiversion", "update", "system"},
		RunE:      status,
	}

	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database utilities",
	}
	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Connect to the database and print the server version",
		Args:  cobra.NoArgs,
		RunE:  ping,
	}
	pingCmd.Flags().BoolVar(&pingRoot, "root", false, "Use the privileged credentials")
	pingCmd.Flags().IntVar(&pingServer, "server", 0, "Index of the privileged server")
	dbCmd.AddCommand(pingCmd)

	rootCmd.AddCommand(serveCmd, statusCmd, dbCmd, &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("panelcore %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(report(os.Stderr, err))
	}
}

// report prints err for a shell user and returns the exit status. Fatal
// database errors only print the fixed message; details are in sql-error.log.
func report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	if database.IsFatal(err) {
		fmt.Fprintln(w, database.ShellMessage)
	} else {
		fmt.Fprintln(w, "Error:", err)
	}
	return 1
}

// setup loads the env file, resolves env fallbacks and configures console logging
func setup() error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	if installDir == "" {
		installDir = os.Getenv("PANEL_INSTALL_DIR")
	}
	if installDir == "" {
		installDir = "."
	}
	if userdataPath == "" {
		userdataPath = os.Getenv("PANEL_USERDATA")
	}
	if userdataPath == "" {
		userdataPath = filepath.Join(installDir, "lib", "userdata.yaml")
	}

	logging.Apply(logging.LevelFromVerbosity(verbosity), nil, "")

	config.SetGlobalTimeouts(&config.TimeoutConfig{
		Connect:     connectTimeout,
		UpdateCheck: updateTimeout,
		HTTPRequest: httpTimeout,
	})
	return nil
}

func newManager() (*database.Manager, *logging.SQLErrorLog) {
	errLog := logging.NewSQLErrorLog(installDir)
	return database.NewManager(database.Options{
		Source:   config.FileSource(userdataPath),
		ErrorLog: errLog,
	}), errLog
}

func newService() *core.Service {
	return core.NewService(core.Options{
		Version:    version,
		Commit:     commit,
		Date:       date,
		ReleaseURL: releaseURL,
	})
}

// settingsSnapshot serves settings read once at startup
type settingsSnapshot map[string]string

func (s settingsSnapshot) GetSetting(_ context.Context, key string) (string, error) {
	return s[key], nil
}

// loadSettings reads the panel settings table once. Failures fall back to defaults.
func loadSettings(ctx context.Context, manager *database.Manager) *config.Loader {
	db := manager.Session()
	defer db.Close()

	settings, err := db.GetAllSettings(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read panel settings, using defaults")
		return nil
	}
	return config.NewLoader(ctx, settingsSnapshot(settings))
}

func serve(cmd *cobra.Command, args []string) error {
	// Check for PORT env var if flag not set
	if port == 0 {
		if envPort := os.Getenv("PORT"); envPort != "" {
			if _, err := fmt.Sscanf(envPort, "%d", &port); err != nil {
				return fmt.Errorf("invalid PORT environment variable %q: %w", envPort, err)
			}
		}
	}
	if port == 0 {
		return fmt.Errorf("--port flag or PORT environment variable is required")
	}

	if bind != "" {
		if ip := net.ParseIP(bind); ip == nil {
			return fmt.Errorf("invalid bind address: %s", bind)
		}
	}

	var allowedNet *net.IPNet
	if allowSubnet != "" {
		_, parsedNet, err := net.ParseCIDR(allowSubnet)
		if err != nil {
			return fmt.Errorf("invalid allow-subnet CIDR: %s", allowSubnet)
		}
		allowedNet = parsedNet
	}

	manager, errLog := newManager()
	defer errLog.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logging.Apply(logging.LevelFromVerbosity(verbosity), loadSettings(ctx, manager), logging.FilePath(installDir))

	if (bind == "" || bind == "0.0.0.0" || bind == "::") && allowSubnet == "" {
		log.Warn().Msg("Server is accessible from all interfaces without subnet restrictions. Consider using --bind or --allow-subnet for security.")
	}

	log.Info().
		Str("version", version).
		Int("port", port).
		Str("bind", bind).
		Str("allow_subnet", allowSubnet).
		Str("userdata", userdataPath).
		Str("sql_error_log", errLog.Path()).
		Msg("Starting panelcore")

	service := newService()
	if err := service.Start(); err != nil {
		return err
	}
	defer service.Stop()

	server, err := web.NewServer(manager, service, web.Options{
		Port:       port,
		Bind:       bind,
		AllowedNet: allowedNet,
	})
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info().Msg("panelcore stopped")
	return nil
}

func status(cmd *cobra.Command, args []string) error {
	manager, errLog := newManager()
	defer errLog.Close()

	db := manager.Session()
	defer db.Close()

	ctx := database.With(cmd.Context(), db)
	service := newService()

	var (
		report any
		err    error
	)
	switch args[0] {
	case "version":
		report = map[string]string{"version": service.StatusVersion(ctx)}
	case "apiversion":
		report = map[string]string{"api_version": service.StatusAPIVersion(ctx)}
	case "update":
		report, err = service.StatusUpdate(ctx)
	case "system":
		report, err = service.StatusSystem(ctx)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func ping(cmd *cobra.Command, args []string) error {
	manager, errLog := newManager()
	defer errLog.Close()

	db := manager.Session()
	defer db.Close()
	db.NeedRoot(pingRoot, pingServer)

	serverVersion, err := db.ServerVersion(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", db.Driver(), serverVersion)
	return nil
}
