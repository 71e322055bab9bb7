package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"scred/internal/app"
)

// version is set at build time with -ldflags "-X scred/cmd/scred/commands.version=...".
var version = "dev"

var (
	configPath string
	home       string
	serverURL  string
	slot       string
	storage    string
	logLevel   string
	logFormat  string
	passphrase string

	wire *app.Wire
)

// Execute runs the CLI until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, newRootCmd())
}

// execute runs root and always releases the wire afterwards. Cobra skips
// PersistentPostRunE when a command fails, so cleanup cannot live there.
func execute(ctx context.Context, root *cobra.Command) error {
	err := root.ExecuteContext(ctx)
	if cerr := closeWire(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func closeWire() error {
	if wire == nil {
		return nil
	}
	err := wire.Close()
	wire = nil
	return err
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "scred",
		Short:        "End-to-end encrypted chat CLI",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := app.NewLogger(cfg.Log)
			if err != nil {
				return err
			}
			if passphrase == "" {
				passphrase = os.Getenv(app.PassphraseEnv)
			}
			wire, err = app.NewWire(cfg, passphrase, log)
			return err
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default <home>/config.yaml)")
	pf.StringVar(&home, "home", "", "config dir (default ~/.scred)")
	pf.StringVar(&serverURL, "server", "", "relay base URL (e.g. http://127.0.0.1:8080)")
	pf.StringVar(&slot, "slot", "", "identity slot name")
	pf.StringVar(&storage, "storage", "", "identity storage backend: file or badger")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "", "log format (text or json)")
	pf.StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting local keys (or $"+app.PassphraseEnv+")")

	root.AddCommand(
		signupCmd(),
		loginCmd(),
		logoutCmd(),
		initCmd(),
		fingerprintCmd(),
		peersCmd(),
		trustCmd(),
		chatCmd(),
		versionCmd(),
	)
	return root
}

// loadConfig reads the YAML config and overlays any flags that were set.
func loadConfig(cmd *cobra.Command) (app.ClientConfig, error) {
	path := configPath
	if path == "" {
		dir := home
		if dir == "" {
			dir = app.DefaultHome()
		}
		path = filepath.Join(dir, "config.yaml")
	}
	cfg, err := app.LoadClientConfig(path)
	if err != nil {
		return app.ClientConfig{}, err
	}

	flags := cmd.Flags()
	overlay := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	overlay("home", &cfg.Home, home)
	overlay("server", &cfg.ServerURL, serverURL)
	overlay("slot", &cfg.Slot, slot)
	overlay("storage", &cfg.Storage, storage)
	overlay("log-level", &cfg.Log.Level, logLevel)
	overlay("log-format", &cfg.Log.Format, logFormat)
	return cfg, cfg.Validate()
}
