package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"dr-go/internal/app"
	"dr-go/internal/config"
	"dr-go/internal/server"
	"dr-go/internal/token"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and secrets and creates a wired DRApp.
// The caller must defer a.Close().
// unlockToken prompts for the passphrase of the encrypted GitHub token and
// uses it instead of the DR_GITHUB_TOKEN environment variable.
func newApp(ctx context.Context, unlockToken bool) (*app.DRApp, *config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	secrets, err := config.SecretsFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("reading secrets: %w", err)
	}

	if unlockToken {
		pass, err := readSecret("Passphrase for GitHub token: ")
		if err != nil {
			return nil, nil, err
		}
		tok, err := token.Load(cfg.TokenPath, pass)
		if err != nil {
			return nil, nil, fmt.Errorf("unlocking github token: %w", err)
		}
		secrets.GitHubToken = tok
	}

	a, err := app.NewDRApp(ctx, cfg, secrets)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, cfg, nil
}

// readSecret prompts on stderr and reads a line without echo.
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

var actorFlag string

var rootCmd = &cobra.Command{
	Use:   "dr",
	Short: "Disaster recovery tool: backup, restore, and identity cleanup",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		instanceID := uuid.New().String()
		cfg := config.NewConfig(instanceID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Instance ID: %s\n", instanceID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Instance ID:  %s\n", cfg.InstanceID)
		fmt.Printf("Base Dir:     %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:      %s\n", cfg.LogDir)
		fmt.Printf("Repository:   %s/%s@%s\n", cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.Branch)
		fmt.Printf("Object store: %s\n", cfg.ObjectStore.Type)
		fmt.Printf("Allow-list:   %s\n", strings.Join(cfg.AuthorizedEmails, ", "))
		return nil
	},
}

// token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the encrypted GitHub token",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the GitHub token encrypted with a passphrase",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		tok, err := readSecret("GitHub token: ")
		if err != nil {
			return err
		}
		pass, err := readSecret("Passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readSecret("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := token.Save(cfg.TokenPath, tok, pass); err != nil {
			return fmt.Errorf("saving token: %w", err)
		}
		fmt.Printf("Token stored at %s\n", cfg.TokenPath)
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, cfg, err := newApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		secrets, err := config.SecretsFromEnv()
		if err != nil {
			return fmt.Errorf("reading secrets: %w", err)
		}

		srv := server.New(a, cfg.Server.Addr, secrets.JWTSecret)
		return srv.Serve(ctx)
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage backups",
}

var unlockTokenFlag bool

var backupNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Create a new backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := newApp(cmd.Context(), unlockTokenFlag)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.BackupNow(cmd.Context(), actorFlag)
		if err != nil {
			return err
		}

		fmt.Printf("Backup complete: %s\n", res.ID)
		if res.Files.Realtime != nil {
			fmt.Printf("  database: %s (%d bytes)\n", res.Files.Realtime.Path, res.Files.Realtime.Size)
		}
		if res.Files.GitHub != nil {
			fmt.Printf("  archive:  %s (%d bytes)\n", res.Files.GitHub.Path, res.Files.GitHub.Size)
		}
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List existing backups",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		items, err := a.ListBackups(cmd.Context())
		if err != nil {
			return err
		}

		if len(items) == 0 {
			fmt.Println("No backups yet.")
			return nil
		}
		for _, b := range items {
			roles := make([]string, 0, 3)
			if b.Files.Realtime != nil {
				roles = append(roles, "realtime")
			}
			if b.Files.GitHub != nil {
				roles = append(roles, "github")
			}
			if b.Files.Manifest != nil {
				roles = append(roles, "manifest")
			}
			fmt.Printf("%s  %s  [%s]\n", b.ID, b.Timestamp, strings.Join(roles, " "))
		}
		return nil
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the document store (overwrites all live data)",
}

var restoreBackupCmd = &cobra.Command{
	Use:   "backup <id>",
	Short: "Restore from a stored backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RestoreFromBackup(cmd.Context(), actorFlag, args[0]); err != nil {
			return err
		}
		fmt.Println("Restore complete.")
		return nil
	},
}

var restoreJSONCmd = &cobra.Command{
	Use:   "json <file>",
	Short: "Restore from a local JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		a, _, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RestoreFromJSON(cmd.Context(), actorFlag, string(data)); err != nil {
			return err
		}
		fmt.Println("Restore complete.")
		return nil
	},
}

// purge command
var purgeDaysFlag float64

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete stale anonymous identities",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.PurgeAnonymousUsers(cmd.Context(), actorFlag, purgeDaysFlag)
		if err != nil {
			return err
		}
		fmt.Printf("Scanned %d, deleted %d, kept %d, failed %d\n",
			res.Scanned, res.Deleted, res.Kept, res.Failed)
		return nil
	},
}

// history command
var historyLimitFlag int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.History(historyLimitFlag)
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}
		for _, rec := range records {
			finished := "-"
			if !rec.FinishedAt.IsZero() {
				finished = rec.FinishedAt.UTC().Format(time.RFC3339)
			}
			fmt.Printf("%s  %-20s  %-8s  %s  %s\n",
				rec.StartedAt.UTC().Format(time.RFC3339), rec.Operation, rec.Status, rec.Actor, finished)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&actorFlag, "actor", "cli", "identity recorded for operations run from this terminal")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)

	tokenCmd.AddCommand(tokenSetCmd)
	rootCmd.AddCommand(tokenCmd)

	rootCmd.AddCommand(serveCmd)

	backupNowCmd.Flags().BoolVar(&unlockTokenFlag, "unlock-token", false, "decrypt the stored GitHub token with a passphrase prompt")
	backupCmd.AddCommand(backupNowCmd)
	backupCmd.AddCommand(backupListCmd)
	rootCmd.AddCommand(backupCmd)

	restoreCmd.AddCommand(restoreBackupCmd)
	restoreCmd.AddCommand(restoreJSONCmd)
	rootCmd.AddCommand(restoreCmd)

	purgeCmd.Flags().Float64Var(&purgeDaysFlag, "days", 30, "delete anonymous identities older than this many days")
	rootCmd.AddCommand(purgeCmd)

	historyCmd.Flags().IntVar(&historyLimitFlag, "limit", 20, "maximum number of operations to show")
	rootCmd.AddCommand(historyCmd)
}
