package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"syncwell/internal/app"
	"syncwell/internal/config"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer
// a.Close(). operation identifies the CLI command being run (e.g.
// "TaskAdd", "Refresh").
func newApp(cmd *cobra.Command, operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.New(cmd.Context(), cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "syncwell",
	Short: "Personal wellness tracker with cloud sync",
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

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
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
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Database:  %s\n", cfg.Database.Type)
		fmt.Printf("Remote:    %s\n", cfg.Remote.Type)
		if cfg.Remote.Type == "surrealdb" {
			fmt.Printf("Endpoint:  %s\n", cfg.Remote.Endpoint)
		}
		fmt.Printf("Identity:  %s\n", cfg.Identity.Type)
		return nil
	},
}

// login command
var loginCmd = &cobra.Command{
	Use:   "login [TOKEN]",
	Short: "Sign in with a session token",
	Long: "Sign in with a session token (JWT). Pass the token as an argument\n" +
		"or pipe it on stdin.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var token string
		if len(args) > 0 {
			token = args[0]
		} else {
			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 64*1024), 64*1024)
			if scanner.Scan() {
				token = strings.TrimSpace(scanner.Text())
			}
		}
		if token == "" {
			return fmt.Errorf("no token provided")
		}

		a, err := newApp(cmd, "Login")
		if err != nil {
			return err
		}
		defer a.Close()

		ownerID, err := a.Login(cmd.Context(), token)
		if err != nil {
			a.Fail()
			return err
		}

		fmt.Printf("Signed in as %s\n", ownerID)
		return nil
	},
}

// logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove local data",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Logout")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Logout(cmd.Context()); err != nil {
			a.Fail()
			return err
		}

		fmt.Println("Signed out. Local data removed; cloud data kept.")
		return nil
	},
}

// refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Pull the full cloud data set into the local database",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Refresh")
		if err != nil {
			return err
		}
		defer a.Close()

		if _, signedIn := a.Owner().CurrentOwnerID(); !signedIn {
			fmt.Println("Not signed in; nothing to refresh.")
			return nil
		}

		if err := a.RefreshAll(cmd.Context()); err != nil {
			a.Fail()
			return fmt.Errorf("refresh failed: %w", err)
		}

		fmt.Println("Refresh complete.")
		return nil
	},
}

// watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Mirror live cloud changes until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Watch")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a.StartMirroring(ctx)
		fmt.Println("Mirroring cloud changes. Press Ctrl-C to stop.")
		<-ctx.Done()
		fmt.Println("Stopping.")
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recorded operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "History")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.History(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				d := op.FinishedAt.Time.Sub(op.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-12s  %s  %-10s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
			)
		}
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage encrypted database backups",
}

var backupSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Generate backup encryption keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "BackupSetup")
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Backup().IsConfigured() {
			return fmt.Errorf("backup keys already exist")
		}

		passphrase, err := readPassphrase("Passphrase for backup key: ", true)
		if err != nil {
			return err
		}

		if err := a.Backup().Setup(passphrase); err != nil {
			a.Fail()
			return fmt.Errorf("setting up backup keys: %w", err)
		}

		fmt.Println("Backup keys generated.")
		return nil
	},
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an encrypted database backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "BackupCreate")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Persist(cmd.Context()); err != nil {
			return err
		}

		path, err := a.Backup().Create(a.DB(), time.Now())
		if err != nil {
			a.Fail()
			return fmt.Errorf("creating backup: %w", err)
		}

		fmt.Printf("Backup written to %s\n", path)
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore BACKUP_FILE DEST_FILE",
	Short: "Restore an encrypted backup to a database file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "BackupRestore")
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readPassphrase("Passphrase for backup key: ", false)
		if err != nil {
			return err
		}

		if err := a.Backup().Restore(args[0], args[1], passphrase); err != nil {
			a.Fail()
			return fmt.Errorf("restoring backup: %w", err)
		}

		fmt.Printf("Restored to %s\n", args[1])
		return nil
	},
}

// readPassphrase prompts for a passphrase without echoing. With confirm set,
// the passphrase must be entered twice.
func readPassphrase(prompt string, confirm bool) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	if len(first) == 0 {
		return "", fmt.Errorf("empty passphrase")
	}

	if confirm {
		fmt.Fprint(os.Stderr, "Confirm passphrase: ")
		second, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		if string(first) != string(second) {
			return "", fmt.Errorf("passphrases do not match")
		}
	}

	return string(first), nil
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	backupCmd.AddCommand(backupSetupCmd)
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupRestoreCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(medCmd)
	rootCmd.AddCommand(wellnessCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	rootCmd.AddCommand(backupCmd)
}
