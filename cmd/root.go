package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	cfgpkg "github.com/KaramelBytes/sentinel-cli/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	quiet   bool

	// Loaded configuration
	cfg    *cfgpkg.Global
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Sentinel: district-level risk scoring for Aadhaar activity datasets",
	Long: `Sentinel cleanses Aadhaar enrollment, demographic-update and biometric-update
datasets, aggregates them per district, scores each district's anomaly risk
and cross-checks the scores with an isolation forest, a random forest and a
gradient boosting model.`,
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return loadConfig(cmd) },
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.sentinel/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
}

func loadConfig(cmd *cobra.Command) error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = c
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = verbose
	}

	level := slog.LevelInfo
	switch {
	case cfg.Verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelWarn
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// progress prints a user-facing status line unless --quiet is set.
func progress(cmd *cobra.Command, format string, args ...any) {
	if quiet {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}

// applyFlags copies explicitly set command flags into c. keys maps flag
// names to config keys.
func applyFlags(cmd *cobra.Command, c *cfgpkg.Global, keys map[string]string) error {
	for flag, key := range keys {
		fl := cmd.Flags().Lookup(flag)
		if fl == nil || !fl.Changed {
			continue
		}
		if err := c.Set(key, fl.Value.String()); err != nil {
			return fmt.Errorf("--%s: %w", flag, err)
		}
	}
	return nil
}
