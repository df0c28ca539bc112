package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/lance13c/auditor/internal/config"
	"github.com/lance13c/auditor/internal/logging"
)

var (
	cfgFile    string
	projectDir string
	verbose    bool

	auditorConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "auditor",
	Short: "auditor - automated exploratory QA",
	Long: `auditor explores a web application through a browser, reviews every
screen it reaches against usability and accessibility heuristics, and turns
what it found into prioritized test cases and QA reports.

Run 'auditor init' once per project, then 'auditor audit'.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// ExecuteContext runs the root command with ctx, which is cancelled on
// interrupt.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .auditor/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "p", ".", "project directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "verbose output")
}

// initConfig loads configuration and starts the file logger.
func initConfig(cmd *cobra.Command, args []string) error {
	startTime := time.Now()

	loader := config.NewLoader(projectDir)
	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = loader.LoadFile(cfgFile)
	} else {
		cfg, err = loader.LoadOrDefault()
	}
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logging.INFO
	}
	if verbose {
		level = logging.DEBUG
	}
	if err := logging.Initialize(logging.Options{
		ProjectDir: projectDir,
		Dir:        cfg.Logging.Dir,
		Level:      level,
		Stderr:     verbose,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to initialize logging: %v\n", err)
	} else {
		logging.RedirectStandardLog()
	}

	auditorConfig = cfg
	logging.Debug("config loaded in %v (initialized: %v)", time.Since(startTime), loader.IsInitialized())
	return nil
}

// projectPath resolves p against the project directory.
func projectPath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(projectDir, p)
}
