package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lance13c/auditor/internal/config"
	"github.com/lance13c/auditor/internal/logging"
	"github.com/lance13c/auditor/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the audit whenever its inputs change",
	Long: `Run an audit, then watch the config file, the simulated site map and
optionally an application source tree, re-running the audit after each change.
The config is reloaded before every run.

Examples:
  auditor watch --backend simulated
  auditor watch --source web/src --debounce 1s`,
	RunE: runWatch,
}

var (
	watchOpts     auditFlags
	watchSource   string
	watchDebounce time.Duration
)

func init() {
	rootCmd.AddCommand(watchCmd)
	addAuditFlags(watchCmd, &watchOpts)
	watchCmd.Flags().StringVar(&watchSource, "source", "", "application source directory to watch")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultConfig().Debounce, "quiet period before re-running")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	loader := config.NewLoader(projectDir)

	runOnce := func() error {
		cfg := auditorConfig
		if cfgFile != "" || loader.IsInitialized() {
			var err error
			if cfgFile != "" {
				cfg, err = loader.LoadFile(cfgFile)
			} else {
				cfg, err = loader.Load()
			}
			if err != nil {
				return err
			}
		}
		cfg, err := watchOpts.apply(cfg)
		if err != nil {
			return err
		}
		targets, err := watchOpts.targets(cfg)
		if err != nil {
			return err
		}
		return auditTargets(ctx, out, cfg, watchOpts.role, targets, false)
	}

	if err := runOnce(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprintf(out, "❌ Audit failed: %v\n", err)
	}

	wcfg := watcher.DefaultConfig()
	wcfg.Debounce = watchDebounce
	fw, err := watcher.New(projectPath(watchSource), wcfg)
	if err != nil {
		return err
	}
	defer fw.Close()

	files := watchedFiles(loader)
	for _, f := range files {
		if err := fw.Watch(f); err != nil {
			return err
		}
	}
	if len(files) == 0 && watchSource == "" {
		return fmt.Errorf("nothing to watch: no config file, site file or --source directory")
	}

	fw.OnChange(func(changed []string) error {
		fmt.Fprintf(out, "\n🔄 %d file(s) changed, re-running audit\n", len(changed))
		if err := runOnce(); err != nil {
			fmt.Fprintf(out, "❌ Audit failed: %v\n", err)
		}
		return nil
	})

	fmt.Fprintln(out, "👀 Watching for changes (Ctrl+C to stop)")
	if err := fw.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// watchedFiles is the config file in use plus the simulated site map.
func watchedFiles(loader *config.Loader) []string {
	var files []string
	switch {
	case cfgFile != "":
		files = append(files, cfgFile)
	default:
		if path, err := loader.ConfigFile(); err == nil {
			files = append(files, path)
		}
	}
	if site := auditorConfig.Browser.SiteFile; site != "" {
		files = append(files, projectPath(site))
	}
	logging.Debug("watching files: %v", files)
	return files
}
