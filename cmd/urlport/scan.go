package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/urlport/urlport/internal/config"
	"github.com/urlport/urlport/internal/engine"
	internallog "github.com/urlport/urlport/internal/log"
	"github.com/urlport/urlport/internal/model"
	"github.com/urlport/urlport/internal/planner"
	"github.com/urlport/urlport/internal/report"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [project-dir]",
		Short: "Audit a project for hardcoded URLs without modifying anything",
		Long: `Scan walks the project tree, finds every absolute http(s) URL in the
enabled file types, classifies each one against your internal domains
and whitelist, and reports what a migration would change.

Nothing is written: scan is the dry audit that migrate builds on.

Examples:
  # Audit the current directory for example.com URLs
  urlport scan -d example.com

  # Audit another directory with two internal domains
  urlport scan /var/www/site -d example.com -d old-example.com

  # Include unquoted URL occurrences
  urlport scan -d example.com --deep

  # Write a JSON audit report
  urlport scan -d example.com --json -o audit.json

  # Suggest internal domains from the project's bootstrap files
  urlport scan --suggest-domains`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScanCmd,
	}

	addAnalysisFlags(cmd)
	cmd.Flags().Bool("suggest-domains", false,
		"Inspect bootstrap files and suggest internal domains, then exit")

	return cmd
}

// addAnalysisFlags registers the flags shared by scan and migrate.
func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("domain", "d", nil,
		"Internal domain to migrate (repeatable; subdomains match)")
	cmd.Flags().StringSlice("legacy-domain", nil,
		"Additional old domain treated as internal (repeatable)")
	cmd.Flags().StringSliceP("whitelist", "w", nil,
		"Domain or exact URL to preserve verbatim (repeatable)")
	cmd.Flags().StringSlice("types", nil,
		"File extensions to scan, e.g. .php,.html (default from config)")
	cmd.Flags().Bool("deep", false,
		"Deep scan: also rewrite unquoted URL occurrences")
	cmd.Flags().StringP("format", "f", "",
		`Replacement format: auto, base_url, site_url, function:<name>, or custom`)
	cmd.Flags().String("custom-format", "",
		"Template for --format custom; must contain {path}")
	cmd.Flags().IntP("workers", "n", config.DefaultWorkers,
		"Number of files analyzed concurrently")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .urlport.yaml in project or home directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("diff", false,
		"Show unified diffs for each change in the text report")
	cmd.Flags().BoolP("quiet", "q", false,
		"Suppress progress output on stdout (reports are still written)")
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	logger := internallog.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	suggest, err := cmd.Flags().GetBool("suggest-domains")
	if err != nil {
		return err
	}
	if suggest {
		return runSuggestDomains(cmd, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	eng := engine.New(cfg, logger)
	analysis, err := eng.Analyze(ctx)
	if err != nil {
		return err
	}

	if d := analysis.Detection; d != nil && !cfg.Quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Detected helper in %s: %s\n\n", d.File, d.Example)
	}

	rep := auditReport(cfg, analysis)
	rep.Normalize()
	return outputReport(cmd, cfg, rep)
}

// auditReport builds a report for a scan-only run. Planned changes
// are presented in the Applied list with their would-be replacements;
// nothing has been written to disk.
func auditReport(cfg *config.Config, analysis *engine.Analysis) *model.MigrationReport {
	rep := &model.MigrationReport{
		Root:              cfg.Root,
		ReplacementFormat: analysis.Template.Format(),
		FilesScanned:      len(analysis.Scan.Files),
		Skipped:           analysis.Skipped,
		ScanFailures:      analysis.Scan.Failures,
	}
	for _, r := range analysis.Records {
		rep.Applied = append(rep.Applied, model.AppliedChange{
			Path:        r.Path,
			Line:        r.Source.Line,
			Start:       r.Start,
			Original:    r.Original,
			Replacement: r.Replacement,
		})
	}
	return rep
}

// runSuggestDomains inspects the project's bootstrap files for domain
// declarations and prints candidates for internal_domains.
func runSuggestDomains(cmd *cobra.Command, cfg *config.Config) error {
	domains := planner.DetectDomains(cfg.Root, cfg.BootstrapFiles)
	if len(domains) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No domain declarations found in bootstrap files.")
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Suggested internal domains:")
	for _, d := range domains {
		fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", d)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "\nAdd them to internal_domains in .urlport.yaml or pass -d.")
	return nil
}

// buildConfig creates a Config from cobra command flags and the
// project configuration file. Flags override file settings.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	cfg.Root = absRoot

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load the project configuration file first so flags win.
	// An explicitly specified file must exist; the default search
	// locations are optional.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath, cfg.Root)
	if configPath != "" {
		file, err := config.LoadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
		cfg.ConfigFilePath = configPath
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	domains, err := cmd.Flags().GetStringSlice("domain")
	if err != nil {
		return nil, err
	}
	if len(domains) > 0 {
		cfg.InternalDomains = domains
	}

	legacy, err := cmd.Flags().GetStringSlice("legacy-domain")
	if err != nil {
		return nil, err
	}
	if len(legacy) > 0 {
		cfg.LegacyDomains = legacy
	}

	whitelist, err := cmd.Flags().GetStringSlice("whitelist")
	if err != nil {
		return nil, err
	}
	if len(whitelist) > 0 {
		cfg.ExternalWhitelist = append(cfg.ExternalWhitelist, whitelist...)
	}

	types, err := cmd.Flags().GetStringSlice("types")
	if err != nil {
		return nil, err
	}
	if len(types) > 0 {
		cfg.FileTypes = types
	}

	deep, err := cmd.Flags().GetBool("deep")
	if err != nil {
		return nil, err
	}
	if deep {
		cfg.DeepScan = true
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}
	if format != "" {
		cfg.ReplacementFormat = format
	}

	customFormat, err := cmd.Flags().GetString("custom-format")
	if err != nil {
		return nil, err
	}
	if customFormat != "" {
		cfg.CustomFormat = customFormat
	}

	cfg.Workers, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Quiet, err = cmd.Flags().GetBool("quiet")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.DBDir = config.XDGDataDir()

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// outputReport writes the report in the requested format to stdout or
// the --output file.
func outputReport(cmd *cobra.Command, cfg *config.Config, rep *model.MigrationReport) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports can reveal internal URLs and paths, so keep them
		// owner-readable only.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close() //nolint:errcheck // read-only close after explicit writes
		output = f
	} else {
		output = os.Stdout
	}

	if cfg.JSONReport {
		_, err := report.NewJSONWriter(output, report.WithPrettyPrint()).Write(rep)
		return err
	}
	if cfg.MarkdownReport {
		_, err := report.NewMarkdownWriter(output).Write(rep)
		return err
	}

	showDiffs, err := cmd.Flags().GetBool("diff")
	if err != nil {
		showDiffs = false
	}
	_, err = report.NewSimpleWriter(output, report.WithDiffs(showDiffs)).Write(rep)
	return err
}

// reportPathFor returns where a run's JSON report is persisted in the
// data directory.
func reportPathFor(runID string) string {
	return filepath.Join(config.XDGDataDir(), fmt.Sprintf("report_%s.json", runID))
}

// nowStamp is the timestamp format used for config bookkeeping.
func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
