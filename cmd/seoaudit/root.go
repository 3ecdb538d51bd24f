package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/Almahr1/seoaudit/internal/config"
	"github.com/Almahr1/seoaudit/internal/issue"
	"github.com/Almahr1/seoaudit/internal/report"
	"github.com/Almahr1/seoaudit/pkg/seoaudit"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "0.1.0"

// errFindings signals that issues at or above --fail-on were found
var errFindings = errors.New("findings at or above the failure threshold")

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "seoaudit",
		Short:         "Technical SEO auditor",
		Long:          `Crawls a website and reports technical SEO and site-health issues grouped by category and severity.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "config file (default is ./seoaudit.yaml, ~/.seoaudit/seoaudit.yaml or /etc/seoaudit/seoaudit.yaml)")

	root.AddCommand(newAuditCommand())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "seoaudit version %s\n", version)
		},
	})
	return root
}

func newAuditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit <url>",
		Short: "Audit a website starting from url",
		Args:  cobra.ExactArgs(1),
		RunE:  runAudit,
	}

	f := cmd.Flags()
	f.Int("max-pages", 50, "maximum number of pages to fetch")
	f.Int("workers", 1, "concurrent fetches")
	f.Bool("allow-subdomains", false, "follow links to subdomains of the start host")
	f.Bool("allow-outside-folder", false, "follow links outside the start URL's folder")
	f.Bool("ignore-query", false, "treat URLs that differ only in query as the same page")
	f.Bool("respect-robots", false, "skip links disallowed by robots.txt")
	f.Bool("check-robots", true, "check robots.txt")
	f.Bool("check-sitemap", true, "check sitemaps")
	f.StringSlice("sitemap", nil, "additional sitemap URL (repeatable)")
	f.String("target-country", "", "ISO country code of the target market, enables the server location check")
	f.String("user-agent", config.DefaultUserAgent, "User-Agent header")
	f.Duration("timeout", 10*time.Second, "per-request timeout")
	f.Float64("rps", 5, "requests per second per host")
	f.String("locale", "en", "report language (en, zh)")
	f.Int("examples", 3, "example URLs per issue group")
	f.String("format", "table", "output format (table, json)")
	f.String("log-level", "info", "log level (debug, info, warn, error)")
	f.String("log-format", "text", "log format (text, json)")
	f.String("fail-on", "", "exit non-zero when an issue of this severity or higher is found (critical, high, medium, low)")
	return cmd
}

func runAudit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	var failOn *issue.Severity
	if name, _ := cmd.Flags().GetString("fail-on"); name != "" {
		sev, err := issue.ParseSeverity(name)
		if err != nil {
			return fmt.Errorf("--fail-on: %w", err)
		}
		failOn = &sev
	}

	logger, err := cfg.GetLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	if used := cfg.ConfigFileUsed(); used != "" {
		logger.Info("loaded configuration", zap.String("file", used))
	}

	opts := seoaudit.OptionsFromConfig(cfg)
	opts.Logger = logger

	audit, runErr := seoaudit.Run(cmd.Context(), args[0], opts)
	if audit == nil {
		return runErr
	}
	if err := report.Render(cmd.OutOrStdout(), cfg.Report.Format, audit.Document()); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	if failOn != nil {
		for _, g := range audit.Report.Groups {
			if g.Severity.Rank() <= failOn.Rank() {
				return fmt.Errorf("%w: %s (%s)", errFindings, g.Kind, g.Severity)
			}
		}
	}
	return nil
}
