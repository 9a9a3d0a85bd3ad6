package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/resistanceisuseless/dnscan/internal/config"
	"github.com/resistanceisuseless/dnscan/internal/dns"
	"github.com/resistanceisuseless/dnscan/internal/output"
	"github.com/resistanceisuseless/dnscan/internal/report"
	"github.com/resistanceisuseless/dnscan/internal/scan"
	"github.com/resistanceisuseless/dnscan/internal/summary"
	"github.com/resistanceisuseless/dnscan/internal/wordlist"
	"github.com/spf13/cobra"
)

// errAborted means the failure was already reported through the log.
var errAborted = errors.New("scan aborted")

// Flags holds the command line options. Zero values defer to the config file.
type Flags struct {
	// Scan selection
	Threads  int
	Scan     string
	Types    []string
	Wildcard bool

	// Resolution
	Resolvers []string
	Timeout   int
	Rate      int

	// Input/Output
	Config string
	Output string
	Format string

	// Control Options
	Profile  string
	Verbose  bool
	NoColor  bool
	NoBanner bool
}

func newRootCmd() *cobra.Command {
	f := &Flags{}

	cmd := &cobra.Command{
		Use:   "dnscan <host> <wordlist>",
		Short: "DNS security testing tool",
		Long: `dnscan - DNS security testing tool.

Attempts zone transfers against the nameservers of a host, then probes
wordlist-derived names for address records, CNAMEs that may allow a takeover
and a configurable set of record types.`,
		Example: `  dnscan example.com words.txt
  dnscan example.com words.txt --scan recon --flags A,MX,TXT
  dnscan example.com words.txt --threads 10 --profile stealth -o findings.json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args[0], args[1])
		},
	}

	fl := cmd.Flags()
	fl.IntVar(&f.Threads, "threads", config.DefaultThreads, "Number of concurrent workers per scan")
	fl.StringVar(&f.Scan, "scan", string(config.ModeAll), "Type of scan to perform (subdomain, takeover, recon, all)")
	fl.StringSliceVar(&f.Types, "flags", []string{config.AllSentinel}, "Record types queried by the recon scan: ALL, a comma list (A,MX,TXT) or a repeated flag")
	fl.BoolVar(&f.Wildcard, "wildcard", false, "Probe for wildcard DNS before the subdomain scan")

	fl.StringSliceVar(&f.Resolvers, "resolvers", nil, "Upstream DNS servers (default: system resolvers)")
	fl.IntVar(&f.Timeout, "timeout", config.DefaultTimeout, "Per-query timeout in seconds")
	fl.IntVar(&f.Rate, "rate", 0, "Queries per second (0 = unlimited)")

	fl.StringVarP(&f.Config, "config", "c", "", "Configuration file path")
	fl.StringVarP(&f.Output, "output", "o", "", "Stream findings to this file (- for stdout)")
	fl.StringVarP(&f.Format, "format", "f", output.FormatJSON, "Findings file format (json, csv)")

	fl.StringVar(&f.Profile, "profile", "", "Rate limit profile (stealth, normal, aggressive)")
	fl.BoolVarP(&f.Verbose, "verbose", "v", false, "Enable debug logging")
	fl.BoolVar(&f.NoColor, "no-color", false, "Disable coloured output")
	fl.BoolVar(&f.NoBanner, "no-banner", false, "Do not print the banner")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefault()
			if err != nil {
				return fmt.Errorf("failed to create default config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to: %s\n", path)
			return nil
		},
	}
}

// loadConfig reads the config file, applies the profile and then the flags
// the user set explicitly.
func loadConfig(cmd *cobra.Command, f *Flags, host string) (*config.Config, error) {
	cfg, err := config.Load(f.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyProfile(f.Profile); err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("threads") {
		cfg.Scan.Threads = f.Threads
	}
	if changed("scan") {
		cfg.Scan.Mode = f.Scan
	}
	if changed("flags") {
		cfg.Scan.RecordTypes = f.Types
	}
	if changed("wildcard") {
		cfg.Scan.WildcardCheck = f.Wildcard
	}
	if changed("resolvers") {
		cfg.Resolvers.Servers = f.Resolvers
	}
	if changed("timeout") {
		cfg.Resolvers.Timeout = f.Timeout
	}
	if changed("rate") {
		cfg.RateLimit.Global = f.Rate
	}
	if changed("output") {
		cfg.Output.File = f.Output
	}
	if changed("format") {
		cfg.Output.Format = f.Format
	}

	cfg.Target.Domain = host
	cfg.Verbose = f.Verbose
	cfg.NoColor = f.NoColor
	return cfg, nil
}

// buildScan turns the merged configuration into the immutable scan settings.
func buildScan(cfg *config.Config, words []string) (*config.Scan, error) {
	mode, err := config.ParseMode(cfg.Scan.Mode)
	if err != nil {
		return nil, err
	}
	selector, err := config.ParseSelector(cfg.Scan.RecordTypes)
	if err != nil {
		return nil, err
	}
	s, err := config.NewScan(cfg.Target.Domain, words, cfg.Scan.Threads, mode, selector)
	if err != nil {
		return nil, err
	}
	return s.WithWildcardCheck(cfg.Scan.WildcardCheck), nil
}

func run(cmd *cobra.Command, f *Flags, host, wordlistPath string) error {
	cfg, err := loadConfig(cmd, f, host)
	if err != nil {
		return err
	}
	if cfg.NoColor {
		color.NoColor = true
	}

	out := cmd.OutOrStdout()
	log := report.New(out, cfg.Verbose)
	scanID := uuid.NewString()

	if !f.NoBanner {
		printBanner(out, scanID)
	}

	words, err := wordlist.Load(wordlistPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Error("Wordlist file '%s' not found.", wordlistPath)
		} else {
			log.Error("%v", err)
		}
		return errAborted
	}
	log.Info("Wordlist opened successfully.")

	settings, err := buildScan(cfg, words)
	if err != nil {
		return err
	}
	log.Debug("Scan %s: mode=%s threads=%d types=%s entries=%d",
		scanID, settings.Mode(), settings.Threads(), settings.Selector(), len(words))
	if domain, ok := settings.RegisteredDomain(); ok {
		log.Debug("Registered domain of %s is %s", settings.Host(), domain)
	} else {
		log.Debug("%s is a public suffix or has no known suffix", settings.Host())
	}

	if cfg.Output.File != "" {
		w, err := output.Create(cfg.Output.File, strings.ToLower(cfg.Output.Format), scanID, settings.Host())
		if err != nil {
			return err
		}
		defer closeOutput(w, log)
		log.AddWriter(w)
	}

	resolver := dns.New(cfg)
	log.Debug("Using resolvers: %s", strings.Join(resolver.Servers(), ", "))

	sum := summary.New(scanID, settings.Host())
	scanner := scan.New(settings, resolver, log, sum)
	if err := scanner.Run(cmd.Context()); err != nil {
		if errors.Is(err, context.Canceled) {
			return errAborted
		}
		return err
	}
	sum.Print(log)
	return nil
}

func closeOutput(c io.Closer, log report.Sink) {
	if err := c.Close(); err != nil {
		log.Error("Failed to close output file: %v", err)
	}
}
