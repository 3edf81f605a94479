package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"padletscraper/internal/browser"
	"padletscraper/internal/config"
	"padletscraper/internal/domain"
	"padletscraper/internal/export"
	"padletscraper/internal/scraper"
	"padletscraper/internal/storage"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitInterrupted = 130
)

var (
	v      = viper.New()
	cfg    config.Config
	logger *logrus.Logger

	configDir  string
	outputPath string
	format     string
)

var rootCmd = &cobra.Command{
	Use:   "padletscraper <url>",
	Short: "Scrape Padlet boards and export to JSON or Markdown",
	Example: `  # Scrape and save to JSON (headless by default)
  padletscraper https://padlet.com/user/board -o output.json

  # Scrape and save to Markdown
  padletscraper https://padlet.com/user/board -o output.md

  # Show browser window (for debugging)
  padletscraper https://padlet.com/user/board --no-headless -o output.json

  # Print JSON to stdout
  padletscraper https://padlet.com/user/board --format json`,
	Args:              cobra.ExactArgs(1),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	RunE:              runScrape,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configDir, "config", "./configs", "Directory containing config.yaml")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-format", "", "Log format (text or json)")
	pf.String("archive-path", "", "Directory of the snapshot archive")
	pf.Bool("archive", false, "Store scraped boards in the snapshot archive")

	f := rootCmd.Flags()
	f.StringVarP(&outputPath, "output", "o", "", "Output file path (extension determines format: .json or .md)")
	f.StringVar(&format, "format", "", "Output format when printing to stdout: json or markdown")
	f.Bool("no-headless", false, "Show browser window (default is headless mode)")
	f.Bool("no-sandbox", false, "Disable browser sandbox (may be needed on some systems)")
	f.String("browser", "", "Path to browser executable (Chrome, Chromium, etc.)")
	f.Int("timeout", 30, "Timeout in seconds for page elements")

	mustBind("log_level", pf, "log-level")
	mustBind("log_format", pf, "log-format")
	mustBind("archive_path", pf, "archive-path")
	mustBind("browser_path", f, "browser")
	mustBind("archive", pf, "archive")
}

// ExecuteContext runs the CLI and maps the outcome to an exit code.
func ExecuteContext(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "\nCancelled by user")
		return ExitInterrupted
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return ExitError
}

// loadConfig merges the config file, environment and flags, then builds the logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("no-headless") {
		v.Set("headless", false)
	}
	if flags.Changed("no-sandbox") {
		v.Set("sandbox", false)
	}
	if flags.Changed("timeout") {
		secs, err := flags.GetInt("timeout")
		if err != nil {
			return err
		}
		v.Set("element_wait_timeout", time.Duration(secs)*time.Second)
	}

	var err error
	cfg, err = config.LoadConfig(v, configDir)
	if err != nil {
		return err
	}
	logger, err = newLogger(cfg, cmd.ErrOrStderr())
	return err
}

func mustBind(key string, fs *pflag.FlagSet, name string) {
	if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", name, err))
	}
}

func newLogger(cfg config.Config, out io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(out)
	if cfg.LogFormat == config.LogFormatJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)
	return log, nil
}

func runScrape(cmd *cobra.Command, args []string) error {
	url := args[0]

	// Reject bad output settings before starting a browser.
	if outputPath != "" {
		if _, err := export.FormatForPath(outputPath); err != nil {
			return err
		}
	}
	if format != "" && format != export.FormatJSON && format != export.FormatMarkdown {
		return fmt.Errorf("%w: --format must be %q or %q", export.ErrUnsupportedFormat, export.FormatJSON, export.FormatMarkdown)
	}

	s := scraper.NewPadletScraper(cfg, browser.NewRodLauncher(logger), logger)

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "Scraping %s...\n", url)
	padlet, err := s.Scrape(cmd.Context(), url)
	if err != nil {
		return err
	}
	fmt.Fprintf(stderr, "✓ Scraped %d sections, %d posts\n", len(padlet.Sections), padlet.TotalPosts())

	if cfg.Archive {
		if err := archive(cmd.Context(), padlet); err != nil {
			logger.WithError(err).Warn("Failed to archive snapshot")
		}
	}

	return emit(cmd.OutOrStdout(), padlet)
}

// emit writes the board to --output, to stdout in --format, or prints a summary.
func emit(out io.Writer, padlet *domain.Padlet) error {
	switch {
	case outputPath != "":
		if err := export.Save(outputPath, padlet); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Saved to %s\n", outputPath)
		return nil
	case format != "":
		return export.Render(out, padlet, format)
	default:
		_, err := fmt.Fprintf(out, "\n%s", padlet.Summary())
		return err
	}
}

func archive(ctx context.Context, padlet *domain.Padlet) error {
	repo, err := storage.NewBadgerRepository(cfg.ArchivePath, logger)
	if err != nil {
		return err
	}
	defer repo.Close()
	return repo.SaveSnapshot(ctx, domain.Snapshot{URL: padlet.URL, ScrapedAt: time.Now(), Padlet: *padlet})
}
