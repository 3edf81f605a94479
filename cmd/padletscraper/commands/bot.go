package commands

import (
	"github.com/spf13/cobra"

	"padletscraper/internal/bot"
	"padletscraper/internal/browser"
	"padletscraper/internal/scraper"
	"padletscraper/internal/storage"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run a Telegram bot that scrapes boards sent to it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateBot(); err != nil {
			return err
		}

		var repo storage.Repository
		if cfg.Archive {
			r, err := storage.NewBadgerRepository(cfg.ArchivePath, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := r.Close(); err != nil {
					logger.WithError(err).Error("Error closing archive")
				}
			}()
			repo = r
		}

		s := scraper.NewPadletScraper(cfg, browser.NewRodLauncher(logger), logger)
		h, err := bot.NewHandler(cfg, repo, s, logger)
		if err != nil {
			return err
		}

		// Blocks until interrupted.
		h.Start(cmd.Context())
		logger.Info("Bot shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(botCmd)
}
