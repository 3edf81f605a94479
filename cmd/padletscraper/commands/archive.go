package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"padletscraper/internal/export"
	"padletscraper/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history [url]",
	Short: "List archived boards, or the snapshots of one board",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := storage.NewBadgerRepository(cfg.ArchivePath, logger)
		if err != nil {
			return err
		}
		defer repo.Close()

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			boards, err := repo.ListBoards(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, export.Boards(boards))
			return nil
		}

		snaps, err := repo.ListSnapshots(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(out, export.History(args[0], snaps))
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <url>",
	Short: "Export the latest archived snapshot of a board without a browser",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputPath != "" {
			if _, err := export.FormatForPath(outputPath); err != nil {
				return err
			}
		}
		repo, err := storage.NewBadgerRepository(cfg.ArchivePath, logger)
		if err != nil {
			return err
		}
		defer repo.Close()

		snap, err := repo.LatestSnapshot(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), &snap.Padlet)
	},
}

var forgetCmd = &cobra.Command{
	Use:   "forget <url>",
	Short: "Delete every archived snapshot of a board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := storage.NewBadgerRepository(cfg.ArchivePath, logger)
		if err != nil {
			return err
		}
		defer repo.Close()
		return repo.DeleteSnapshots(cmd.Context(), args[0])
	},
}

func init() {
	showCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (extension determines format: .json or .md)")
	showCmd.Flags().StringVar(&format, "format", "", "Output format when printing to stdout: json or markdown")

	rootCmd.AddCommand(historyCmd, showCmd, forgetCmd)
}
