package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pavlin-policar/youtube-playlist/internal/report"
)

func newCheckCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check PLAYLIST",
		Short: "Print what a sync would change.",
		Args:  cobra.ExactArgs(1),

		ValidArgsFunction: opts.completePlaylistNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.openPlaylist(cmd, args[0])
			if err != nil {
				return err
			}
			return report.Check(cmd.OutOrStdout(), p.Name, p.Uploader, p)
		},
	}
}

func newNeedsSyncCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "needs-sync PLAYLIST",
		Short: "Print the number of songs a sync would download or delete.",
		Args:  cobra.ExactArgs(1),

		ValidArgsFunction: opts.completePlaylistNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.openPlaylist(cmd, args[0])
			if err != nil {
				return err
			}
			return report.NeedsSync(cmd.OutOrStdout(), p)
		},
	}
}

func newNeedsDownloadCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "needs-download PLAYLIST",
		Short: "Print the number of songs a sync would download.",
		Args:  cobra.ExactArgs(1),

		ValidArgsFunction: opts.completePlaylistNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.openPlaylist(cmd, args[0])
			if err != nil {
				return err
			}
			return report.NeedsDownload(cmd.OutOrStdout(), p)
		},
	}
}
