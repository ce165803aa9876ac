package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync PLAYLIST",
		Short: "Download new songs and delete songs removed from the playlist.",
		Args:  cobra.ExactArgs(1),

		ValidArgsFunction: opts.completePlaylistNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.openPlaylist(cmd, args[0])
			if err != nil {
				return err
			}

			summary, err := p.Sync(cmd.Context())
			if err != nil {
				return err
			}
			if !summary.Changed() {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to do.")
			}
			return nil
		},
	}
}

func newRemoveUntrackedCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-untracked PLAYLIST",
		Short: "Delete audio files in the playlist directory that are not tracked.",
		Args:  cobra.ExactArgs(1),

		ValidArgsFunction: opts.completePlaylistNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.openPlaylist(cmd, args[0])
			if err != nil {
				return err
			}

			_, err = p.RemoveUntracked(cmd.Context())
			return err
		},
	}
}
