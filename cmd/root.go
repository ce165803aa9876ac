// Package cmd implements the youtube-playlist command line interface.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pavlin-policar/youtube-playlist/config"
	"github.com/pavlin-policar/youtube-playlist/internal/downloader"
	"github.com/pavlin-policar/youtube-playlist/internal/notify"
	"github.com/pavlin-policar/youtube-playlist/internal/playlist"
	"github.com/pavlin-policar/youtube-playlist/internal/progress"
	"github.com/pavlin-policar/youtube-playlist/internal/storage"
)

// options are the flags shared by every command.
type options struct {
	dir        string
	logLevel   string
	configPath string
}

// Execute runs the CLI until it finishes or is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand creates the `youtube-playlist` command with all actions.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "youtube-playlist",
		Short: "Keep a local music directory in sync with a YouTube playlist.",
		Long: "Keep a local music directory in sync with a YouTube playlist.\n" +
			"Playlists are referred to by the names configured in youtube-playlist.yaml.",
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.dir, "dir", "", "directory containing the playlist directories (default from config)")
	flags.StringVar(&opts.logLevel, "log", "", "log level: debug, info, warn or error (default from config)")
	flags.StringVar(&opts.configPath, "config", "", "read configuration from this file only")

	rootCmd.AddCommand(
		newSyncCommand(opts),
		newCheckCommand(opts),
		newRemoveUntrackedCommand(opts),
		newNeedsSyncCommand(opts),
		newNeedsDownloadCommand(opts),
	)
	return rootCmd
}

func (o *options) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.Load(o.configPath)
	}
	return config.LoadFiles(config.SearchPaths()...)
}

// setupLogging installs the default logger at the level from the flag or
// the config.
func (o *options) setupLogging(cmd *cobra.Command, cfg *config.Config) error {
	level, err := cfg.Level()
	if o.logLevel != "" {
		level, err = config.ParseLevel(o.logLevel)
	}
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// rootDirectory resolves the directory holding the playlist directories.
func (o *options) rootDirectory(fs afero.Fs, cfg *config.Config) (string, error) {
	dir := o.dir
	if dir == "" {
		dir = cfg.Directory
	}

	expanded, err := homedir.Expand(dir)
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", dir, err)
	}

	isDir, err := afero.IsDir(fs, expanded)
	if err != nil || !isDir {
		return "", fmt.Errorf("%s is not a directory", expanded)
	}
	return expanded, nil
}

// openPlaylist loads the configuration and builds the named playlist.
func (o *options) openPlaylist(cmd *cobra.Command, name string) (*playlist.Playlist, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := o.setupLogging(cmd, cfg); err != nil {
		return nil, err
	}

	id, err := cfg.PlaylistID(name)
	if err != nil {
		return nil, err
	}

	fs := afero.NewOsFs()
	root, err := o.rootDirectory(fs, cfg)
	if err != nil {
		return nil, err
	}

	dl, err := downloader.NewDownloader(cfg)
	if err != nil {
		return nil, err
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.NotificationsEnabled() {
		notifier = notify.NewDesktop()
	}

	console := progress.NewConsole(nil)
	deps := playlist.Dependencies{
		Downloader: dl,
		Storage:    storage.NewLocalFileStorage(fs),
		Notifier:   notifier,
		Progress:   progress.NewProgressTracker(console.Listener()),
		Logger:     slog.Default(),
	}

	slog.Debug("resolving playlist", "name", name, "id", id, "directory", root)
	return playlist.FromID(cmd.Context(), id, root, deps)
}

// completePlaylistNames suggests the configured playlist names.
func (o *options) completePlaylistNames(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return cfg.PlaylistNames(), cobra.ShellCompDirectiveNoFileComp
}
