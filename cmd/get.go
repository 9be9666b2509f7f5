package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/scx/internal/archive"
	"github.com/desertthunder/scx/internal/downloader"
	"github.com/desertthunder/scx/internal/shared"
	"github.com/desertthunder/scx/internal/soundcloud"
	"github.com/desertthunder/scx/internal/tag"
	"github.com/urfave/cli/v3"
)

var exclusiveGetFlags = [][2]string{
	{"prefer-opus", "prefer-mp3"},
	{"high-quality", "low-quality"},
	{"download-original", "no-download-original"},
	{"process-original", "no-process-original"},
}

// validateGetFlags rejects contradictory or out-of-range flags before any
// network or filesystem work happens.
func validateGetFlags(cmd *cli.Command) error {
	for _, pair := range exclusiveGetFlags {
		if cmd.IsSet(pair[0]) && cmd.IsSet(pair[1]) {
			return fmt.Errorf("%w: --%s and --%s are mutually exclusive", shared.ErrInvalidFlag, pair[0], pair[1])
		}
	}

	if cmd.IsSet("compression-level") {
		if level := cmd.Int("compression-level"); level < 0 || level > 12 {
			return fmt.Errorf("%w: compression level %d outside 0-12", shared.ErrInvalidFlag, level)
		}
	}
	return nil
}

// applyGetFlags layers explicit CLI flags over the loaded configuration.
func applyGetFlags(cmd *cli.Command, cfg *shared.Config) {
	if cmd.IsSet("directory") {
		cfg.Download.Directory = cmd.String("directory")
	}
	if cmd.IsSet("token") {
		cfg.Download.OAuthToken = cmd.String("token")
	}
	if cmd.Bool("prefer-opus") {
		cfg.Download.PreferOpus = true
	}
	if cmd.Bool("prefer-mp3") {
		cfg.Download.PreferOpus = false
	}
	if cmd.Bool("high-quality") {
		cfg.Download.LowQuality = false
	}
	if cmd.Bool("low-quality") {
		cfg.Download.LowQuality = true
	}
	if cmd.Bool("download-original") {
		cfg.Download.DownloadOriginal = true
	}
	if cmd.Bool("no-download-original") {
		cfg.Download.DownloadOriginal = false
	}
	if cmd.Bool("process-original") {
		cfg.Download.ProcessOriginal = true
	}
	if cmd.Bool("no-process-original") {
		cfg.Download.ProcessOriginal = false
	}
	if cmd.IsSet("compression-level") {
		cfg.Download.CompressionLevel = int(cmd.Int("compression-level"))
	}
	if cmd.IsSet("concurrency") {
		cfg.Download.Concurrency = int(cmd.Int("concurrency"))
	}
}

// Get downloads every reference given on the command line. Unresolvable
// references are reported and skipped; only environment and credential
// problems fail the command.
func (r *Runner) Get(ctx context.Context, cmd *cli.Command) error {
	if err := validateGetFlags(cmd); err != nil {
		return err
	}

	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	applyGetFlags(cmd, cfg)

	references := cmd.Args().Slice()
	if len(references) == 0 {
		return fmt.Errorf("%w: no references given", shared.ErrInvalidFlag)
	}

	transcoder, err := downloader.NewFFmpeg()
	if err != nil {
		return err
	}

	client := soundcloud.NewClient(soundcloud.ClientOpts{
		Logger:     r.logger,
		OAuthToken: cfg.Download.OAuthToken,
	})
	if err := client.Connect(ctx); err != nil {
		return err
	}

	var store downloader.Store
	if cfg.Archive.Enabled {
		arch, err := archive.Open(cfg.Archive.Path)
		if err != nil {
			return err
		}
		defer arch.Close()
		store = arch
	}

	engine := downloader.NewEngine(client, transcoder, tag.NewFileTagger(transcoder), store, r.logger, downloader.Options{
		Directory:        cfg.Download.Directory,
		PreferOpus:       cfg.Download.PreferOpus,
		LowQuality:       cfg.Download.LowQuality,
		DownloadOriginal: cfg.Download.DownloadOriginal,
		ProcessOriginal:  cfg.Download.ProcessOriginal,
		CompressionLevel: cfg.Download.CompressionLevel,
		TrackConcurrency: cfg.Download.Concurrency,
		Force:            cmd.Bool("force"),
	})
	engine.OnOutcome = r.printOutcome

	locator := soundcloud.NewLocator(client.HTTPClient())
	for _, reference := range references {
		kind, normalized, err := locator.Classify(ctx, reference)
		if err != nil {
			r.printReferenceError(reference, err)
			continue
		}
		if err := engine.Run(ctx, kind, normalized); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.printReferenceError(normalized, err)
		}
	}
	return nil
}
