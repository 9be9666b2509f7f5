package main

import (
	"context"

	"github.com/desertthunder/scx/internal/archive"
	"github.com/urfave/cli/v3"
)

// ArchiveList prints every archived download, most recent first.
func (r *Runner) ArchiveList(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	arch, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		return err
	}
	defer arch.Close()

	entries, err := arch.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return r.writePlain("archive is empty\n")
	}

	for _, e := range entries {
		if err := r.writePlain("%d\t%s - %s\t%s\t%s\n", e.TrackID, e.Artist, e.Title, e.Format, e.Path); err != nil {
			return err
		}
	}
	return nil
}

// ArchivePrune drops records whose files no longer exist on disk.
func (r *Runner) ArchivePrune(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	arch, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		return err
	}
	defer arch.Close()

	removed, err := arch.Prune()
	if err != nil {
		return err
	}
	return r.writePlain("pruned %d record(s)\n", removed)
}
