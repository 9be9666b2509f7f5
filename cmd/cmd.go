// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "config",
		Usage: "Path to configuration file",
		Value: "config.toml",
	}
}

// getCommand downloads the references given as arguments.
func getCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Download tracks, sets, and user collections",
		ArgsUsage: "<url>...",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "directory",
				Aliases: []string{"o"},
				Usage:   "Output directory",
			},
			&cli.StringFlag{
				Name:    "token",
				Aliases: []string{"a"},
				Usage:   "Account OAuth token (enables go+ streams and original files)",
			},
			&cli.BoolFlag{
				Name:    "prefer-opus",
				Aliases: []string{"O"},
				Usage:   "Prefer opus streams over mp3",
			},
			&cli.BoolFlag{
				Name:    "prefer-mp3",
				Aliases: []string{"m"},
				Usage:   "Prefer mp3 streams over opus",
			},
			&cli.BoolFlag{
				Name:    "high-quality",
				Aliases: []string{"H"},
				Usage:   "Prefer the best available stream quality",
			},
			&cli.BoolFlag{
				Name:    "low-quality",
				Aliases: []string{"l"},
				Usage:   "Skip aac streams",
			},
			&cli.BoolFlag{
				Name:    "download-original",
				Aliases: []string{"d"},
				Usage:   "Download the uploader's original file when available",
			},
			&cli.BoolFlag{
				Name:    "no-download-original",
				Aliases: []string{"D"},
				Usage:   "Never download original files",
			},
			&cli.BoolFlag{
				Name:    "process-original",
				Aliases: []string{"p"},
				Usage:   "Probe original files and convert lossless uploads to flac",
			},
			&cli.BoolFlag{
				Name:    "no-process-original",
				Aliases: []string{"P"},
				Usage:   "Keep original files untouched",
			},
			&cli.IntFlag{
				Name:    "compression-level",
				Aliases: []string{"c"},
				Usage:   "flac compression level (0-12)",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Number of tracks downloaded in parallel",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Download tracks the archive already records",
			},
		},
		Action: r.Get,
	}
}

// archiveCommand inspects and maintains the download archive.
func archiveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "archive",
		Usage: "Inspect the download archive",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List archived downloads",
				Flags:  []cli.Flag{configFlag()},
				Action: r.ArchiveList,
			},
			{
				Name:   "prune",
				Usage:  "Drop records whose files no longer exist",
				Flags:  []cli.Flag{configFlag()},
				Action: r.ArchivePrune,
			},
		},
	}
}

// configCommand handles configuration file management.
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write the example configuration file",
				Flags:  []cli.Flag{configFlag()},
				Action: r.ConfigInit,
			},
		},
	}
}
