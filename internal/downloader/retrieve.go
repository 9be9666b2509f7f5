package downloader

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/desertthunder/scx/internal/shared"
	"github.com/desertthunder/scx/internal/soundcloud"
	"golang.org/x/sync/errgroup"
)

var segmentURLPattern = regexp.MustCompile(`https://[^"\n]+`)

// retrieval is the finished scratch artifact of one protocol: a local file
// ready for tagging (when taggable) and placement.
type retrieval struct {
	path     string
	ext      string
	format   string
	taggable bool
}

func (e *Engine) retrieve(ctx context.Context, track *soundcloud.Track, secret string, plan Plan) (retrieval, error) {
	switch plan.Protocol {
	case ProtocolOriginal:
		return e.retrieveOriginal(ctx, track, secret)
	case ProtocolSegmented:
		return e.retrieveSegmented(ctx, plan)
	default:
		return e.retrieveProgressive(ctx, plan)
	}
}

func (e *Engine) retrieveProgressive(ctx context.Context, plan Plan) (retrieval, error) {
	signed, err := e.api.StreamURL(ctx, plan.Transcoding)
	if err != nil {
		return retrieval{}, err
	}

	raw := shared.TempPath(e.opts.ScratchDir, "scx-", "")
	if _, err := e.api.DownloadFile(ctx, signed, raw); err != nil {
		return retrieval{}, err
	}
	defer os.Remove(raw)

	out := shared.TempPath(e.opts.ScratchDir, "scx-", "."+plan.Ext)
	if err := e.trans.Copy(ctx, raw, out, false); err != nil {
		os.Remove(out)
		return retrieval{}, err
	}
	return retrieval{path: out, ext: plan.Ext, format: plan.Family, taggable: true}, nil
}

func (e *Engine) retrieveSegmented(ctx context.Context, plan Plan) (retrieval, error) {
	signed, err := e.api.StreamURL(ctx, plan.Transcoding)
	if err != nil {
		return retrieval{}, err
	}

	manifest, err := e.api.Fetch(ctx, signed)
	if err != nil {
		return retrieval{}, err
	}

	urls := segmentURLs(manifest)
	if len(urls) == 0 {
		return retrieval{}, fmt.Errorf("%w: empty segment manifest", shared.ErrAPIRequest)
	}

	paths := make([]string, len(urls))
	for i := range paths {
		paths[i] = shared.TempPath(e.opts.ScratchDir, "scx-seg-", "")
	}
	defer func() {
		for _, p := range paths {
			os.Remove(p)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.SegmentConcurrency)
	for i := range urls {
		i := i
		g.Go(func() error {
			_, err := e.api.DownloadFile(gctx, urls[i], paths[i])
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return retrieval{}, err
	}

	// Concatenation follows manifest order regardless of completion order.
	out := shared.TempPath(e.opts.ScratchDir, "scx-", "."+plan.Ext)
	if err := e.trans.Concat(ctx, paths, out); err != nil {
		os.Remove(out)
		return retrieval{}, err
	}
	return retrieval{path: out, ext: plan.Ext, format: plan.Family, taggable: true}, nil
}

func (e *Engine) retrieveOriginal(ctx context.Context, track *soundcloud.Track, secret string) (retrieval, error) {
	downloadURL, err := e.api.DownloadURL(ctx, track.ID, secret)
	if err != nil {
		return retrieval{}, err
	}

	raw := shared.TempPath(e.opts.ScratchDir, "scx-", "")
	headers, err := e.api.DownloadFile(ctx, downloadURL, raw)
	if err != nil {
		return retrieval{}, err
	}

	fileType := headers.Get("x-amz-meta-file-type")
	if fileType == "" {
		fileType = "bin"
	}

	if !e.opts.ProcessOriginal {
		return retrieval{path: raw, ext: fileType, format: "direct-dl " + fileType, taggable: false}, nil
	}

	codec, err := e.trans.Probe(ctx, raw)
	if err != nil {
		os.Remove(raw)
		return retrieval{}, err
	}

	switch {
	case IsLossless(codec):
		out := shared.TempPath(e.opts.ScratchDir, "scx-", ".flac")
		err := e.trans.EncodeFLAC(ctx, raw, out, e.opts.CompressionLevel)
		os.Remove(raw)
		if err != nil {
			os.Remove(out)
			return retrieval{}, err
		}
		return retrieval{path: out, ext: "flac", format: "orig->flac", taggable: true}, nil
	case containerExt[codec] != "":
		ext := containerExt[codec]
		out := shared.TempPath(e.opts.ScratchDir, "scx-", "."+ext)
		err := e.trans.Copy(ctx, raw, out, true)
		os.Remove(raw)
		if err != nil {
			os.Remove(out)
			return retrieval{}, err
		}
		return retrieval{path: out, ext: ext, format: "direct-dl " + codec, taggable: true}, nil
	default:
		// Unrecognized lossy upload; keep the original bytes untouched.
		return retrieval{path: raw, ext: fileType, format: "direct-dl " + fileType, taggable: false}, nil
	}
}

// segmentURLs extracts segment locations from an hls manifest, in order.
func segmentURLs(manifest []byte) []string {
	return segmentURLPattern.FindAllString(string(manifest), -1)
}
