package downloader

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scx/internal/archive"
	"github.com/desertthunder/scx/internal/shared"
	"github.com/desertthunder/scx/internal/soundcloud"
	"github.com/desertthunder/scx/internal/tag"
	"golang.org/x/sync/errgroup"
)

// TrackPager pages through a remote collection of tracks.
type TrackPager interface {
	Next(ctx context.Context) ([]soundcloud.Track, error)
	Done() bool
}

// API is the engine's view of the remote service. [soundcloud.Client]
// satisfies it through [clientAPI].
type API interface {
	ResolveTrack(ctx context.Context, reference string) (*soundcloud.Track, error)
	ResolvePlaylist(ctx context.Context, reference string) (*soundcloud.Playlist, error)
	ResolveUser(ctx context.Context, reference string) (*soundcloud.User, error)
	Track(ctx context.Context, id int64, secretToken string) (*soundcloud.Track, error)
	StreamURL(ctx context.Context, t soundcloud.Transcoding) (string, error)
	DownloadURL(ctx context.Context, id int64, secretToken string) (string, error)
	UserTracks(u *soundcloud.User) TrackPager
	UserLikes(u *soundcloud.User) TrackPager
	UserReposts(u *soundcloud.User) TrackPager
	DownloadFile(ctx context.Context, url, dest string) (http.Header, error)
	Fetch(ctx context.Context, url string) ([]byte, error)
	Probe(ctx context.Context, url string) (int, error)
}

// clientAPI adapts the concrete pager returns of [soundcloud.Client] to [API].
type clientAPI struct{ *soundcloud.Client }

func (c clientAPI) UserTracks(u *soundcloud.User) TrackPager  { return c.Client.UserTracks(u) }
func (c clientAPI) UserLikes(u *soundcloud.User) TrackPager   { return c.Client.UserLikes(u) }
func (c clientAPI) UserReposts(u *soundcloud.User) TrackPager { return c.Client.UserReposts(u) }

// Store is the subset of the download archive the engine consults.
type Store interface {
	Contains(trackID int64) (bool, error)
	Record(e archive.Entry) error
}

// Options control retrieval behavior. Zero concurrency values fall back to
// the defaults (2 tracks, 8 segments).
type Options struct {
	Directory        string
	PreferOpus       bool
	LowQuality       bool
	DownloadOriginal bool
	ProcessOriginal  bool
	CompressionLevel int

	TrackConcurrency   int
	SegmentConcurrency int

	// Force retrieves tracks the archive already records.
	Force bool

	// ScratchDir overrides the OS temp directory for intermediate files.
	ScratchDir string
}

func (o Options) withDefaults() Options {
	if o.TrackConcurrency <= 0 {
		o.TrackConcurrency = 2
	}
	if o.SegmentConcurrency <= 0 {
		o.SegmentConcurrency = 8
	}
	return o
}

// Outcome is the per-item result reported back to the orchestrator.
type Outcome struct {
	Title   string
	Artist  string
	Path    string
	Format  string
	Skipped bool
	Err     error
}

// Engine drives retrieval for classified references: single tracks, numbered
// sets, and paginated user collections.
type Engine struct {
	api    API
	trans  Transcoder
	tagger tag.Writer
	store  Store
	logger *log.Logger
	opts   Options

	// OnOutcome receives one call per finished item. It runs on worker
	// goroutines and must be safe for concurrent use.
	OnOutcome func(Outcome)
}

// NewEngine wires an engine to a connected client. store may be nil when the
// download archive is disabled.
func NewEngine(client *soundcloud.Client, trans Transcoder, tagger tag.Writer, store Store, logger *log.Logger, opts Options) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{
		api:    clientAPI{client},
		trans:  trans,
		tagger: tagger,
		store:  store,
		logger: logger,
		opts:   opts.withDefaults(),
	}
}

func (e *Engine) policy() Policy {
	return Policy{
		LowQuality:    e.opts.LowQuality,
		PreferOpus:    e.opts.PreferOpus,
		AllowOriginal: e.opts.DownloadOriginal,
	}
}

func (e *Engine) emit(out Outcome) {
	if e.OnOutcome != nil {
		e.OnOutcome(out)
	}
}

// Run retrieves everything a classified reference names. Per-track failures
// are reported as outcomes; the returned error covers the reference itself
// (resolution failures, unusable directories).
func (e *Engine) Run(ctx context.Context, kind soundcloud.Kind, reference string) error {
	switch kind {
	case soundcloud.KindTrack:
		track, err := e.api.ResolveTrack(ctx, reference)
		if err != nil {
			return err
		}
		e.emit(e.downloadTrack(ctx, track, e.opts.Directory, itemInfo{}))
		return nil
	case soundcloud.KindPlaylist:
		playlist, err := e.api.ResolvePlaylist(ctx, reference)
		if err != nil {
			return err
		}
		return e.downloadPlaylist(ctx, playlist)
	case soundcloud.KindUser:
		user, err := e.api.ResolveUser(ctx, soundcloud.UserRoot(reference))
		if err != nil {
			return err
		}
		return e.downloadCollection(ctx, e.api.UserTracks(user), user.Username)
	case soundcloud.KindUserLikes:
		user, err := e.api.ResolveUser(ctx, soundcloud.UserRoot(reference))
		if err != nil {
			return err
		}
		return e.downloadCollection(ctx, e.api.UserLikes(user), user.Username+" - likes")
	case soundcloud.KindUserReposts:
		user, err := e.api.ResolveUser(ctx, soundcloud.UserRoot(reference))
		if err != nil {
			return err
		}
		return e.downloadCollection(ctx, e.api.UserReposts(user), user.Username+" - reposts")
	default:
		return fmt.Errorf("%w: %s", shared.ErrUnknownReference, reference)
	}
}

// itemInfo carries set-membership context into a single track download.
type itemInfo struct {
	album       string
	albumArtist string
	index       int
	total       int
	secret      string
}

// prefix returns the zero-padded ordering prefix for set members.
func (it itemInfo) prefix() string {
	if it.index <= 0 {
		return ""
	}
	width := len(strconv.Itoa(it.total))
	return fmt.Sprintf("%0*d - ", width, it.index)
}

func (e *Engine) downloadPlaylist(ctx context.Context, playlist *soundcloud.Playlist) error {
	name := shared.SanitizeFilename(playlist.User.Username + " - " + playlist.Title)
	dir := shared.UniquePath(filepath.Join(e.opts.Directory, name), false)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	g := new(errgroup.Group)
	g.SetLimit(e.opts.TrackConcurrency)

	artwork := playlist.ArtworkURL
	if artwork == "" && len(playlist.Tracks) > 0 {
		artwork = playlist.Tracks[0].ArtworkURL
	}
	if artwork != "" {
		g.Go(func() error {
			if err := e.downloadCoverFile(ctx, artwork, dir); err != nil {
				e.logger.Warn("cover download failed", "playlist", playlist.Title, "error", err)
			}
			return nil
		})
	}

	total := len(playlist.Tracks)
	for i := range playlist.Tracks {
		track := playlist.Tracks[i]
		info := itemInfo{
			album:       playlist.Title,
			albumArtist: playlist.User.Username,
			index:       i + 1,
			total:       total,
			secret:      playlist.SecretToken,
		}
		g.Go(func() error {
			e.emit(e.downloadTrack(ctx, &track, dir, info))
			return nil
		})
	}
	return g.Wait()
}

// downloadCollection drains a pager page by page, feeding each track into the
// bounded pool. Pages are fetched sequentially; a page fetch failure stops
// admission but lets in-flight tracks finish.
func (e *Engine) downloadCollection(ctx context.Context, pager TrackPager, name string) error {
	dir := shared.UniquePath(filepath.Join(e.opts.Directory, shared.SanitizeFilename(name)), false)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	g := new(errgroup.Group)
	g.SetLimit(e.opts.TrackConcurrency)

	for !pager.Done() {
		page, err := pager.Next(ctx)
		if err != nil {
			g.Wait()
			return err
		}
		for i := range page {
			track := page[i]
			g.Go(func() error {
				e.emit(e.downloadTrack(ctx, &track, dir, itemInfo{}))
				return nil
			})
		}
	}
	return g.Wait()
}

func (e *Engine) downloadTrack(ctx context.Context, track *soundcloud.Track, dir string, info itemInfo) Outcome {
	out := Outcome{Title: track.Title, Artist: track.User.Username}

	if e.store != nil && !e.opts.Force {
		archived, err := e.store.Contains(track.ID)
		if err != nil {
			out.Err = err
			return out
		}
		if archived {
			out.Skipped = true
			out.Format = "archived"
			return out
		}
	}

	secret := track.SecretToken
	if secret == "" {
		secret = info.secret
	}

	if track.Thin() {
		full, err := e.api.Track(ctx, track.ID, secret)
		if err != nil {
			out.Err = err
			return out
		}
		track = full
		out.Title, out.Artist = track.Title, track.User.Username
	}

	plan, err := Select(track, e.policy())
	if err != nil {
		out.Err = err
		return out
	}

	result, err := e.retrieve(ctx, track, secret, plan)
	if err != nil {
		out.Err = err
		return out
	}
	out.Format = result.format

	if result.taggable && e.tagger != nil {
		if err := e.tagger.Write(ctx, result.path, e.metadata(ctx, track, info)); err != nil {
			os.Remove(result.path)
			out.Err = err
			return out
		}
	}

	name := info.prefix() + shared.SanitizeFilename(track.Title) + "." + result.ext
	final := shared.UniquePath(filepath.Join(dir, name), true)
	if err := shared.MoveFile(result.path, final); err != nil {
		os.Remove(result.path)
		out.Err = err
		return out
	}
	out.Path = final

	if e.store != nil {
		entry := archive.Entry{
			TrackID: track.ID,
			Title:   track.Title,
			Artist:  track.User.Username,
			Path:    final,
			Format:  result.ext,
		}
		if err := e.store.Record(entry); err != nil {
			e.logger.Warn("failed to record archive entry", "track", track.ID, "error", err)
		}
	}
	return out
}

// metadata assembles the tag payload for a finished file. Cover art is
// best-effort; a miss leaves the cover fields empty.
func (e *Engine) metadata(ctx context.Context, track *soundcloud.Track, info itemInfo) tag.Metadata {
	meta := tag.Metadata{
		Title:       track.Title,
		Artist:      track.User.Username,
		Album:       track.Title,
		AlbumArtist: track.User.Username,
		Date:        track.Date(),
		Genre:       track.Genre,
		Comment:     track.Description,
		URL:         track.PermalinkURL,
	}
	if info.album != "" {
		meta.Album = info.album
		meta.AlbumArtist = info.albumArtist
		meta.TrackNumber = info.index
		meta.TrackTotal = info.total
	}

	if track.ArtworkURL != "" {
		coverURL, ext, err := resolveCoverURL(ctx, e.api, track.ArtworkURL)
		if err != nil {
			e.logger.Debug("no full-size artwork", "track", track.ID, "error", err)
			return meta
		}
		data, err := e.api.Fetch(ctx, coverURL)
		if err != nil {
			e.logger.Debug("artwork fetch failed", "track", track.ID, "error", err)
			return meta
		}
		meta.Cover = data
		meta.CoverMIME = coverMIME(ext)
	}
	return meta
}

// downloadCoverFile places a playlist's full-size artwork next to its tracks.
func (e *Engine) downloadCoverFile(ctx context.Context, artworkURL, dir string) error {
	coverURL, ext, err := resolveCoverURL(ctx, e.api, artworkURL)
	if err != nil {
		return err
	}
	_, err = e.api.DownloadFile(ctx, coverURL, filepath.Join(dir, "cover."+ext))
	return err
}
