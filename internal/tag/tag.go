// Package tag writes track metadata into finished audio files. MP3 files get
// native ID3v2 frames, MP4 containers get ilst atoms, and everything else is
// remuxed through the transcoder with container-level metadata.
package tag

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/desertthunder/scx/internal/shared"
	mp4tag "github.com/zhaarey/go-mp4tag"
)

// Metadata carries everything a finished file should be stamped with.
type Metadata struct {
	Title       string
	Album       string
	Artist      string
	AlbumArtist string
	Date        string
	Genre       string
	Comment     string
	URL         string

	// TrackNumber and TrackTotal are set for set members, zero otherwise.
	TrackNumber int
	TrackTotal  int

	Cover     []byte
	CoverMIME string
}

// Writer stamps metadata onto a finished file in place.
type Writer interface {
	Write(ctx context.Context, path string, meta Metadata) error
}

// Remuxer rewrites container-level metadata for formats without a native
// tagging library, producing a new file at dst.
type Remuxer interface {
	WriteMetadata(ctx context.Context, src, dst string, tags map[string]string) error
}

// FileTagger implements [Writer] by dispatching on the file extension.
type FileTagger struct {
	remux Remuxer
}

// NewFileTagger creates a FileTagger. The remuxer handles ogg, opus, and flac
// output.
func NewFileTagger(remux Remuxer) *FileTagger {
	return &FileTagger{remux: remux}
}

// Write stamps meta onto the file at path.
func (ft *FileTagger) Write(ctx context.Context, path string, meta Metadata) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return writeID3(path, meta)
	case ".m4a", ".mp4":
		return writeMP4(path, meta)
	default:
		return ft.remuxMetadata(ctx, path, meta)
	}
}

func writeID3(path string, meta Metadata) error {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open %s for tagging: %w", path, err)
	}
	defer t.Close()

	t.SetDefaultEncoding(id3v2.EncodingUTF8)
	t.SetTitle(meta.Title)
	t.SetArtist(meta.Artist)
	if meta.Album != "" {
		t.SetAlbum(meta.Album)
	}
	if meta.AlbumArtist != "" {
		t.AddTextFrame("TPE2", id3v2.EncodingUTF8, meta.AlbumArtist)
	}
	if meta.Genre != "" {
		t.SetGenre(meta.Genre)
	}
	if meta.Date != "" {
		t.AddTextFrame("TDRC", id3v2.EncodingUTF8, meta.Date)
	}
	if n := trackIndex(meta); n != "" {
		t.AddTextFrame("TRCK", id3v2.EncodingUTF8, n)
	}
	if meta.Comment != "" {
		t.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    "eng",
			Description: "",
			Text:        meta.Comment,
		})
	}
	if meta.URL != "" {
		t.AddFrame("WXXX", id3v2.URLUserDefinedFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: "Permalink",
			URL:         meta.URL,
		})
	}
	if len(meta.Cover) > 0 {
		t.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    meta.CoverMIME,
			PictureType: id3v2.PTFrontCover,
			Picture:     meta.Cover,
		})
	}

	if err := t.Save(); err != nil {
		return fmt.Errorf("failed to save tags to %s: %w", path, err)
	}
	return nil
}

func writeMP4(path string, meta Metadata) error {
	t := &mp4tag.MP4Tags{
		Title:       meta.Title,
		Artist:      meta.Artist,
		Album:       meta.Album,
		AlbumArtist: meta.AlbumArtist,
		CustomGenre: meta.Genre,
		Date:        meta.Date,
		Custom:      map[string]string{},
	}
	if meta.TrackNumber > 0 {
		t.TrackNumber = int16(meta.TrackNumber)
		t.TrackTotal = int16(meta.TrackTotal)
	}
	if meta.Comment != "" {
		t.Custom["COMMENT"] = meta.Comment
	}
	if meta.URL != "" {
		t.Custom["URL"] = meta.URL
	}

	mp4, err := mp4tag.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s for tagging: %w", path, err)
	}
	defer mp4.Close()

	if err := mp4.Write(t, []string{}); err != nil {
		return fmt.Errorf("failed to write tags to %s: %w", path, err)
	}
	return nil
}

// remuxMetadata rewrites the container with metadata into a scratch file next
// to the original, then moves it over the original. Cover art is not embedded
// on this path.
func (ft *FileTagger) remuxMetadata(ctx context.Context, path string, meta Metadata) error {
	scratch := shared.TempPath(filepath.Dir(path), "tag-", filepath.Ext(path))
	if err := ft.remux.WriteMetadata(ctx, path, scratch, metadataTags(meta)); err != nil {
		return err
	}
	return shared.MoveFile(scratch, path)
}

// metadataTags maps meta onto the transcoder's key=value metadata pairs.
func metadataTags(meta Metadata) map[string]string {
	tags := map[string]string{
		"title":  meta.Title,
		"artist": meta.Artist,
	}
	if meta.Album != "" {
		tags["album"] = meta.Album
	}
	if meta.AlbumArtist != "" {
		tags["album_artist"] = meta.AlbumArtist
	}
	if meta.Date != "" {
		tags["date"] = meta.Date
	}
	if meta.Genre != "" {
		tags["genre"] = meta.Genre
	}
	if meta.Comment != "" {
		tags["comment"] = meta.Comment
	}
	if meta.URL != "" {
		tags["purl"] = meta.URL
	}
	if n := trackIndex(meta); n != "" {
		tags["track"] = n
	}
	return tags
}

func trackIndex(meta Metadata) string {
	if meta.TrackNumber <= 0 {
		return ""
	}
	if meta.TrackTotal > 0 {
		return fmt.Sprintf("%d/%d", meta.TrackNumber, meta.TrackTotal)
	}
	return strconv.Itoa(meta.TrackNumber)
}
