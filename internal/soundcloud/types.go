package soundcloud

import "strings"

// User represents the owner of a track or collection.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PermalinkURL string `json:"permalink_url"`
	Kind         string `json:"kind"`
}

// TranscodingFormat describes the transport of one encoding candidate.
type TranscodingFormat struct {
	Protocol string `json:"protocol"` // "progressive" or "hls"
	MimeType string `json:"mime_type"`
}

// Transcoding is one server-side encoding of a track.
type Transcoding struct {
	URL     string            `json:"url"`
	Preset  string            `json:"preset"` // e.g. "aac_160k", "mp3_1_0", "opus_0_0"
	Format  TranscodingFormat `json:"format"`
	Quality string            `json:"quality"`
}

// Family returns the codec family tag of the preset (the part before the
// first underscore).
func (t Transcoding) Family() string {
	family, _, _ := strings.Cut(t.Preset, "_")
	return family
}

// Media holds a track's encoding candidates.
type Media struct {
	Transcodings []Transcoding `json:"transcodings"`
}

// Track is the authoritative description of one media item.
type Track struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	User             User   `json:"user"`
	ReleaseDate      string `json:"release_date"`
	CreatedAt        string `json:"created_at"`
	Genre            string `json:"genre"`
	Description      string `json:"description"`
	PermalinkURL     string `json:"permalink_url"`
	ArtworkURL       string `json:"artwork_url"`
	SecretToken      string `json:"secret_token"`
	Downloadable     bool   `json:"downloadable"`
	HasDownloadsLeft bool   `json:"has_downloads_left"`
	Media            *Media `json:"media"`
	Kind             string `json:"kind"`
}

// Thin reports whether the track record is missing its encoding list and
// needs a follow-up lookup before it can be retrieved.
func (t *Track) Thin() bool {
	return t.Media == nil
}

// Date returns the release date, falling back to the creation date, with any
// time component stripped.
func (t *Track) Date() string {
	date := t.ReleaseDate
	if date == "" {
		date = t.CreatedAt
	}
	date, _, _ = strings.Cut(date, "T")
	return date
}

// Playlist is a set of tracks with shared album metadata.
type Playlist struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	User        User    `json:"user"`
	ArtworkURL  string  `json:"artwork_url"`
	SecretToken string  `json:"secret_token"`
	Tracks      []Track `json:"tracks"`
	Kind        string  `json:"kind"`
}
