package downloader

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/scx/internal/soundcloud"
)

// coverExtensions are probed most-common first. The CDN only serves the
// full-size rendition under the extension the artwork was uploaded with.
var coverExtensions = []string{"jpg", "png", "jpeg", "pjp", "pjpeg", "jfif"}

// Prober issues a status-only GET.
type Prober interface {
	Probe(ctx context.Context, url string) (int, error)
}

// resolveCoverURL races the full-size artwork candidates derived from a sized
// artwork URL and returns the first one answering 200, with its extension.
func resolveCoverURL(ctx context.Context, p Prober, artworkURL string) (string, string, error) {
	base, ok := originalArtworkBase(artworkURL)
	if !ok {
		return "", "", fmt.Errorf("no artwork base in %q", artworkURL)
	}

	ext, err := soundcloud.FirstSuccess(ctx, coverExtensions, func(ctx context.Context, ext string) (string, error) {
		status, err := p.Probe(ctx, base+"."+ext)
		if err != nil {
			return "", err
		}
		if status != http.StatusOK {
			return "", fmt.Errorf("status %d for .%s artwork", status, ext)
		}
		return ext, nil
	})
	if err != nil {
		return "", "", err
	}
	return base + "." + ext, ext, nil
}

// originalArtworkBase rewrites a sized artwork URL ("...-large.jpg") to the
// extensionless full-size base ("...-original").
func originalArtworkBase(artworkURL string) (string, bool) {
	if artworkURL == "" {
		return "", false
	}
	idx := strings.LastIndex(artworkURL, "-")
	if idx < 0 {
		return "", false
	}
	return artworkURL[:idx] + "-original", true
}

func coverMIME(ext string) string {
	if ext == "png" {
		return "image/png"
	}
	return "image/jpeg"
}
