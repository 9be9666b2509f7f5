package downloader

import (
	"context"
	"net/http"
	"strings"
	"testing"
)

type fakeProber struct {
	ok map[string]bool
}

func (f *fakeProber) Probe(_ context.Context, url string) (int, error) {
	if f.ok[url] {
		return http.StatusOK, nil
	}
	return http.StatusNotFound, nil
}

func TestOriginalArtworkBase(t *testing.T) {
	base, ok := originalArtworkBase("https://i1.sndcdn.com/artworks-abc123-large.jpg")
	if !ok || base != "https://i1.sndcdn.com/artworks-abc123-original" {
		t.Errorf("unexpected base %q (%v)", base, ok)
	}

	if _, ok := originalArtworkBase(""); ok {
		t.Error("empty artwork URL should have no base")
	}
	if _, ok := originalArtworkBase("nodash"); ok {
		t.Error("URL without a dash should have no base")
	}
}

func TestResolveCoverURL(t *testing.T) {
	artwork := "https://i1.sndcdn.com/artworks-abc123-large.jpg"
	base := "https://i1.sndcdn.com/artworks-abc123-original"

	t.Run("PicksTheExtensionThatAnswers", func(t *testing.T) {
		p := &fakeProber{ok: map[string]bool{base + ".png": true}}

		url, ext, err := resolveCoverURL(context.Background(), p, artwork)
		if err != nil {
			t.Fatal(err)
		}
		if url != base+".png" || ext != "png" {
			t.Errorf("unexpected winner %s (.%s)", url, ext)
		}
	})

	t.Run("NoExtensionAnswers", func(t *testing.T) {
		p := &fakeProber{ok: map[string]bool{}}
		if _, _, err := resolveCoverURL(context.Background(), p, artwork); err == nil {
			t.Error("expected an error when every probe misses")
		}
	})

	t.Run("CandidatesAreFullSizeVariants", func(t *testing.T) {
		hits := map[string]bool{}
		p := &fakeProber{ok: map[string]bool{}}
		probe := func(ctx context.Context, url string) (int, error) {
			hits[url] = true
			return p.Probe(ctx, url)
		}
		resolveCoverURL(context.Background(), proberFunc(probe), artwork)

		for url := range hits {
			if !strings.HasPrefix(url, base+".") {
				t.Errorf("probed %s outside the full-size base", url)
			}
		}
	})
}

type proberFunc func(ctx context.Context, url string) (int, error)

func (f proberFunc) Probe(ctx context.Context, url string) (int, error) { return f(ctx, url) }

func TestCoverMIME(t *testing.T) {
	if coverMIME("png") != "image/png" {
		t.Error("png should map to image/png")
	}
	for _, ext := range []string{"jpg", "jpeg", "pjp", "pjpeg", "jfif"} {
		if coverMIME(ext) != "image/jpeg" {
			t.Errorf("%s should map to image/jpeg", ext)
		}
	}
}
