package soundcloud

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/scx/internal/shared"
)

func TestClassify(t *testing.T) {
	l := NewLocator(nil)
	ctx := context.Background()

	cases := []struct {
		name string
		in   string
		kind Kind
		norm string
	}{
		{"UserRoot", "https://soundcloud.com/some-artist", KindUser, "https://soundcloud.com/some-artist"},
		{"UserTracks", "https://soundcloud.com/some-artist/tracks", KindUser, "https://soundcloud.com/some-artist/tracks"},
		{"UserPopularTracks", "https://soundcloud.com/some-artist/popular-tracks", KindUser, "https://soundcloud.com/some-artist/popular-tracks"},
		{"UserLikes", "https://soundcloud.com/some-artist/likes", KindUserLikes, "https://soundcloud.com/some-artist/likes"},
		{"UserReposts", "https://soundcloud.com/some-artist/reposts", KindUserReposts, "https://soundcloud.com/some-artist/reposts"},
		{"Playlist", "https://soundcloud.com/some-artist/sets/an-album", KindPlaylist, "https://soundcloud.com/some-artist/sets/an-album"},
		{"SecretPlaylist", "https://soundcloud.com/some-artist/sets/an-album/s-AbCdEf", KindPlaylist, "https://soundcloud.com/some-artist/sets/an-album/s-AbCdEf"},
		{"Track", "https://soundcloud.com/some-artist/a-song", KindTrack, "https://soundcloud.com/some-artist/a-song"},
		{"SecretTrack", "https://soundcloud.com/some-artist/a-song/s-XyZ", KindTrack, "https://soundcloud.com/some-artist/a-song/s-XyZ"},
		{"TrailingSlash", "https://soundcloud.com/some-artist/a-song/", KindTrack, "https://soundcloud.com/some-artist/a-song"},
		{"QueryStripped", "https://soundcloud.com/some-artist/a-song?in=playlist&utm=x", KindTrack, "https://soundcloud.com/some-artist/a-song"},
		{"FragmentStripped", "https://soundcloud.com/some-artist/a-song#t=30s", KindTrack, "https://soundcloud.com/some-artist/a-song"},
		{"MobileHost", "https://m.soundcloud.com/some-artist/a-song", KindTrack, "https://soundcloud.com/some-artist/a-song"},
		{"HostLowercased", "https://SoundCloud.com/some-artist", KindUser, "https://soundcloud.com/some-artist"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			kind, norm, err := l.Classify(ctx, c.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if kind != c.kind {
				t.Errorf("expected kind %s, got %s", c.kind, kind)
			}
			if norm != c.norm {
				t.Errorf("expected normalized %s, got %s", c.norm, norm)
			}
		})
	}

	t.Run("LikesNeverClassifiedAsUser", func(t *testing.T) {
		kind, _, err := l.Classify(ctx, "https://soundcloud.com/anyone/likes")
		if err != nil {
			t.Fatal(err)
		}
		if kind == KindUser {
			t.Error("likes reference must not classify as user")
		}
		if kind != KindUserLikes {
			t.Errorf("expected likes, got %s", kind)
		}
	})

	t.Run("UnknownReference", func(t *testing.T) {
		kind, _, err := l.Classify(ctx, "https://example.com/whatever")
		if kind != KindUnknown {
			t.Errorf("expected unknown kind, got %s", kind)
		}
		if !errors.Is(err, shared.ErrUnknownReference) {
			t.Errorf("expected ErrUnknownReference, got %v", err)
		}
	})

	t.Run("TooManySegments", func(t *testing.T) {
		kind, _, err := l.Classify(ctx, "https://soundcloud.com/a/b/c/d")
		if kind != KindUnknown || err == nil {
			t.Errorf("expected unknown, got %s (%v)", kind, err)
		}
	})
}

func TestUserRoot(t *testing.T) {
	cases := map[string]string{
		"https://soundcloud.com/some-artist/likes":   "https://soundcloud.com/some-artist",
		"https://soundcloud.com/some-artist/reposts": "https://soundcloud.com/some-artist",
		"https://soundcloud.com/some-artist/tracks":  "https://soundcloud.com/some-artist",
		"https://soundcloud.com/some-artist":         "https://soundcloud.com/some-artist",
	}
	for in, want := range cases {
		if got := UserRoot(in); got != want {
			t.Errorf("UserRoot(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestResolveShortLink(t *testing.T) {
	t.Run("ReadsLocationWithoutFollowing", func(t *testing.T) {
		var hits int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			w.Header().Set("Location", "https://soundcloud.com/some-artist/a-song")
			w.WriteHeader(http.StatusFound)
		}))
		defer srv.Close()

		l := NewLocator(srv.Client())
		target, err := l.resolveShortLink(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if target != "https://soundcloud.com/some-artist/a-song" {
			t.Errorf("unexpected target %s", target)
		}
		if hits != 1 {
			t.Errorf("expected a single bounded request, got %d", hits)
		}
	})

	t.Run("MissingLocation", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		l := NewLocator(srv.Client())
		if _, err := l.resolveShortLink(context.Background(), srv.URL); err == nil {
			t.Error("expected error when no redirect target is present")
		}
	})
}
