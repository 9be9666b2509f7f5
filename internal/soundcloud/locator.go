package soundcloud

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/desertthunder/scx/internal/shared"
)

// Kind identifies the resource type a reference points at.
type Kind int

const (
	KindUnknown Kind = iota
	KindTrack
	KindPlaylist
	KindUser
	KindUserLikes
	KindUserReposts
)

func (k Kind) String() string {
	switch k {
	case KindTrack:
		return "track"
	case KindPlaylist:
		return "playlist"
	case KindUser:
		return "user"
	case KindUserLikes:
		return "likes"
	case KindUserReposts:
		return "reposts"
	default:
		return "unknown"
	}
}

// IsCollection reports whether the kind is a paginated user collection.
func (k Kind) IsCollection() bool {
	return k == KindUser || k == KindUserLikes || k == KindUserReposts
}

var shortLinkPrefixes = []string{
	"https://soundcloud.app.goo.gl/",
	"https://on.soundcloud.com/",
}

// Ordered classification rules; the first full match wins. The user rule
// cannot swallow likes/reposts because its optional segment only admits
// /tracks and /popular-tracks, and the playlist rule precedes the generic
// two-segment track rule.
var classifyRules = []struct {
	kind Kind
	re   *regexp.Regexp
}{
	{KindUser, regexp.MustCompile(`^https://soundcloud\.com/[^/]+(/tracks|/popular-tracks)?$`)},
	{KindUserLikes, regexp.MustCompile(`^https://soundcloud\.com/[^/]+/likes$`)},
	{KindUserReposts, regexp.MustCompile(`^https://soundcloud\.com/[^/]+/reposts$`)},
	{KindPlaylist, regexp.MustCompile(`^https://soundcloud\.com/[^/]+/sets/[^/]+(/s-[^/]+)?$`)},
	{KindTrack, regexp.MustCompile(`^https://soundcloud\.com/[^/]+/[^/]+(/s-[^/]+)?$`)},
}

var userRootPattern = regexp.MustCompile(`^https://soundcloud\.com/[^/]+`)

// Locator classifies raw references into resource kinds.
type Locator struct {
	httpClient *http.Client
}

// NewLocator creates a Locator. The client is used only for resolving
// redirect-style short links; redirects are never followed.
func NewLocator(client *http.Client) *Locator {
	if client == nil {
		client = http.DefaultClient
	}
	noFollow := *client
	noFollow.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &Locator{httpClient: &noFollow}
}

// Classify normalizes the reference and derives its kind. Unclassifiable
// references return [KindUnknown] with [shared.ErrUnknownReference].
func (l *Locator) Classify(ctx context.Context, reference string) (Kind, string, error) {
	normalized, err := l.normalize(ctx, reference)
	if err != nil {
		return KindUnknown, reference, err
	}

	for _, rule := range classifyRules {
		if rule.re.MatchString(normalized) {
			return rule.kind, normalized, nil
		}
	}

	return KindUnknown, normalized, fmt.Errorf("%w: %s", shared.ErrUnknownReference, normalized)
}

// UserRoot strips a normalized user/likes/reposts reference down to the bare
// user URL for resolution.
func UserRoot(normalized string) string {
	return userRootPattern.FindString(normalized)
}

// normalize resolves short links, rewrites the mobile host, and strips
// query, fragment, and trailing slashes.
func (l *Locator) normalize(ctx context.Context, reference string) (string, error) {
	reference = strings.TrimSpace(reference)

	for _, prefix := range shortLinkPrefixes {
		if strings.HasPrefix(reference, prefix) {
			target, err := l.resolveShortLink(ctx, reference)
			if err != nil {
				return reference, err
			}
			reference = target
			break
		}
	}

	if strings.HasPrefix(reference, "https://m.soundcloud.com/") {
		reference = "https://soundcloud.com/" + strings.TrimPrefix(reference, "https://m.soundcloud.com/")
	}

	reference, _, _ = strings.Cut(reference, "?")
	reference, _, _ = strings.Cut(reference, "#")
	reference = strings.TrimRight(reference, "/")

	if scheme, rest, ok := strings.Cut(reference, "://"); ok {
		if host, path, ok := strings.Cut(rest, "/"); ok {
			reference = scheme + "://" + strings.ToLower(host) + "/" + path
		} else {
			reference = scheme + "://" + strings.ToLower(rest)
		}
	}

	return reference, nil
}

// resolveShortLink performs a single bounded request and reads the redirect
// target from the Location header. No further redirect chasing.
func (l *Locator) resolveShortLink(ctx context.Context, reference string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reference, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: short link resolution: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("%w: short link returned no redirect target", shared.ErrUnknownReference)
	}

	return location, nil
}
