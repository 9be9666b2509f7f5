package soundcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Pager walks a paginated collection listing one page per Next call. Pages
// are yielded in cursor order and never reordered or deduplicated; a pager
// cannot be rewound, only recreated from its starting endpoint.
type Pager struct {
	client *Client
	next   string
	// wrapped marks listings (likes, reposts) whose items nest the track
	// under a "track" key; non-track entries are skipped.
	wrapped bool
	done    bool
}

// Done reports whether the listing is exhausted.
func (p *Pager) Done() bool {
	return p.done
}

// Next fetches the next page and returns its tracks. After the final page
// (the one carrying no cursor) has been returned, Next yields nil and the
// pager reports done.
func (p *Pager) Next(ctx context.Context) ([]Track, error) {
	if p.done {
		return nil, nil
	}

	resp, err := p.client.do(ctx, p.next, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("collection page request failed with status %d", resp.StatusCode)
	}

	tracks, nextHref, err := decodePage(resp.Body, p.wrapped)
	if err != nil {
		return nil, err
	}

	if nextHref == "" {
		p.done = true
	} else {
		// The cursor points at an internal host; rewrite it to the
		// public API host.
		p.next = strings.Replace(nextHref, "://http_backend/", "://api-v2.soundcloud.com/", 1)
	}

	return tracks, nil
}

func decodePage(r io.Reader, wrapped bool) ([]Track, string, error) {
	if wrapped {
		var page struct {
			Collection []struct {
				Track *Track `json:"track"`
			} `json:"collection"`
			NextHref string `json:"next_href"`
		}
		if err := json.NewDecoder(r).Decode(&page); err != nil {
			return nil, "", fmt.Errorf("failed to decode collection page: %w", err)
		}

		var tracks []Track
		for _, item := range page.Collection {
			if item.Track != nil {
				tracks = append(tracks, *item.Track)
			}
		}
		return tracks, page.NextHref, nil
	}

	var page struct {
		Collection []Track `json:"collection"`
		NextHref   string  `json:"next_href"`
	}
	if err := json.NewDecoder(r).Decode(&page); err != nil {
		return nil, "", fmt.Errorf("failed to decode collection page: %w", err)
	}
	return page.Collection, page.NextHref, nil
}
