package downloader

import (
	"fmt"

	"github.com/desertthunder/scx/internal/shared"
	"github.com/desertthunder/scx/internal/soundcloud"
)

// Protocol identifies how a plan's bytes are retrieved.
type Protocol int

const (
	ProtocolProgressive Protocol = iota
	ProtocolSegmented
	ProtocolOriginal
)

func (p Protocol) String() string {
	switch p {
	case ProtocolProgressive:
		return "progressive"
	case ProtocolSegmented:
		return "segmented"
	case ProtocolOriginal:
		return "original"
	default:
		return "unknown"
	}
}

// containerExt maps a codec family to the container extension its streams are
// remuxed into.
var containerExt = map[string]string{
	"aac":    "m4a",
	"mp3":    "mp3",
	"opus":   "opus",
	"vorbis": "ogg",
	"flac":   "flac",
}

// Policy holds the user's encoding preferences. The booleans are independent;
// combining PreferOpus with LowQuality is allowed.
type Policy struct {
	LowQuality    bool
	PreferOpus    bool
	AllowOriginal bool
}

// familyOrder returns codec families from most to least preferred.
func (p Policy) familyOrder() []string {
	order := []string{"aac", "mp3", "opus"}
	if p.PreferOpus {
		order[1], order[2] = order[2], order[1]
	}
	if p.LowQuality {
		order = order[1:]
	}
	return order
}

// Plan is the outcome of stream selection: which protocol to retrieve a track
// over and, for stream plans, which transcoding.
type Plan struct {
	Protocol    Protocol
	Transcoding soundcloud.Transcoding
	Family      string
	Ext         string
}

// Select picks the retrieval plan for a track. An original-file entitlement
// wins outright; otherwise the first preferred codec family with candidates
// is used, progressive transport beating hls within it.
func Select(track *soundcloud.Track, policy Policy) (Plan, error) {
	if policy.AllowOriginal && track.Downloadable && track.HasDownloadsLeft {
		return Plan{Protocol: ProtocolOriginal}, nil
	}

	var candidates []soundcloud.Transcoding
	if track.Media != nil {
		candidates = track.Media.Transcodings
	}

	for _, family := range policy.familyOrder() {
		if plan, ok := bestInFamily(candidates, family); ok {
			return plan, nil
		}
	}
	return Plan{}, fmt.Errorf("%w: track %d has no usable transcodings", shared.ErrNoStreams, track.ID)
}

func bestInFamily(candidates []soundcloud.Transcoding, family string) (Plan, bool) {
	var segmented *soundcloud.Transcoding
	for i := range candidates {
		t := candidates[i]
		if t.Family() != family {
			continue
		}
		switch t.Format.Protocol {
		case "progressive":
			return planFor(t), true
		case "hls":
			if segmented == nil {
				segmented = &candidates[i]
			}
		}
	}
	if segmented != nil {
		return planFor(*segmented), true
	}
	return Plan{}, false
}

func planFor(t soundcloud.Transcoding) Plan {
	protocol := ProtocolProgressive
	if t.Format.Protocol == "hls" {
		protocol = ProtocolSegmented
	}
	family := t.Family()
	return Plan{
		Protocol:    protocol,
		Transcoding: t,
		Family:      family,
		Ext:         containerExt[family],
	}
}
