package models

import (
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/clip-studio/internal/studio/effects"
)

type TrackKind string

const (
	VideoTrackKind TrackKind = "video"
	AudioTrackKind TrackKind = "audio"
	TextTrackKind  TrackKind = "text"
)

type ContentMode string

const (
	CreatorMode  ContentMode = "creator"
	BusinessMode ContentMode = "business"
)

const DefaultAspectRatio = "9:16"

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type VideoTrack struct {
	ID        uuid.UUID    `json:"id"`
	Kind      TrackKind    `json:"kind"`
	Source    string       `json:"source"`
	Text      string       `json:"text,omitempty"`
	StartTime float64      `json:"start_time"`
	Duration  float64      `json:"duration"`
	Opacity   float64      `json:"opacity"`
	Volume    float64      `json:"volume"`
	Effects   effects.List `json:"effects"`
	Position  Position     `json:"position"`
	Scale     float64      `json:"scale"`
}

// End is the time the track stops playing.
func (t VideoTrack) End() float64 {
	return t.StartTime + t.Duration
}

// Clone returns a copy that shares no slices with t.
func (t VideoTrack) Clone() VideoTrack {
	cp := t
	if t.Effects != nil {
		cp.Effects = append(effects.List(nil), t.Effects...)
	}
	return cp
}

type VideoProject struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	OwnerID     string       `json:"owner_id" db:"owner_id"`
	Name        string       `json:"name" db:"name"`
	Tracks      []VideoTrack `json:"tracks" db:"-"`
	Duration    float64      `json:"duration" db:"duration"`
	AspectRatio string       `json:"aspect_ratio" db:"aspect_ratio"`
	Mode        ContentMode  `json:"mode" db:"mode"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// Clone deep-copies the project including its tracks.
func (p *VideoProject) Clone() *VideoProject {
	cp := *p
	cp.Tracks = CloneTracks(p.Tracks)
	return &cp
}

func CloneTracks(in []VideoTrack) []VideoTrack {
	if in == nil {
		return nil
	}
	out := make([]VideoTrack, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}

// TimelineDuration is the latest end time over all tracks.
func TimelineDuration(tracks []VideoTrack) float64 {
	d := 0.0
	for _, t := range tracks {
		d = math.Max(d, t.End())
	}
	return d
}

var localPrefixes = []string{"file://", "content://", "ph://", "assets-library://"}

// IsLocalSource reports whether src still points at device storage.
func IsLocalSource(src string) bool {
	if strings.HasPrefix(src, "/") {
		return true
	}
	for _, p := range localPrefixes {
		if strings.HasPrefix(src, p) {
			return true
		}
	}
	return false
}

// IsRemoteSource reports whether src is a durable URI with a scheme and a
// host (https://, s3://, gs:// and so on) that does not point at the device.
func IsRemoteSource(src string) bool {
	if IsLocalSource(src) {
		return false
	}
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
