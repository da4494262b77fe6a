package content

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Document names inside the store folder.
const (
	DaysDocument       = "training_days.json"
	RecordingsDocument = "recordings.json"
	StatsDocument      = "stats.json"
)

// TrainingDay is one day of the course. Only the unlock fields ever change.
type TrainingDay struct {
	DayNumber  int        `json:"dayNumber" yaml:"dayNumber"`
	Title      string     `json:"title" yaml:"title"`
	IsUnlocked bool       `json:"isUnlocked" yaml:"-"`
	UnlockedAt *Timestamp `json:"unlockedAt" yaml:"-"`
	UnlockedBy *string    `json:"unlockedBy" yaml:"-"`
}

// Recording is the session video attached to a training day.
type Recording struct {
	RecordingID string    `json:"recordingId"`
	DayNumber   int       `json:"dayNumber"`
	Title       string    `json:"title"`
	VideoURL    string    `json:"videoUrl"`
	EmbedURL    string    `json:"embedUrl"`
	Platform    Platform  `json:"platform"`
	Duration    string    `json:"duration"`
	UploadedAt  Timestamp `json:"uploadedAt"`
	UploadedBy  string    `json:"uploadedBy"`
	ViewCount   int       `json:"viewCount"`
	IsActive    bool      `json:"isActive"`
}

// Stats summarises both collections.
type Stats struct {
	TotalDays           int       `json:"totalDays"`
	UnlockedDays        int       `json:"unlockedDays"`
	LockedDays          int       `json:"lockedDays"`
	RecordingsAvailable int       `json:"recordingsAvailable"`
	LastUpdated         Timestamp `json:"lastUpdated"`
}

// UploadInput carries the fields an admin supplies for a new recording.
type UploadInput struct {
	DayNumber int
	Title     string
	VideoURL  string
	Duration  string
	Platform  Platform
	Actor     string
}

// Platform identifies where a recording is hosted.
type Platform string

const (
	PlatformYouTube Platform = "youtube"
	PlatformVimeo   Platform = "vimeo"
	PlatformAzure   Platform = "azure"
	PlatformDirect  Platform = "direct"
)

// ParsePlatform accepts any casing of a known platform name.
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case PlatformYouTube, PlatformVimeo, PlatformAzure, PlatformDirect:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPlatform, s)
}

// UnmarshalJSON tolerates upper-case values written by older tooling. Empty,
// null and unknown platforms decode as direct so one odd record never makes
// the whole collection unreadable.
func (p *Platform) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePlatform(s)
	if err != nil {
		parsed = PlatformDirect
	}
	*p = parsed
	return nil
}

const timestampLayout = "2006-01-02T15:04:05.000000Z"

// Timestamp is a UTC instant serialised with microsecond precision and a Z suffix.
type Timestamp struct {
	time.Time
}

// NewTimestamp normalises t to UTC microseconds.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Microsecond)}
}

func (t Timestamp) String() string {
	return t.UTC().Format(timestampLayout)
}

// MarshalJSON writes the zero timestamp as null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts RFC 3339 values and naive ISO timestamps, which are read as UTC.
// null and "" decode as the zero timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTimestamp parses the timestamp formats found in stored documents.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			return NewTimestamp(parsed), nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q", s)
}
