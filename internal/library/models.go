// Package library holds the domain model and repositories for videos
// and their dimension entities (actor, studio, tag).
package library

import (
	"media-indexer/internal/store"
)

// Table names in the main database.
const (
	TableVideo       = "video"
	TableActor       = "actor"
	TableStudio      = "studio"
	TableTag         = "tag"
	TableVideoActor  = "video_actor"
	TableVideoStudio = "video_studio"
	TableVideoTag    = "video_tag"
)

// ScanStatus tracks where a video record is in the scan pipeline.
type ScanStatus string

const (
	ScanStatusPending   ScanStatus = "pending"
	ScanStatusScanning  ScanStatus = "scanning"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusError     ScanStatus = "error"
)

// Video is the full persisted video record. The id is the SHA-256 of
// the absolute file path, so a moved file gets a fresh identity.
type Video struct {
	ID string `db:"id" json:"id"`

	// File facts
	FilePath      string `db:"file_path" json:"filePath"`
	FileName      string `db:"file_name" json:"fileName"`
	FileSize      int64  `db:"file_size" json:"fileSize"`
	FileBirthtime int64  `db:"file_birthtime" json:"fileBirthtime"`

	// Derived technical facts
	DurationMS      int64   `db:"duration_ms" json:"durationMs"`
	Width           int64   `db:"width" json:"width"`
	Height          int64   `db:"height" json:"height"`
	FPS             float64 `db:"fps" json:"fps"`
	BitRate         int64   `db:"bit_rate" json:"bitRate"`
	VideoCodec      string  `db:"video_codec" json:"videoCodec"`
	AudioCodec      string  `db:"audio_codec" json:"audioCodec"`
	ContainerFormat string  `db:"container_format" json:"containerFormat"`

	// Generated asset paths, empty until generated
	CoverPath      string `db:"cover_path" json:"coverPath"`
	SpritePath     string `db:"sprite_path" json:"spritePath"`
	VttPath        string `db:"vtt_path" json:"vttPath"`
	ScreenshotPath string `db:"screenshot_path" json:"screenshotPath"`

	// Editable metadata
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description"`
	ReleaseDate string `db:"release_date" json:"releaseDate"`
	Director    string `db:"director" json:"director"`
	StudioID    string `db:"studio_id" json:"studioId"`
	Link        string `db:"link" json:"link"`

	// Status
	LastPlayedAt int64  `db:"last_played_at" json:"lastPlayedAt"`
	PlayCount    int64  `db:"play_count" json:"playCount"`
	Hidden       int64  `db:"hidden" json:"hidden"`
	IsDeleted    int64  `db:"is_deleted" json:"isDeleted"`
	ScanStatus   string `db:"scan_status" json:"scanStatus"`
	ErrorMessage string `db:"error_message" json:"errorMessage"`

	CreatedAt int64 `db:"created_at" json:"createdAt"`
	UpdatedAt int64 `db:"updated_at" json:"updatedAt"`
}

// Actor is a dimension entity, unique by exact name.
type Actor struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	OriginalName string `db:"original_name" json:"originalName"`
	Gender       string `db:"gender" json:"gender"`
	BirthDate    string `db:"birth_date" json:"birthDate"`
	DeathDate    string `db:"death_date" json:"deathDate"`
	Biography    string `db:"biography" json:"biography"`
	PhotoPath    string `db:"photo_path" json:"photoPath"`
}

// Studio is a dimension entity, unique by exact name.
type Studio struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Country     string `db:"country" json:"country"`
	FoundedYear int64  `db:"founded_year" json:"foundedYear"`
	Website     string `db:"website" json:"website"`
	LogoPath    string `db:"logo_path" json:"logoPath"`
}

// Tag is a dimension entity, unique by exact name.
type Tag struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Color string `db:"color" json:"color"`
}

// VideoActor links a video to an actor with role and billing order.
type VideoActor struct {
	ID         string `db:"id" json:"id"`
	VideoID    string `db:"video_id" json:"videoId"`
	ActorID    string `db:"actor_id" json:"actorId"`
	RoleName   string `db:"role_name" json:"roleName"`
	OrderIndex int64  `db:"order_index" json:"orderIndex"`
}

// VideoStudio links a video to a studio with a role type.
type VideoStudio struct {
	ID       string `db:"id" json:"id"`
	VideoID  string `db:"video_id" json:"videoId"`
	StudioID string `db:"studio_id" json:"studioId"`
	RoleType string `db:"role_type" json:"roleType"`
}

// VideoTag links a video to a tag.
type VideoTag struct {
	ID      string `db:"id" json:"id"`
	VideoID string `db:"video_id" json:"videoId"`
	TagID   string `db:"tag_id" json:"tagId"`
}

// ActorRef names an actor on a video edit form.
type ActorRef struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// VideoForm carries everything a scan pass or edit form writes for one
// video. Studio, Actors, and Tags are resolved to dimension rows and
// association rows when the form is saved.
type VideoForm struct {
	FileName      string
	FilePath      string
	FileSize      int64
	FileBirthtime int64

	DurationMS      int64
	Width           int64
	Height          int64
	FPS             float64
	BitRate         int64
	VideoCodec      string
	AudioCodec      string
	ContainerFormat string

	CoverPath      string
	SpritePath     string
	VttPath        string
	ScreenshotPath string

	Title       string
	Description string
	ReleaseDate string
	Director    string
	Link        string

	Studio string
	Actors []ActorRef
	Tags   []string

	Hidden int64
}

// VideoEdit is a partial update from the edit form. Nil pointers leave
// the column untouched; nil slices leave the associations untouched.
type VideoEdit struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	ReleaseDate *string    `json:"releaseDate"`
	Director    *string    `json:"director"`
	Link        *string    `json:"link"`
	Hidden      *int64     `json:"hidden"`
	Studio      *string    `json:"studio"`
	Actors      []ActorRef `json:"actors"`
	Tags        []string   `json:"tags"`
}

// changes converts the set pointer fields into a store changeset.
func (e *VideoEdit) changes() *store.Changes {
	ch := store.NewChanges()
	if e.Title != nil {
		ch.Set("title", *e.Title)
	}
	if e.Description != nil {
		ch.Set("description", *e.Description)
	}
	if e.ReleaseDate != nil {
		ch.Set("release_date", *e.ReleaseDate)
	}
	if e.Director != nil {
		ch.Set("director", *e.Director)
	}
	if e.Link != nil {
		ch.Set("link", *e.Link)
	}
	if e.Hidden != nil {
		ch.Set("hidden", *e.Hidden)
	}
	return ch
}
