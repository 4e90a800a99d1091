package docstore

import "time"

// SourceAudio is an uploaded or downloaded recording awaiting annotation.
type SourceAudio struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	StorageRefPath string    `json:"storageRefPath"`
	PreProcessDone bool      `json:"preProcessDone"`
	SpeakerID      string    `json:"speakerId"`
	YouTubeURL     string    `json:"youtubeURL,omitempty"`
	Subtitle       string    `json:"subtitle"`
	ContentHash    string    `json:"contentHash,omitempty"`
	IsAnnotated    bool      `json:"isAnnotated"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Snippets       []Snippet `json:"snippets,omitempty"`
}

// Speaker identifies the voice in a source audio.
type Speaker struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Snippet is a time range of a source audio with its transcript.
type Snippet struct {
	ID        string  `json:"id"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Text      string  `json:"text"`
}
