package snippets

import (
	"github.com/shopspring/decimal"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/docstore"
)

// Record is one aligned segment as sent to the sink. Numeric fields are
// carried as strings.
type Record struct {
	Prediction  string `json:"prediction"`
	Subtitle    string `json:"subtitle"`
	StartTime   string `json:"startTime"`
	SampleStart string `json:"sample_start"`
	SampleEnd   string `json:"sample_end"`
	EndTime     string `json:"endTime"`
	RealText    string `json:"real_text"`
}

// Request is the batch posted to the sink.
type Request struct {
	SourceAudioUID string   `json:"sourceAudioUid"`
	Snippets       []Record `json:"snippets"`
}

// Input is a snippet as accepted by the sink. Times may arrive as JSON
// strings or numbers.
type Input struct {
	StartTime decimal.Decimal `json:"startTime"`
	EndTime   decimal.Decimal `json:"endTime"`
	Text      *string         `json:"text"`
	Subtitle  string          `json:"subtitle"`
}

// CreateRequest is the decoded sink request body.
type CreateRequest struct {
	SourceAudioUID string  `json:"sourceAudioUid"`
	Snippets       []Input `json:"snippets"`
}

// SliceRequest names one snippet to export as training data.
type SliceRequest struct {
	SourceAudioID      string           `json:"sourceAudioId"`
	SpeakerID          string           `json:"speakerId"`
	SourceAudioRefPath string           `json:"sourceAudioRefPath"`
	Snippet            docstore.Snippet `json:"snippet"`
}

// SliceResult reports where the exported files were written.
type SliceResult struct {
	AudioPath string `json:"audioPath"`
	TextPath  string `json:"textPath"`
}

// ClearRequest identifies the exported files to remove.
type ClearRequest struct {
	ID             string `json:"id"`
	SpeakerID      string `json:"speakerId"`
	StorageRefPath string `json:"storageRefPath"`
}

// ClearResult reports how many objects were removed.
type ClearResult struct {
	Deleted int `json:"deleted"`
}
