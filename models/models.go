package models

import "time"

// Mode selects where summarization runs.
type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

// ModeConfig is passed explicitly with every summarization call.
type ModeConfig struct {
	Mode   Mode   `json:"mode"`
	APIKey string `json:"-"`
}

// DocumentFormat is derived from a file's extension.
type DocumentFormat string

const (
	FormatText    DocumentFormat = "text"
	FormatPDF     DocumentFormat = "pdf"
	FormatImage   DocumentFormat = "image"
	FormatUnknown DocumentFormat = "unknown"
)

type Document struct {
	Path   string         `json:"path"`
	Format DocumentFormat `json:"format"`
}

// Question is a cloze-style multiple-choice question. Answer is always one of Options.
type Question struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Options  []string `json:"options"`
}

// SourceInfo contains information about where a document came from
type SourceInfo struct {
	Path     string `json:"path,omitempty"`
	ZoteroID string `json:"zotero_id,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Label returns a human readable name for the source.
func (s SourceInfo) Label() string {
	switch {
	case s.ZoteroID != "":
		return "zotero:" + s.ZoteroID
	case s.URL != "":
		return s.URL
	default:
		return s.Path
	}
}

// StudySession is one processed document as remembered by the history store.
type StudySession struct {
	ID         string     `json:"id"`
	Source     SourceInfo `json:"source"`
	Mode       Mode       `json:"mode"`
	Downgraded bool       `json:"downgraded,omitempty"`
	TextChars  int        `json:"text_chars"`
	Summary    string     `json:"summary"`
	Questions  []Question `json:"questions,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// SessionInfo contains basic information about a stored session
type SessionInfo struct {
	ID            string    `json:"id"`
	Source        string    `json:"source"`
	Mode          Mode      `json:"mode"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}
