package entities

import "time"

const (
	DocStatusParsed = "parsed"
	DocStatusFailed = "failed"
)

type Document struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Filename   string    `json:"filename"`
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	SHA256     string    `gorm:"column:sha256;index" json:"sha256"`
	StorageKey string    `json:"-"`
	SourceURL  string    `json:"source_url,omitempty"`
	Text       string    `json:"-"`
	TextChars  int       `json:"text_chars"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type EntryChunk struct {
	ChunkID   uint   `gorm:"primaryKey" json:"chunk_id"`
	EntryID   uint   `gorm:"index" json:"entry_id"`
	Ord       int    `json:"ord"`
	Text      string `json:"text"`
	Embedding []byte `json:"-"`
	CreatedAt time.Time
}
