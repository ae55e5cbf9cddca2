package model

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// Document holds the source text of a grounded conversation and its chunks.
// Chunks is a JSON array of strings; use SetChunks and ChunkList rather than
// touching the column directly.
type Document struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ConversationID uint           `gorm:"not null;uniqueIndex" json:"conversation_id"`
	OriginalText   string         `gorm:"type:text;not null" json:"original_text"`
	Chunks         datatypes.JSON `json:"chunks"`
}

func (d *Document) SetChunks(chunks []string) error {
	if chunks == nil {
		chunks = []string{}
	}
	b, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("marshal chunks failed: %w", err)
	}
	d.Chunks = datatypes.JSON(b)
	return nil
}

func (d *Document) ChunkList() ([]string, error) {
	if len(d.Chunks) == 0 {
		return nil, nil
	}
	var chunks []string
	if err := json.Unmarshal(d.Chunks, &chunks); err != nil {
		return nil, fmt.Errorf("unmarshal chunks failed: %w", err)
	}
	return chunks, nil
}
