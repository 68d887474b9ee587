package types

import (
	"time"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Session is one design thread: a fixed intent plus a bounded conversational
// history replayed verbatim to the image model. Rows are never deleted; the
// history column is replaced in full on every turn append.
type Session struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DesignIntent      string         `gorm:"column:design_intent;not null" json:"design_intent"`
	SystemInstruction string         `gorm:"column:system_instruction" json:"system_instruction"`
	IntentHash        string         `gorm:"column:intent_hash;index" json:"intent_hash"`
	History           datatypes.JSON `gorm:"column:history;type:jsonb" json:"history"`
	CreatedAt         time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null" json:"updated_at"`
}

func (Session) TableName() string { return "design_session" }

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
