package types

import (
	"encoding/json"
	"time"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Version is the write-once record of one generated or uploaded artifact.
// A nil ParentID marks a root upload. Rows are never updated or deleted;
// corrections are expressed as new child versions.
type Version struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ParentID        *uuid.UUID     `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	SessionID       *uuid.UUID     `gorm:"type:uuid;index" json:"session_id,omitempty"`
	DesignIntent    string         `gorm:"column:design_intent;not null" json:"design_intent"`
	EditInstruction string         `gorm:"column:edit_instruction" json:"edit_instruction,omitempty"`
	ModelName       string         `gorm:"column:model_name" json:"model_name"`
	ArtifactKey     string         `gorm:"column:artifact_key;not null" json:"artifact_key"`
	ArtifactURL     string         `gorm:"column:artifact_url" json:"artifact_url"`
	AngleLabel      string         `gorm:"column:angle_label;index" json:"angle_label,omitempty"`
	AspectRatio     string         `gorm:"column:aspect_ratio" json:"aspect_ratio,omitempty"`
	RequestID       string         `gorm:"column:request_id;index" json:"request_id,omitempty"`
	DiffSummary     string         `gorm:"column:diff_summary" json:"diff_summary,omitempty"`
	Metadata        datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt       time.Time      `gorm:"not null;index" json:"created_at"`
}

func (Version) TableName() string { return "design_version" }

func (v *Version) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// VersionMetadata is the typed shape of the metadata column: a fixed required
// subset plus an extension map for forward-compatible fields.
type VersionMetadata struct {
	Source           string            `json:"source"`
	IntentHash       string            `json:"intent_hash"`
	ParentID         string            `json:"parent_id,omitempty"`
	AngleLabel       string            `json:"angle_label,omitempty"`
	AspectRatio      string            `json:"aspect_ratio,omitempty"`
	RequestID        string            `json:"request_id,omitempty"`
	InputArtifactIDs []string          `json:"input_artifact_ids,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	Extra            map[string]string `json:"extra,omitempty"`
}

func (m VersionMetadata) ToJSON() datatypes.JSON {
	raw, err := json.Marshal(m)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(raw)
}

func (v *Version) DecodeMetadata() (VersionMetadata, error) {
	var m VersionMetadata
	if len(v.Metadata) == 0 {
		return m, nil
	}
	err := json.Unmarshal(v.Metadata, &m)
	return m, err
}
