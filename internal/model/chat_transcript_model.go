package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatTranscript struct {
	Id            uuid.UUID         `gorm:"type:uuid;primaryKey"`
	SessionId     string            `gorm:"type:varchar(64);not null;index"`
	MessageId     string            `gorm:"type:varchar(64);not null;uniqueIndex"`
	Sender        string            `gorm:"type:varchar(16);not null"`
	Stage         string            `gorm:"type:varchar(16)"`
	Text          string            `gorm:"type:text;not null"`
	LearningStyle string            `gorm:"type:varchar(32)"`
	Metadata      datatypes.JSONMap `gorm:"not null"`
	CreatedAt     time.Time         `gorm:"autoCreateTime;index"`
}

func (ChatTranscript) TableName() string {
	return "chat_transcripts"
}

func (t *ChatTranscript) BeforeCreate(_ *gorm.DB) error {
	if t.Id == uuid.Nil {
		t.Id = uuid.New()
	}
	if t.Metadata == nil {
		t.Metadata = datatypes.JSONMap{}
	}
	return nil
}

// Models lists every table the service migrates.
func Models() []interface{} {
	return []interface{}{&ChatTranscript{}}
}
