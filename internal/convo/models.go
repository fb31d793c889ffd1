package convo

import "time"

// Conversation pins a question thread to one analyzed database.
type Conversation struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	ConversationID string    `gorm:"type:varchar(26);uniqueIndex;not null" json:"conversation_id"`
	Database       string    `gorm:"type:varchar(64);not null" json:"database"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Conversation) TableName() string { return "conversations" }

// Turn is one question/answer exchange. SQL is kept for auditability and is
// null when no statement was executable.
type Turn struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID string    `gorm:"type:varchar(26);index;not null" json:"conversation_id"`
	Question       string    `gorm:"type:text;not null" json:"question"`
	Answer         string    `gorm:"type:text;not null" json:"answer"`
	ResponseType   string    `gorm:"type:varchar(16);not null" json:"response_type"`
	SQL            *string   `gorm:"type:text" json:"sql"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Turn) TableName() string { return "conversation_turns" }

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is one queued batch question.
type Job struct {
	ID string `gorm:"primaryKey;size:26"` // ULID length

	ConversationID string `gorm:"size:26;not null;index:uniq_convo_idempo,unique,priority:1"`
	Question       string `gorm:"type:text;not null"`

	IdempotencyKey *string `gorm:"type:varchar(128);index:uniq_convo_idempo,unique,priority:2" json:"idempotency_key"`

	Status JobStatus `gorm:"type:varchar(16);index;not null"`

	// Filled when succeeded
	ResultTurnID *uint64 `gorm:"index"`

	// Filled when failed
	Error *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Job) TableName() string { return "question_jobs" }
