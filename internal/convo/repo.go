package convo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

const answerSnippetLen = 200

type Repo struct {
	db           *gorm.DB
	historyLimit int
}

func NewRepo(db *gorm.DB, historyLimit int) *Repo {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &Repo{db: db, historyLimit: historyLimit}
}

func (r *Repo) CreateConversation(ctx context.Context, c *Conversation) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *Repo) GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	var c Conversation
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// AppendTurn inserts the turn and evicts the oldest entries beyond the
// history limit, so a conversation's stored context stays bounded no matter
// how long it runs.
func (r *Repo) AppendTurn(ctx context.Context, t *Turn) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		var keepIDs []uint64
		if err := tx.Model(&Turn{}).
			Where("conversation_id = ?", t.ConversationID).
			Order("id DESC").
			Limit(r.historyLimit).
			Pluck("id", &keepIDs).Error; err != nil {
			return err
		}
		if len(keepIDs) < r.historyLimit {
			return nil
		}
		return tx.
			Where("conversation_id = ? AND id < ?", t.ConversationID, keepIDs[len(keepIDs)-1]).
			Delete(&Turn{}).Error
	})
}

// RecentTurns returns up to limit turns in ASC id order (oldest -> newest).
func (r *Repo) RecentTurns(ctx context.Context, conversationID string, limit int) ([]Turn, error) {
	if limit <= 0 || limit > r.historyLimit {
		limit = r.historyLimit
	}
	var turns []Turn
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id DESC").
		Limit(limit).
		Find(&turns).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (r *Repo) ClearTurns(ctx context.Context, conversationID string) error {
	return r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Delete(&Turn{}).Error
}

// HistoryText renders prior turns as the prompt context block. Answers are
// clipped so the block stays small relative to the schema section.
func HistoryText(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Previous conversation:\n")
	for _, t := range turns {
		answer := t.Answer
		if len(answer) > answerSnippetLen {
			answer = answer[:answerSnippetLen] + "..."
		}
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", t.Question, answer)
	}
	return b.String()
}

// Job CRUD

func (r *Repo) CreateJob(ctx context.Context, job *Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *Repo) GetJobByID(ctx context.Context, id string) (*Job, error) {
	var j Job
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Repo) UpdateJobStatusRunning(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ?", id, JobQueued).
		Update("status", JobRunning).Error
}

func (r *Repo) MarkJobSucceeded(ctx context.Context, id string, turnID uint64) error {
	var result any
	if turnID > 0 {
		result = turnID
	}
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":         JobSucceeded,
			"result_turn_id": result,
			"error":          nil,
		}).Error
}

func (r *Repo) MarkJobFailed(ctx context.Context, id string, errMsg string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":         JobFailed,
			"error":          errMsg,
			"result_turn_id": nil,
		}).Error
}

func (r *Repo) GetJobByIdempotencyKey(ctx context.Context, conversationID, key string) (*Job, error) {
	var job Job
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND idempotency_key = ?", conversationID, key).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// CreateJobOrGetExisting tries to create a job, but if (conversation_id,
// idempotency_key) already exists, it returns the existing job instead.
func (r *Repo) CreateJobOrGetExisting(ctx context.Context, job *Job) (*Job, bool, error) {
	if job.IdempotencyKey == nil || *job.IdempotencyKey == "" {
		job.IdempotencyKey = nil
		if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
			return nil, false, err
		}
		return job, true, nil
	}

	err := r.db.WithContext(ctx).Create(job).Error
	if err == nil {
		return job, true, nil
	}

	existing, getErr := r.GetJobByIdempotencyKey(ctx, job.ConversationID, *job.IdempotencyKey)
	if getErr == nil {
		return existing, false, nil
	}

	if errors.Is(getErr, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	return nil, false, getErr
}
