package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/common"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/convo"
)

const maxBatchQuestions = 20

type batchReq struct {
	Questions      []string `json:"questions" binding:"required"`
	IdempotencyKey string   `json:"idempotency_key"`
}

// EnqueueBatch queues one job per question. With an idempotency key the
// whole batch is retry-safe: replays return the already-created jobs.
func (h *Handler) EnqueueBatch(c *gin.Context) {
	conversationID, ok := conversationIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	if h.Jobs == nil {
		common.Fail(c, http.StatusServiceUnavailable, 50302, "batch processing not configured")
		return
	}

	var req batchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if len(req.Questions) == 0 || len(req.Questions) > maxBatchQuestions {
		common.Fail(c, http.StatusBadRequest, 10003, "questions must contain between 1 and 20 entries")
		return
	}

	type jobInfo struct {
		JobID    string `json:"job_id"`
		Question string `json:"question"`
		Status   string `json:"status"`
	}
	jobs := make([]jobInfo, 0, len(req.Questions))

	for i, question := range req.Questions {
		question = strings.TrimSpace(question)
		if question == "" {
			continue
		}

		job := &convo.Job{
			ID:             convo.NewID(),
			ConversationID: conversationID,
			Question:       question,
			Status:         convo.JobQueued,
		}
		if req.IdempotencyKey != "" {
			key := req.IdempotencyKey + ":" + strconv.Itoa(i)
			job.IdempotencyKey = &key
		}

		created, isNew, err := h.Repo.CreateJobOrGetExisting(c.Request.Context(), job)
		if err != nil {
			common.Fail(c, http.StatusInternalServerError, 50007, "failed to create job")
			return
		}
		if isNew {
			if err := h.Jobs.PublishJob(c.Request.Context(), created.ID); err != nil {
				h.Log.Error("publish job failed", zap.String("job", created.ID), zap.Error(err))
				_ = h.Repo.MarkJobFailed(c.Request.Context(), created.ID, "enqueue failed")
				common.Fail(c, http.StatusInternalServerError, 50008, "failed to enqueue job")
				return
			}
		}
		jobs = append(jobs, jobInfo{JobID: created.ID, Question: question, Status: string(created.Status)})
	}

	common.OK(c, gin.H{"jobs": jobs})
}

// GetJob reports a job's lifecycle status and error, if any.
func (h *Handler) GetJob(c *gin.Context) {
	conversationID, ok := conversationIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	job, err := h.Repo.GetJobByID(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40005, "job not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50009, "failed to load job")
		return
	}
	if job.ConversationID != conversationID {
		common.Fail(c, http.StatusNotFound, 40005, "job not found")
		return
	}

	common.OK(c, gin.H{
		"job_id":         job.ID,
		"question":       job.Question,
		"status":         job.Status,
		"result_turn_id": job.ResultTurnID,
		"error":          job.Error,
	})
}
