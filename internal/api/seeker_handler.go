package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard/internal/auth"
	"jobboard/internal/database"
	"jobboard/internal/listing"
	"jobboard/internal/pagination"
)

const seekerNotFound = "Job seeker not found"

// SeekerHandler 暴露求职者登记与审核接口。
type SeekerHandler struct {
	seekers *listing.SeekerService
}

func NewSeekerHandler(seekers *listing.SeekerService) *SeekerHandler {
	return &SeekerHandler{seekers: seekers}
}

// Submit POST /job-seekers
func (h *SeekerHandler) Submit(c *gin.Context) {
	var in listing.SeekerSubmission
	if !bindJSON(c, &in, false) {
		return
	}
	seeker, err := h.seekers.Submit(c.Request.Context(), in)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job seeker registered successfully", "jobSeeker": seeker})
}

// ListPublic GET /job-seekers?page&limit
func (h *SeekerHandler) ListPublic(c *gin.Context) {
	res, err := h.seekers.ListPublic(c.Request.Context(), pagination.Parse(c.Query("page"), c.Query("limit")))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListAll GET /job-seekers/all?status&page&limit
func (h *SeekerHandler) ListAll(c *gin.Context) {
	res, err := h.seekers.ListAll(c.Request.Context(), c.Query("status"), pagination.Parse(c.Query("page"), c.Query("limit")))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListPending GET /job-seekers/pending
func (h *SeekerHandler) ListPending(c *gin.Context) {
	seekers, err := h.seekers.ListPending(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, seekers)
}

type seekerActionRequest struct {
	ApprovedBy string `json:"approvedBy"`
	RejectedBy string `json:"rejectedBy"`
}

type seekerAction func(ctx context.Context, session auth.Session, id uint, req seekerActionRequest) (*database.JobSeeker, error)

func (h *SeekerHandler) transition(message string, action seekerAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := sessionOrAbort(c)
		if !ok {
			return
		}
		id, ok := pathID(c, seekerNotFound)
		if !ok {
			return
		}
		var req seekerActionRequest
		if !bindJSON(c, &req, true) {
			return
		}

		seeker, err := action(c.Request.Context(), session, id, req)
		if err != nil {
			Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": message, "jobSeeker": seeker})
	}
}

// Approve PUT /job-seekers/:id/approve
func (h *SeekerHandler) Approve() gin.HandlerFunc {
	return h.transition("Job seeker approved successfully", func(ctx context.Context, s auth.Session, id uint, req seekerActionRequest) (*database.JobSeeker, error) {
		return h.seekers.Approve(ctx, s, id, req.ApprovedBy)
	})
}

// Reject PUT /job-seekers/:id/reject，兼容 rejectedBy 与 approvedBy 两种字段。
func (h *SeekerHandler) Reject() gin.HandlerFunc {
	return h.transition("Job seeker rejected successfully", func(ctx context.Context, s auth.Session, id uint, req seekerActionRequest) (*database.JobSeeker, error) {
		actor := req.RejectedBy
		if actor == "" {
			actor = req.ApprovedBy
		}
		return h.seekers.Reject(ctx, s, id, actor)
	})
}

// Deactivate PUT /job-seekers/:id/inactive
func (h *SeekerHandler) Deactivate() gin.HandlerFunc {
	return h.transition("Job seeker marked as inactive successfully", func(ctx context.Context, s auth.Session, id uint, _ seekerActionRequest) (*database.JobSeeker, error) {
		return h.seekers.Deactivate(ctx, s, id)
	})
}

// ResetPending PUT /job-seekers/:id/pending
func (h *SeekerHandler) ResetPending() gin.HandlerFunc {
	return h.transition("Job seeker moved back to pending successfully", func(ctx context.Context, s auth.Session, id uint, _ seekerActionRequest) (*database.JobSeeker, error) {
		return h.seekers.ResetPending(ctx, s, id)
	})
}
