package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard/internal/listing"
	"jobboard/internal/pagination"
)

const jobNotFound = "Job not found"

// JobHandler 暴露职位的公开检索、提交与后台审核接口。
type JobHandler struct {
	jobs *listing.JobService
}

func NewJobHandler(jobs *listing.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// Search GET /jobs?keyword&category&subcategory&district&status&page&limit
func (h *JobHandler) Search(c *gin.Context) {
	res, err := h.jobs.Search(c.Request.Context(), listing.JobQuery{
		Keyword:     c.Query("keyword"),
		Category:    c.Query("category"),
		Subcategory: c.Query("subcategory"),
		District:    c.Query("district"),
		Status:      c.Query("status"),
		Page:        pagination.Parse(c.Query("page"), c.Query("limit")),
	})
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Submit POST /jobs
func (h *JobHandler) Submit(c *gin.Context) {
	var in listing.JobSubmission
	if !bindJSON(c, &in, false) {
		return
	}
	job, err := h.jobs.Submit(c.Request.Context(), in)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job posted successfully", "job": job})
}

// Pending GET /jobs/pending
func (h *JobHandler) Pending(c *gin.Context) {
	jobs, err := h.jobs.Pending(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

type approveJobRequest struct {
	ApprovedBy string `json:"approvedBy"`
}

// Approve PUT /jobs/:id/approve
func (h *JobHandler) Approve(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, jobNotFound)
	if !ok {
		return
	}
	var req approveJobRequest
	if !bindJSON(c, &req, true) {
		return
	}

	job, err := h.jobs.Approve(c.Request.Context(), session, id, req.ApprovedBy)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job approved successfully", "job": job})
}

type rejectJobRequest struct {
	RejectedBy string `json:"rejectedBy"`
}

// Reject PUT /jobs/:id/reject
func (h *JobHandler) Reject(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, jobNotFound)
	if !ok {
		return
	}
	var req rejectJobRequest
	if !bindJSON(c, &req, true) {
		return
	}

	job, err := h.jobs.Reject(c.Request.Context(), session, id, req.RejectedBy)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job rejected successfully", "job": job})
}

// Deactivate PUT /jobs/:id/inactive
func (h *JobHandler) Deactivate(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, jobNotFound)
	if !ok {
		return
	}

	job, err := h.jobs.Deactivate(c.Request.Context(), session, id)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job marked as inactive", "job": job})
}
