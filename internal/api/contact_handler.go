package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard/internal/contact"
	"jobboard/internal/pagination"
)

// ContactHandler 处理访客留言。
type ContactHandler struct {
	contacts *contact.Service
}

func NewContactHandler(svc *contact.Service) *ContactHandler {
	return &ContactHandler{contacts: svc}
}

// Submit POST /contacts
func (h *ContactHandler) Submit(c *gin.Context) {
	var in contact.Submission
	if !bindJSON(c, &in, false) {
		return
	}
	msg, err := h.contacts.Submit(c.Request.Context(), in)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Message received", "id": msg.ID})
}

// List GET /contacts?page&limit
func (h *ContactHandler) List(c *gin.Context) {
	res, err := h.contacts.List(c.Request.Context(), pagination.Parse(c.Query("page"), c.Query("limit")))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
