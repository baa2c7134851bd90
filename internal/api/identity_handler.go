package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard/internal/identity"
)

// IdentityHandler 提供提交前的重复身份检查。
type IdentityHandler struct {
	gate *identity.Gate
}

func NewIdentityHandler(gate *identity.Gate) *IdentityHandler {
	return &IdentityHandler{gate: gate}
}

// CheckAadhaar GET /aadhaar/check?number=
func (h *IdentityHandler) CheckAadhaar(c *gin.Context) {
	res, err := h.gate.CheckAadhaar(c.Request.Context(), c.Query("number"))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CheckPhone GET /phone/check?number=
func (h *IdentityHandler) CheckPhone(c *gin.Context) {
	res, err := h.gate.CheckPhone(c.Request.Context(), c.Query("number"))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
