package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"jobboard/internal/errcode"
)

func TestFailMapsErrorCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name    string
		err     error
		status  int
		code    errcode.Code
		message string
	}{
		{"plain error is hidden", errors.New("dial tcp: refused"), http.StatusInternalServerError, errcode.CodeUpstream, "Internal server error"},
		{"wrapped conflict", fmt.Errorf("save: %w", errcode.Conflict("Category already exists")), http.StatusConflict, errcode.CodeConflict, "Category already exists"},
		{"not found", errcode.NotFound("Job not found"), http.StatusNotFound, errcode.CodeNotFound, "Job not found"},
		{"upstream keeps message", errcode.Upstream(errors.New("boom"), "Failed to fetch jobs"), http.StatusInternalServerError, errcode.CodeUpstream, "Failed to fetch jobs"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			Fail(c, tc.err)

			expectStatus(t, w, tc.status)
			body := decode[errorBody](t, w)
			if body.Code != string(tc.code) || body.Error != tc.message {
				t.Fatalf("unexpected body %+v", body)
			}
		})
	}
}
