package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/creation-studio/pkg/errcode"
)

func init() { gin.SetMode(gin.TestMode) }

func render(t *testing.T, fn func(c *gin.Context)) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	fn(c)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestSuccessMergesFields(t *testing.T) {
	code, body := render(t, func(c *gin.Context) {
		Success(c, gin.H{"content": "hello", "count": 2})
	})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "hello", body["content"])
	assert.EqualValues(t, 2, body["count"])
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", errcode.Validation("Creation ID is required"), http.StatusBadRequest, "Creation ID is required"},
		{"free limit", errcode.FreeLimit(), http.StatusPaymentRequired, "Limit Reached Upgrade to continue."},
		{"premium", errcode.PremiumRequired(), http.StatusForbidden, "This feature is only available for premium subscriptions."},
		{"not found", errcode.NotFound("Creation not found"), http.StatusNotFound, "Creation not found"},
		{"wrapped timeout", fmt.Errorf("store: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "Request timed out"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := render(t, func(c *gin.Context) { Error(c, tt.err) })
			assert.Equal(t, tt.status, code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}
