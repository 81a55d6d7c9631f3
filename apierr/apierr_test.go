package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, Status(KindValidation))
	assert.Equal(t, http.StatusBadRequest, Status(KindConflict))
	assert.Equal(t, http.StatusNotFound, Status(KindNotFound))
	assert.Equal(t, http.StatusInternalServerError, Status(KindInternal))
}

func TestRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "validation",
			err:         Validation("title_required", "title is required"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    "title_required",
			wantMessage: "title is required",
		},
		{
			name:        "wrapped not found",
			err:         fmt.Errorf("lookup: %w", NotFound("", "tool not found")),
			wantStatus:  http.StatusNotFound,
			wantCode:    "not_found",
			wantMessage: "tool not found",
		},
		{
			name:        "plain error becomes internal",
			err:         errors.New("disk full"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "internal_error",
			wantMessage: "upload failed: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)

			Respond(c, tt.err, "upload failed")

			require.Equal(t, tt.wantStatus, rec.Code)
			var body Result
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantMessage, body.Message)
		})
	}
}
