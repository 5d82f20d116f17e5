package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_ThroughWrapping(t *testing.T) {
	sentinel := New(ErrCodeNotFound, "no captions available")
	wrapped := fmt.Errorf("youtube abc123: %w", sentinel)

	assert.True(t, Is(wrapped, ErrCodeNotFound))
	assert.False(t, Is(wrapped, ErrCodeExternalService))
	assert.True(t, stderrors.Is(wrapped, sentinel))
}

func TestAppError_IsMatchesCodeAndMessage(t *testing.T) {
	sentinel := New(ErrCodeNotFound, "no captions available")
	same := New(ErrCodeNotFound, "no captions available").WithDetail("video_id", "x")
	other := New(ErrCodeNotFound, "video not found")

	assert.True(t, stderrors.Is(same, sentinel))
	assert.False(t, stderrors.Is(other, sentinel))
}

func TestGetHTTPCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NotFound("video", "abc"), http.StatusNotFound},
		{ValidationError("url", "unsupported"), http.StatusBadRequest},
		{ExternalServiceError("notion", stderrors.New("boom")), http.StatusBadGateway},
		{ConfigRequired("OPENAI_API_KEY"), http.StatusServiceUnavailable},
		{stderrors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GetHTTPCode(tt.err), tt.err.Error())
	}
}

func TestAppError_ErrorString(t *testing.T) {
	err := Wrap(stderrors.New("dial tcp"), ErrCodeExternalService, "notion query failed")
	assert.Equal(t, "EXTERNAL_SERVICE: notion query failed (caused by: dial tcp)", err.Error())
	assert.Equal(t, ErrCodeExternalService, GetCode(fmt.Errorf("ctx: %w", err)))
}
