package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, "Access URL cannot be empty", GetErrorMessage(ConfigEmptyAccessURL))
	assert.Equal(t, "A balance check is already in progress", GetErrorMessage(MonitorAlreadyRunning))
	assert.Equal(t, "An error occurred", GetErrorMessage(ErrorCode("NOPE_999")))
}

func TestIsValidErrorCode(t *testing.T) {
	assert.True(t, IsValidErrorCode(UpstreamRequestFailed))
	assert.True(t, IsValidErrorCode(NotifyNoGateway))
	assert.False(t, IsValidErrorCode(ErrorCode("NOPE_999")))
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(ConfigInvalidAccessURL, "trace-123")

	assert.Equal(t, string(ConfigInvalidAccessURL), resp.Error.Code)
	assert.Equal(t, GetErrorMessage(ConfigInvalidAccessURL), resp.Error.Message)
	assert.Equal(t, "trace-123", resp.Error.TraceID)
	assert.Empty(t, resp.Error.Details)
}

func TestNewErrorResponseOptions(t *testing.T) {
	resp := NewErrorResponse(UpstreamRequestFailed, "trace-123",
		WithMessage("bridge returned 403"),
		WithDetails("status: 403", "body: access revoked"),
	)

	assert.Equal(t, "bridge returned 403", resp.Error.Message)
	assert.Equal(t, []string{"status: 403", "body: access revoked"}, resp.Error.Details)
}

func TestNewValidationError(t *testing.T) {
	resp := NewValidationError(map[string]string{"url": "url is required"}, "trace-123")

	assert.Equal(t, string(ValidationGeneral), resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "url: url is required", resp.Error.Details[0])
}

func TestWrapSystemError(t *testing.T) {
	internal := stderrors.New("disk full")
	resp, err := WrapSystemError(internal, "trace-123")

	assert.Same(t, internal, err)
	assert.Equal(t, string(SystemInternalError), resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "disk full")
}

func TestGetHTTPStatus(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ValidationGeneral, http.StatusBadRequest},
		{ConfigEmptyAccessURL, http.StatusBadRequest},
		{ConfigInvalidSchedule, http.StatusBadRequest},
		{MonitorAlreadyRunning, http.StatusConflict},
		{NotifyNoDestination, http.StatusUnprocessableEntity},
		{SystemRateLimitExceeded, http.StatusTooManyRequests},
		{UpstreamRequestFailed, http.StatusBadGateway},
		{MonitorRunFailed, http.StatusBadGateway},
		{UpstreamUnavailable, http.StatusServiceUnavailable},
		{SystemInternalError, http.StatusInternalServerError},
		{ErrorCode("NOPE_999"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, GetHTTPStatus(tc.code), string(tc.code))
	}
}

func TestErrorClassification(t *testing.T) {
	client := NewErrorResponse(MonitorAlreadyRunning, "t")
	assert.True(t, client.IsClientError())
	assert.False(t, client.IsServerError())

	server := NewErrorResponse(UpstreamRequestFailed, "t")
	assert.False(t, server.IsClientError())
	assert.True(t, server.IsServerError())
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponse(NotifyNoGateway, "trace-123")
	data, err := resp.ToJSON()
	require.NoError(t, err)

	assert.Contains(t, string(data), `"code":"NOTIFY_003"`)
	assert.Contains(t, string(data), `"trace_id":"trace-123"`)
}
