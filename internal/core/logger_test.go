package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestInit_PrettyLog tests logger initialization with pretty logging
func TestInit_PrettyLog(t *testing.T) {
	err := Init(true, "info")
	require.NoError(t, err)

	// Verify logger is initialized
	logger := zap.L()
	assert.NotNil(t, logger)

	// Test that we can log
	logger.Info("Test message")
}

// TestInit_JSONLog tests logger initialization with JSON logging
func TestInit_JSONLog(t *testing.T) {
	err := Init(false, "")
	require.NoError(t, err)

	logger := zap.L()
	assert.NotNil(t, logger)
	logger.Info("Test message")
}

// TestInit_InvalidLevel tests the error for an unparseable log level
func TestInit_InvalidLevel(t *testing.T) {
	err := Init(false, "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

// TestLogToolCall_Success tests logging a successful tool call
func TestLogToolCall_Success(t *testing.T) {
	// Set up observer to capture logs
	observed, logs := observer.New(zap.InfoLevel)
	logger := zap.New(observed)
	zap.ReplaceGlobals(logger)

	LogToolCall("load_sequence", 1.5, nil)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Tool call completed successfully", entry.Message)
	assert.Equal(t, zap.InfoLevel, entry.Level)

	assert.Equal(t, "load_sequence", entry.ContextMap()["tool"])
	assert.Equal(t, 1.5, entry.ContextMap()["duration_seconds"])
	assert.Equal(t, true, entry.ContextMap()["success"])
}

// TestLogToolCall_Error tests logging a failed tool call
func TestLogToolCall_Error(t *testing.T) {
	observed, logs := observer.New(zap.ErrorLevel)
	logger := zap.New(observed)
	zap.ReplaceGlobals(logger)

	LogToolCall("get_status", 0.2, errors.New("device unreachable"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Tool call failed", entry.Message)
	assert.Equal(t, zap.ErrorLevel, entry.Level)
	assert.Equal(t, false, entry.ContextMap()["success"])
	assert.NotNil(t, entry.ContextMap()["error"])
}

// TestLogDeferredError_WithError tests LogDeferredError when the function
// returns an error
func TestLogDeferredError_WithError(t *testing.T) {
	observed, logs := observer.New(zap.ErrorLevel)
	logger := zap.New(observed)
	zap.ReplaceGlobals(logger)

	testErr := errors.New("deferred error")
	LogDeferredError(func() error {
		return testErr
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Deferred call failed", entry.Message)
	assert.Equal(t, zap.ErrorLevel, entry.Level)
	assert.NotNil(t, entry.ContextMap()["error"])
}

// TestLogDeferredError_NoError tests LogDeferredError when the function
// returns no error
func TestLogDeferredError_NoError(t *testing.T) {
	observed, logs := observer.New(zap.ErrorLevel)
	logger := zap.New(observed)
	zap.ReplaceGlobals(logger)

	LogDeferredError(func() error {
		return nil
	})

	// No error means no log
	assert.Equal(t, 0, logs.Len())
}

// TestLogPanicRecovery tests that recovered panics are logged with their
// location
func TestLogPanicRecovery(t *testing.T) {
	observed, logs := observer.New(zap.ErrorLevel)
	logger := zap.New(observed)
	zap.ReplaceGlobals(logger)

	LogPanicRecovery("tool handler", "boom")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Recovered from panic", entry.Message)
	assert.Equal(t, "tool handler", entry.ContextMap()["where"])
}

// TestGetEnv tests prefixed environment variable lookup
func TestGetEnv(t *testing.T) {
	t.Run("standard name wins", func(t *testing.T) {
		t.Setenv("DEVICE_BASE_URL", "http://plain")
		t.Setenv("CADENZA_DEVICE_BASE_URL", "http://prefixed")
		assert.Equal(t, "http://plain", GetEnv("DEVICE_BASE_URL"))
	})

	t.Run("prefixed fallback", func(t *testing.T) {
		t.Setenv("CADENZA_DEVICE_BASE_URL", "http://prefixed")
		assert.Equal(t, "http://prefixed", GetEnv("DEVICE_BASE_URL"))
	})

	t.Run("unset", func(t *testing.T) {
		assert.Equal(t, "", GetEnv("CADENZA_TEST_UNSET_KEY"))
	})
}
