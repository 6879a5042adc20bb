package engineerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"collector/internal/datasource"
)

func TestIsCode_MatchesWrappedError(t *testing.T) {
	base := NewStoreUnavailable(datasource.Jira, errors.New("connection refused"))
	wrapped := fmt.Errorf("upsert failed: %w", base)

	assert.True(t, IsCode(wrapped, CodeStoreUnavailable))
	assert.False(t, IsCode(wrapped, CodeNotFound))
}

func TestIsNotFound(t *testing.T) {
	err := NewNotFound(datasource.Slack, "missing-id")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(errors.New("plain error")))
}

func TestEngineError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewEmbeddingFailure(cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestEngineError_ErrorIncludesSourceAndCause(t *testing.T) {
	err := NewPartialBatchFailure(datasource.GitHub, 2, errors.New("write timeout"))
	msg := err.Error()
	assert.Contains(t, msg, "PARTIAL_BATCH_FAILURE")
	assert.Contains(t, msg, "github")
	assert.Contains(t, msg, "write timeout")
}

func TestNewMalformedInput_HasNoSource(t *testing.T) {
	err := NewMalformedInput("bad id")
	assert.Equal(t, datasource.DataSource(""), err.Source)
	assert.Contains(t, err.Error(), "MALFORMED_INPUT")
}
