// Package engineerr implements the error taxonomy for the
// indexing-and-retrieval engine: a small, closed set of semantic codes
// used to tell callers what kind of failure occurred, independent of any
// particular transport's status-code mapping.
package engineerr

import (
	"errors"
	"fmt"

	"collector/internal/datasource"
)

// Code is a semantic error code for the engine's failure taxonomy.
type Code string

const (
	// CodeStoreUnavailable means the vector store refused a call. Surfaced
	// to callers for write operations; logged-and-swallowed for reads in
	// the fan-out paths (Query Engine, Navigator).
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
	// CodeEmbeddingFailure means the embedding provider refused. Surfaced
	// to callers of search with searchType in {vector, hybrid}.
	CodeEmbeddingFailure Code = "EMBEDDING_FAILURE"
	// CodeNotFound marks a lookup miss. Never surfaced as an error by
	// deleteDocument, getDocument, or navigate — those return nil/empty
	// instead. NewNotFound builds one; no engine operation returns it.
	CodeNotFound Code = "NOT_FOUND"
	// CodeMalformedInput means a non-string id, non-text content, or
	// invalid DataSource. Surfaced before any store call.
	CodeMalformedInput Code = "MALFORMED_INPUT"
	// CodePartialBatchFailure means a later batch in an upsert call failed
	// after earlier batches already succeeded.
	CodePartialBatchFailure Code = "PARTIAL_BATCH_FAILURE"
)

// EngineError is the concrete error type returned across package
// boundaries in this module.
type EngineError struct {
	Code    Code
	Message string
	Source  datasource.DataSource
	Cause   error
}

func (e *EngineError) Error() string {
	if e.Source != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s [%s/%s]: %v", e.Message, e.Code, e.Source, e.Cause)
		}
		return fmt.Sprintf("%s [%s/%s]", e.Message, e.Code, e.Source)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s [%s]: %v", e.Message, e.Code, e.Cause)
	}
	return fmt.Sprintf("%s [%s]", e.Message, e.Code)
}

func (e *EngineError) Unwrap() error { return e.Cause }

// codeMatches reports whether e carries code. Code comparisons go through
// IsCode, which finds the *EngineError with errors.As; errors.Is against a
// bare Code value does not match.
func (e *EngineError) codeMatches(code Code) bool { return e.Code == code }

// NewStoreUnavailable wraps a vector-store failure.
func NewStoreUnavailable(source datasource.DataSource, cause error) *EngineError {
	return &EngineError{Code: CodeStoreUnavailable, Message: "vector store unavailable", Source: source, Cause: cause}
}

// NewEmbeddingFailure wraps an embedding-provider failure.
func NewEmbeddingFailure(cause error) *EngineError {
	return &EngineError{Code: CodeEmbeddingFailure, Message: "embedding provider failed", Cause: cause}
}

// NewNotFound builds a not-found signal for a given source/id.
func NewNotFound(source datasource.DataSource, id string) *EngineError {
	return &EngineError{Code: CodeNotFound, Message: fmt.Sprintf("no item with id %q", id), Source: source}
}

// NewMalformedInput builds a validation failure raised before any store call.
func NewMalformedInput(reason string) *EngineError {
	return &EngineError{Code: CodeMalformedInput, Message: reason}
}

// NewPartialBatchFailure wraps a failed batch in the middle of an upsert call.
func NewPartialBatchFailure(source datasource.DataSource, batchIndex int, cause error) *EngineError {
	return &EngineError{
		Code:    CodePartialBatchFailure,
		Message: fmt.Sprintf("batch %d failed after earlier batches committed", batchIndex),
		Source:  source,
		Cause:   cause,
	}
}

// IsCode reports whether err is (or wraps) an *EngineError with the given code.
func IsCode(err error, code Code) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.codeMatches(code)
	}
	return false
}

// IsNotFound is a convenience wrapper over IsCode(err, CodeNotFound).
func IsNotFound(err error) bool { return IsCode(err, CodeNotFound) }
