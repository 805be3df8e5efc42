// Package errors provides centralized error definitions for the connector.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Authorization errors.
var (
	// ErrNotAuthenticated indicates the user session never completed login.
	// It aborts a sync pass and is surfaced to the trigger caller.
	ErrNotAuthenticated = errors.New("telegram user is not authorized")

	// ErrSignupNotSupported indicates the login flow reached the sign-up step.
	ErrSignupNotSupported = errors.New("signup not supported")
)

// Platform and entity resolution errors.
var (
	// ErrEntityNotFound indicates an author or peer could not be resolved.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrUnsupportedPeer indicates a peer type the connector does not handle.
	ErrUnsupportedPeer = errors.New("unsupported peer type")

	// ErrFloodWait indicates Telegram kept asking to back off after retries.
	ErrFloodWait = errors.New("flood wait retries exhausted")
)

// Storage errors.
var (
	// ErrBatchWrite indicates the feed batch transaction was rolled back.
	// Nothing from the batch was applied; the next run re-derives it.
	ErrBatchWrite = errors.New("feed batch write failed")

	// ErrContentIDMissing indicates a text value was absent from the content lookup.
	ErrContentIDMissing = errors.New("content id missing for message text")

	// ErrSyncInProgress indicates another sync pass holds the sync lock.
	ErrSyncInProgress = errors.New("sync already in progress")
)

// Web fetch errors.
var (
	// ErrHTTPStatusNotOK indicates an HTTP response with a non-200 status code.
	ErrHTTPStatusNotOK = errors.New("HTTP status not OK")

	// ErrTooManyRedirects indicates too many HTTP redirects.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// Configuration errors.
var (
	// ErrInvalidConfig indicates a configuration value failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Embedding errors.
var (
	// ErrEmptyEmbedding indicates the embeddings API returned no vectors.
	ErrEmptyEmbedding = errors.New("empty embedding response")
)
