package service

import "github.com/timmy/thumblify/internal/domain"

// ErrorKind classifies a generation failure; each kind maps to one
// client-visible outcome.
type ErrorKind string

const (
	// KindAuth: caller is not authenticated; rejected before any record exists.
	KindAuth ErrorKind = "auth"

	// KindValidation: request fields failed validation; rejected before any
	// record exists.
	KindValidation ErrorKind = "validation"

	// KindProviderEmpty: provider returned an empty payload.
	KindProviderEmpty ErrorKind = "provider_empty_result"

	// KindProviderCorrupt: provider payload is below the plausible size
	// threshold.
	KindProviderCorrupt ErrorKind = "provider_corrupt_result"

	// KindProviderAuth: provider rejected our credentials (401/403 upstream).
	KindProviderAuth ErrorKind = "provider_auth_error"

	// KindProviderRateLimited: provider returned 429.
	KindProviderRateLimited ErrorKind = "provider_rate_limited"

	// KindProviderBadRequest: provider returned 400; the upstream detail is
	// surfaced to the client.
	KindProviderBadRequest ErrorKind = "provider_bad_request"

	// KindProviderQuota: provider returned 402, credits exhausted.
	KindProviderQuota ErrorKind = "provider_quota_exceeded"

	// KindProviderFailed: any other provider failure, including transport
	// errors and timeouts.
	KindProviderFailed ErrorKind = "provider_failed"

	// KindStorageConfig: object store is misconfigured.
	KindStorageConfig ErrorKind = "storage_config_error"

	// KindStorageUpload: object store upload exhausted its retries.
	KindStorageUpload ErrorKind = "storage_upload_failed"

	// KindInternal: unexpected failure inside the pipeline.
	KindInternal ErrorKind = "internal"
)

// GenerationError is the typed failure returned by the generation pipeline.
// When a pending record was already created, Thumbnail carries its terminal
// (failed) state so the client can render it instead of polling forever.
type GenerationError struct {
	Kind      ErrorKind
	Message   string
	Thumbnail *domain.Thumbnail
	Err       error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to the response status the original API
// contract promises.
func (e *GenerationError) HTTPStatus() int {
	switch e.Kind {
	case KindAuth:
		return 401
	case KindValidation, KindProviderBadRequest:
		return 400
	case KindProviderQuota:
		return 402
	case KindProviderRateLimited:
		return 429
	default:
		return 500
	}
}

// RetryAfterSeconds returns the retry hint for rate-limited failures, zero
// otherwise.
func (e *GenerationError) RetryAfterSeconds() int {
	if e.Kind == KindProviderRateLimited {
		return 60
	}
	return 0
}
