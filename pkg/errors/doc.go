// Package errors provides structured error handling with error codes for simple-keyauth.
//
// Every failure that can leave the service carries exactly one ErrorCode from a
// closed set, and every code maps to exactly one HTTP status.
//
// # Basic Usage
//
//	import "github.com/tendant/simple-keyauth/pkg/errors"
//
//	// Create a simple error
//	err := errors.BadRequest("user_id is required")
//
//	// Wrap a driver error
//	err := errors.InternalWrap(dbErr, "failed to query accounts")
//
//	// Uniqueness violations carry the offending field
//	err := errors.DuplicateKey("user_id", pgErr)
//	if errors.IsDuplicateField(err, "api_key") {
//		// mint a new key and retry
//	}
//
// # HTTP Status Code Mapping
//
//   - ErrCodeUnauthenticated → 401 Unauthorized
//   - ErrCodeForbidden → 403 Forbidden
//   - ErrCodeNotFound → 404 Not Found
//   - ErrCodeBadRequest → 400 Bad Request
//   - ErrCodeDuplicateKey → 409 Conflict
//   - ErrCodeRateLimitExceeded → 429 Too Many Requests
//   - ErrCodePasswordHash → 500 Internal Server Error
//   - ErrCodeInternal → 500 Internal Server Error
//
// Unstructured errors are treated as ErrCodeInternal.
//
// # HTTP Responses
//
// Handlers write failures with WriteHTTP, which renders
//
//	{"error": "<message>", "code": "<CODE>", "status": <http status>}
//
// Internal failures never expose the wrapped cause in the response body.
package errors
