// Package providers implements the language-model provider layer.
//
// # Overview
//
// Callers build a provider-agnostic CompletionRequest and receive a
// normalized CompletionResponse. Adapters (see the gemini subpackage)
// translate both to the wire format of a specific service.
//
// # Architecture
//
//  1. Provider Interface - the contract adapters implement
//  2. Base HTTP Provider - connection pooling, per-attempt timeout, bounded
//     retry with exponential backoff, health tracking
//  3. Adapters - provider-specific request/response transformation
//
// # Retry Policy
//
// DoRequest retries network failures, per-attempt timeouts and 5xx responses
// up to MaxRetries times, waiting RetryBackoff before the first retry and
// doubling the delay afterwards. 400, 401, 403, 404 and 429 responses are
// returned immediately. A cancelled or expired caller context stops the loop
// at once.
//
// # Error Handling
//
// Errors are typed so callers can classify them with errors.As:
//
//   - AuthError: 401 or 403
//   - RateLimitError: 429, with RetryAfter when the header is present
//   - TimeoutError: the attempt or the caller's deadline expired
//   - ParseError: the response body could not be decoded
//   - ModelNotFoundError: the service does not know the model
//   - ValidationError: the request was rejected before sending
//   - ConfigError: the adapter configuration is unusable
//   - ProviderError: any other failure, with the status code when known
//
// ErrorType maps an error to a short label used as a metric dimension.
//
// # Health Monitoring
//
// Every request updates the provider's health record. Three consecutive
// failures mark the provider unhealthy; any success restores it.
// StartHealthChecker additionally probes the provider in the background.
//
// # Thread Safety
//
// Providers are safe for concurrent use.
package providers
