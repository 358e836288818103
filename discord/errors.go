package discord

import "errors"

var (
	// ErrExchangeFailed means the provider rejected the authorization code.
	ErrExchangeFailed = errors.New("authorization code exchange failed")

	// ErrRefreshFailed means the provider rejected the refresh token. The
	// old cache entry is left in place, so the session must be discarded.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrMemberQueryFailed means the guild member lookup errored.
	ErrMemberQueryFailed = errors.New("guild member query failed")

	// ErrUnknownToken means the token has no cache entry, typically after
	// a process restart.
	ErrUnknownToken = errors.New("unknown access token")

	// ErrWebhookFailed means the webhook endpoint returned a non-2xx status.
	ErrWebhookFailed = errors.New("webhook delivery failed")
)
