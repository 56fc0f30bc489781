// Package api is the authenticated HTTP client every backend call goes
// through.
//
// Each request carries "Authorization: Bearer <access token>" when the
// credential store holds one. When the backend answers 401 to a request that
// carried a token, the client refreshes the token once through
// POST /auth/refresh {"refreshToken": ...} and replays the request exactly
// once. Requests that hit 401 while a refresh is already running wait for
// that refresh instead of starting their own, so a burst of expired requests
// produces a single refresh call.
//
// Failure taxonomy:
//
//	*NetworkError      no response (errors.Is ErrUnavailable); store untouched
//	*HTTPError         other non-2xx, including a 401 after the replay
//	*ServerError       status >= 500 (errors.Is ErrServer); never retried
//	*AuthExpiredError  refresh failed (errors.Is ErrAuthExpired); the store is
//	                   cleared and the session expired
//
// A refresh whose result arrives after the user logged out (or logged in
// again) is discarded: the credential store's generation has moved on and
// Rotate refuses the write.
package api
