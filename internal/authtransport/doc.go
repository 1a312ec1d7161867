// Package authtransport provides the authenticated request pipeline: an http.RoundTripper
// that attaches the session's access token to every outbound call and recovers from an
// expired access token with a single refresh-then-retry.
//
// # Request lifecycle
//
// A request is sent with the current access token. Any outcome other than 401 is returned
// unchanged. On 401 the transport refreshes the access token once, using the session's
// refresh token, and replays the request with the new token. Whatever the replay returns
// is final; a second 401 never triggers another refresh.
//
// If the refresh fails the session is invalidated: the credential store is cleared and the
// handler registered with WithSessionInvalidatedHandler is called once. The caller receives
// the original 401 response.
//
// Concurrent 401s for the same session share one refresh call:
//
//	rt, err := authtransport.New(store, refresher,
//		authtransport.WithSessionInvalidatedHandler(manager.HandleSessionInvalidated),
//	)
//	client := &http.Client{Transport: rt}
//
// Requests to login, register and refresh endpoints pass through untouched.
package authtransport
