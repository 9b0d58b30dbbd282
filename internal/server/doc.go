// Package server runs the short lived local HTTP server that receives the
// browser redirect of the OAuth authorization code flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first).
// [BasicRouter] uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] validates the state parameter, hands the authorization code
// to an [ExchangeFunc] and sends the token through a channel. Only the first
// callback is processed.
//
// # Usage
//
// `twhispr auth` starts a [Server] on the host and port of the configured
// redirect_uri, opens the authorization page in the browser, waits for the
// callback and shuts the server down.
package server
