// Package server runs the temporary HTTP server that receives the Spotify OAuth redirect.
//
// # Router
//
// [BasicRouter] wraps [http.ServeMux] with method filtering and a [Middleware] stack applied in
// reverse order (last added executes first). [RequestLogger] logs each served request at debug level.
//
// # OAuth Callback Handler
//
// [OAuthHandler] validates the state parameter, exchanges the authorization code through an
// [Exchanger] and sends exactly one [OAuthResult] through its channel. Later callbacks are rejected.
//
// # Loopback
//
// [StartLoopback] binds the redirect address up front and serves in the background until
// [Loopback.Shutdown]. The auth package starts one per authorization and stops it as soon as a
// result, a serve error or the timeout arrives.
package server
