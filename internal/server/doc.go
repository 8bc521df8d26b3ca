// Package server hosts the short-lived HTTP surface behind `shelf auth login`.
//
// # Routing
//
// [BasicRouter] is a thin layer over [http.ServeMux], using the mux's
// method-aware patterns for verb filtering. [Middleware] is applied in
// registration order, outermost first.
//
// # OAuth Callback
//
// [OAuthHandler] handles the authorization-code callback: it checks the state
// token against the one generated for this attempt, exchanges the code, and
// delivers exactly one [OAuthResult] on its channel. Repeat requests to the
// callback path are rejected.
//
// The server is started by the auth command on the configured host and port
// and shut down as soon as a result arrives.
package server
