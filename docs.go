// oidcflow provides browser-style OIDC authentication for Go hosts that
// embed a web surface (webviews, browser extensions, test harnesses): login,
// logout, and silent renewal over pluggable transports, with response
// validation, renewal scheduling, and lifecycle events.
//
// The oidc package holds the Controller and its supporting types; the
// oidc/flow package executes individual authorization round trips.
package oidcflow
