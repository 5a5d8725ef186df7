/*
oidc is a package for driving browser-style OIDC authentication flows
against a configurable identity provider: login, logout, and silent
renewal, with token validation, automatic refresh scheduling, and
lifecycle events.

Primary types provided by the package

* Controller: drives the flows.  It correlates asynchronous provider
responses back to the request that triggered them, validates the resulting
tokens, schedules renewal ahead of expiration, and coalesces concurrent
requests of a category (login, logout, refresh, token-retrieval) into a
single in-flight operation.

* Config: the validated controller configuration (provider kind and URL,
client id, scopes, response type, redirect targets, per-claim validation
toggles, auto-refresh policy).

* Request: represents one authorization attempt.  It holds the single-use
state and nonce correlation values that bind the attempt to the provider's
eventual response.

* Profile: the mutable session state (tokens, derived expirations,
in-flight correlation values), persisted through the Storage capability.

* Response: the raw parameters a provider returned, before validation.

The oidc/flow package

The flow package executes a single authorization round trip over an
injected Transport: hidden iframe, popup window, new tab, or full-page
redirect.
*/
package oidc
