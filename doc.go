// Package resetflow implements an OTP-based password-reset flow as an
// embeddable engine: request a reset (a one-time code is mailed to the
// account's address), verify the code (yielding a short-lived opaque reset
// token), and commit a new password with that token.
//
// The engine owns two keyed stores (pending challenges and reset
// authorizations) and enforces their single-use and expiry semantics. The
// account directory and the mail channel are supplied by the integrator as
// interfaces; resetflow never persists passwords itself.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build]. Flows for different email addresses
// are fully independent; concurrent requests for the same email resolve
// last-write-wins, matching the replace-on-rerequest semantics of
// [Engine.RequestReset].
package resetflow
