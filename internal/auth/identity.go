package auth

// Identity is a verified external identity returned by a token verifier.
// It contains facts only, no decisions.
type Identity struct {
	Provider      string // e.g. "google"
	Subject       string // provider-scoped user identifier (sub)
	Email         string // as asserted by the provider, not normalized
	EmailVerified bool
	Name          string // optional display name
	Picture       string // optional profile picture URL
}
