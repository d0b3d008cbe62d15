package middleware

// Context keys set by the middlewares of this package.
const (
	KeyIdentity = "identity"
	KeyDecision = "gate_decision"
	KeyRole     = "role"
	KeyUsername = "username"
)
