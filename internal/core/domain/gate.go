package domain

// GateState is a state of the per-request session gate.
type GateState string

const (
	StateUnresolved        GateState = "unresolved"
	StateUnauthenticated   GateState = "unauthenticated"
	StateAuthenticated     GateState = "authenticated"
	StatePermissionPending GateState = "permission_pending"
	StateAccessGranted     GateState = "access_granted"
	StateAccessDenied      GateState = "access_denied"
)

// DenialReason distinguishes a real refusal from a failed permission lookup.
type DenialReason string

const (
	DenialAccess DenialReason = "access_denied"
	DenialSystem DenialReason = "system_error"
)

// Denial is shown in the blocking modal.
type Denial struct {
	Reason  DenialReason
	Title   string
	Message string
}

// Outcome labels a gate decision for metrics and audit.
type Outcome string

const (
	OutcomeGranted         Outcome = "granted"
	OutcomeGrantedAdmin    Outcome = "granted_admin"
	OutcomeGrantedFallback Outcome = "granted_fallback"
	OutcomeDenied          Outcome = "denied"
	OutcomeDeniedFallback  Outcome = "denied_fallback"
	OutcomeLoginRedirect   Outcome = "login_redirect"
	OutcomeHomeRedirect    Outcome = "home_redirect"
	OutcomeForcedLogout    Outcome = "forced_logout"
	OutcomeAnonymous       Outcome = "anonymous"
)

// GateDecision is the terminal result of evaluating one page request.
type GateDecision struct {
	State    GateState
	Outcome  Outcome
	Page     string
	Redirect string // non-empty: respond with a redirect and render nothing

	Identity    *Identity
	Profile     *Profile
	Permissions PermissionSet
	Navigation  []NavEntry
	Denial      *Denial
	// Flash is true on the first page after login.
	Flash       bool
}

// Granted reports whether the page may render its content.
func (d GateDecision) Granted() bool {
	return d.State == StateAccessGranted
}
