package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sinergy/sinergy-web/internal/core/domain"
	"github.com/sinergy/sinergy-web/internal/core/ports"
)

// DefaultFallbackPages are granted when the permission lookup fails.
var DefaultFallbackPages = []string{"consulta", "suporte", "meus-dados"}

const auditTimeout = 2 * time.Second

var (
	deniedAccess = domain.Denial{
		Reason:  domain.DenialAccess,
		Title:   "Acesso negado",
		Message: "Você não tem permissão para acessar esta página. Solicite acesso ao administrador.",
	}
	deniedSystem = domain.Denial{
		Reason:  domain.DenialSystem,
		Title:   "Erro do sistema",
		Message: "Não foi possível verificar suas permissões. Tente novamente em instantes.",
	}
)

// GateService runs the session gate for every protected page visit.
type GateService struct {
	routes   *domain.RouteTable
	profiles ports.ProfileAPI
	perms    ports.PermissionAPI
	audit    ports.AccessAuditRepository
	fallback map[string]struct{}
	log      zerolog.Logger
	now      func() time.Time
}

var _ ports.GateService = (*GateService)(nil)

// NewGateService builds the gate. audit may be nil. An empty fallback list
// selects DefaultFallbackPages.
func NewGateService(
	routes *domain.RouteTable,
	profiles ports.ProfileAPI,
	perms ports.PermissionAPI,
	audit ports.AccessAuditRepository,
	fallbackPages []string,
	log zerolog.Logger,
) *GateService {
	if len(fallbackPages) == 0 {
		fallbackPages = DefaultFallbackPages
	}
	fb := make(map[string]struct{}, len(fallbackPages))
	for _, p := range fallbackPages {
		if p = domain.NormalizePage(p); p != "" {
			fb[p] = struct{}{}
		}
	}
	return &GateService{
		routes:   routes,
		profiles: profiles,
		perms:    perms,
		audit:    audit,
		fallback: fb,
		log:      log,
		now:      time.Now,
	}
}

// LoginURL is the login page, carrying requested for the post-login return.
func (s *GateService) LoginURL(requested string) string {
	u := domain.PageHref(s.routes.Login())
	if requested == "" {
		return u
	}
	return u + "?redirect=" + url.QueryEscape(requested)
}

// HomeURL is the landing page after login.
func (s *GateService) HomeURL() string {
	return domain.PageHref(s.routes.Home())
}

// Evaluate resolves the visitor's identity and decides access to req.Page.
func (s *GateService) Evaluate(ctx context.Context, req ports.GateRequest) domain.GateDecision {
	page := domain.NormalizePage(req.Page)
	if page == "" {
		page = s.routes.Home()
	}
	d := domain.GateDecision{State: domain.StateUnresolved, Page: page}

	id, err := req.Scopes.Load(ctx)
	if err != nil {
		if !isOnlyNotAuthenticated(err) {
			s.log.Warn().Err(err).Str("page", page).Msg("identity scope unreadable")
		}
		d.State = domain.StateUnauthenticated
		if s.routes.IsExempt(page) {
			d.Outcome = domain.OutcomeAnonymous
			return d
		}
		d.Outcome = domain.OutcomeLoginRedirect
		d.Redirect = s.LoginURL(req.RequestedURL)
		return d
	}

	d.State = domain.StateAuthenticated
	d.Identity = &id
	if s.routes.IsExempt(page) {
		d.Outcome = domain.OutcomeHomeRedirect
		d.Redirect = s.HomeURL()
		return d
	}

	var (
		profile    domain.Profile
		profileErr error
		granted    []string
		permErr    error
		g          errgroup.Group
	)
	if id.Username != "" {
		g.Go(func() error {
			profile, profileErr = s.profiles.GetProfile(ctx, id.Username)
			return nil
		})
	}
	if !id.IsAdmin() {
		d.State = domain.StatePermissionPending
		g.Go(func() error {
			granted, permErr = s.perms.GetPermissions(ctx, id.UserID)
			return nil
		})
	}
	_ = g.Wait()

	switch {
	case profileErr == nil && id.Username != "":
		d.Profile = &profile
	case domain.IsStatus(profileErr):
		return s.forceLogout(ctx, req, d, fmt.Errorf("%w: %w", domain.ErrProfileNotFound, profileErr))
	case profileErr != nil:
		s.log.Warn().Err(profileErr).Str("user_id", id.UserID).Msg("profile lookup failed, keeping session")
	}

	if id.IsAdmin() {
		d.Navigation = s.routes.Navigation(domain.PermissionSet{}, true)
		return s.grant(ctx, req, d, domain.OutcomeGrantedAdmin)
	}

	if permErr != nil {
		s.log.Warn().Err(permErr).Str("user_id", id.UserID).Str("page", page).Msg("permission lookup failed, applying fallback")
		d.Navigation = s.routes.Navigation(domain.PermissionSet{}, false)
		if _, safe := s.fallback[page]; safe {
			return s.grant(ctx, req, d, domain.OutcomeGrantedFallback)
		}
		return s.deny(ctx, req, d, deniedSystem, domain.OutcomeDeniedFallback, permErr.Error())
	}

	set := domain.NewPermissionSet(granted)
	if unknown := set.Unknown(); len(unknown) > 0 {
		s.log.Debug().Strs("modules", unknown).Str("user_id", id.UserID).Msg("permission set has undeclared modules")
	}
	s.log.Debug().Str("user_id", id.UserID).Int("count", set.Len()).
		Interface("modules", set.Modules()).Msg("permissions resolved")
	d.Permissions = set
	d.Navigation = s.routes.Navigation(set, false)
	if !s.routes.Allows(page, set) {
		return s.deny(ctx, req, d, deniedAccess, domain.OutcomeDenied, "module "+string(s.routes.Classify(page).Module)+" not granted")
	}
	return s.grant(ctx, req, d, domain.OutcomeGranted)
}

func (s *GateService) grant(ctx context.Context, req ports.GateRequest, d domain.GateDecision, outcome domain.Outcome) domain.GateDecision {
	d.State = domain.StateAccessGranted
	d.Outcome = outcome
	flash, err := req.Scopes.TakeFlash(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("could not consume login flash flag")
	}
	d.Flash = flash
	return d
}

func (s *GateService) deny(ctx context.Context, req ports.GateRequest, d domain.GateDecision, denial domain.Denial, outcome domain.Outcome, detail string) domain.GateDecision {
	d.State = domain.StateAccessDenied
	d.Outcome = outcome
	d.Denial = &denial
	s.record(ctx, req, d, detail)
	return d
}

// forceLogout handles a session whose user no longer exists server-side.
func (s *GateService) forceLogout(ctx context.Context, req ports.GateRequest, d domain.GateDecision, cause error) domain.GateDecision {
	s.log.Info().Err(cause).Str("user_id", d.Identity.UserID).Msg("profile lookup rejected, forcing logout")
	if err := req.Scopes.Clear(ctx); err != nil {
		s.log.Error().Err(err).Msg("forced logout could not clear identity")
	}
	d.State = domain.StateUnauthenticated
	d.Outcome = domain.OutcomeForcedLogout
	d.Redirect = s.LoginURL("")
	s.record(ctx, req, d, cause.Error())
	return d
}

// record writes an audit entry. Failures are logged, never returned.
func (s *GateService) record(ctx context.Context, req ports.GateRequest, d domain.GateDecision, detail string) {
	if s.audit == nil {
		return
	}
	entry := ports.AccessAuditEntry{
		Page:      d.Page,
		Outcome:   d.Outcome,
		Detail:    detail,
		RequestID: req.RequestID,
		At:        s.now().UTC(),
	}
	if d.Identity != nil {
		entry.UserID = d.Identity.UserID
		entry.Username = d.Identity.Username
		entry.Role = d.Identity.Role
	}
	if d.Denial != nil {
		entry.Reason = d.Denial.Reason
	}

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if err := s.audit.InsertAccessEvent(actx, entry); err != nil {
		s.log.Warn().Err(err).Str("page", d.Page).Msg("failed to insert access audit entry")
	}
}

// isOnlyNotAuthenticated reports whether err is a plain "no identity" and
// not a scope read failure.
func isOnlyNotAuthenticated(err error) bool {
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		return false
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap()) == 1
	}
	return true
}
