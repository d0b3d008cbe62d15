package handler

import (
	"net/url"
	"strings"

	"github.com/sinergy/sinergy-web/internal/core/domain"
)

// safeRedirect returns target when it is a path on this site, and fallback
// otherwise. Absolute URLs, protocol-relative URLs and the login page itself
// are refused.
func safeRedirect(target, fallback, loginPage string) string {
	target = strings.TrimSpace(target)
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.ContainsAny(target, "\\\r\n") {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return fallback
	}
	if loginPage != "" && domain.NormalizePage(u.Path) == loginPage {
		return fallback
	}
	return target
}
