package domain

import "strings"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Keys persisted in every identity scope. The names are shared with the
// existing browser sessions and must not change.
const (
	KeyRemember = "usuarioLogado"
	KeyUserID   = "usuarioID"
	KeyRole     = "usuarioRole"
	KeyFullName = "usuarioNome"
	KeyFlash    = "loginSucesso"
)

// ScopeValues is the raw key/value content of one identity scope.
type ScopeValues map[string]string

// Identity is the authenticated user as persisted client-side.
type Identity struct {
	Username string `json:"username"`
	UserID   string `json:"userID"`
	Role     string `json:"role"`
	FullName string `json:"fullName"`
}

// IsAdmin reports whether the identity bypasses module permissions.
func (i Identity) IsAdmin() bool {
	return strings.EqualFold(i.Role, RoleAdmin)
}

// IdentityFromScope extracts an identity from a scope. ok is false when the
// scope has no user id, whatever else it holds.
func IdentityFromScope(v ScopeValues) (Identity, bool) {
	id := strings.TrimSpace(v[KeyUserID])
	if id == "" {
		return Identity{}, false
	}
	return Identity{
		Username: v[KeyRemember],
		UserID:   id,
		Role:     v[KeyRole],
		FullName: v[KeyFullName],
	}, true
}

// ToScope renders the identity as scope values. The flash flag is set when
// flash is true.
func (i Identity) ToScope(flash bool) ScopeValues {
	v := ScopeValues{
		KeyRemember: i.Username,
		KeyUserID:   i.UserID,
		KeyRole:     i.Role,
		KeyFullName: i.FullName,
	}
	if flash {
		v[KeyFlash] = "true"
	}
	return v
}

// Profile is the top-bar view of a user returned by GET /users/{username}.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
	Role     string `json:"role,omitempty"`
}

// DisplayName prefers the full name and falls back to the username.
func (p Profile) DisplayName() string {
	if strings.TrimSpace(p.FullName) != "" {
		return p.FullName
	}
	return p.Username
}
