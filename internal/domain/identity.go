package domain

import "strings"

const rolePrefix = "ROLE_"

// Identity is the authenticated user as seen by the client.
type Identity struct {
	ID          ID       `json:"id"`
	DisplayName string   `json:"displayName"`
	Email       string   `json:"email,omitempty"`
	Roles       []string `json:"roles"`
	AuthToken   string   `json:"-"`
}

// HasAnyRole reports whether the identity holds at least one of required.
// An empty required set is always satisfied.
func (i Identity) HasAnyRole(required []string) bool {
	if len(required) == 0 {
		return true
	}
	held := make(map[string]struct{}, len(i.Roles))
	for _, r := range i.Roles {
		held[NormalizeRole(r)] = struct{}{}
	}
	for _, r := range required {
		if _, ok := held[NormalizeRole(r)]; ok {
			return true
		}
	}
	return false
}

// NormalizeRole maps "ROLE_ADMIN", "admin" and " ADMIN " to "ADMIN".
func NormalizeRole(role string) string {
	role = strings.ToUpper(strings.TrimSpace(role))
	return strings.TrimPrefix(role, rolePrefix)
}

// Credentials is the bundle returned by the auth service on login and
// persisted locally for the session.
type Credentials struct {
	AccessToken string   `json:"accessToken"`
	TokenType   string   `json:"tokenType,omitempty"`
	ID          ID       `json:"id" validate:"required"`
	Username    string   `json:"username,omitempty"`
	DisplayName string   `json:"displayName,omitempty"`
	Email       string   `json:"email,omitempty"`
	Roles       []string `json:"roles"`
}

func (c Credentials) Identity() Identity {
	name := c.DisplayName
	if name == "" {
		name = c.Username
	}
	roles := make([]string, 0, len(c.Roles))
	seen := make(map[string]struct{}, len(c.Roles))
	for _, r := range c.Roles {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		roles = append(roles, r)
	}
	return Identity{
		ID:          c.ID,
		DisplayName: name,
		Email:       c.Email,
		Roles:       roles,
		AuthToken:   c.AccessToken,
	}
}

type UserProfile struct {
	ID        ID     `json:"id" validate:"required"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}
