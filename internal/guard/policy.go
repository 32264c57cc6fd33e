package guard

import (
	"strings"
)

// Rule describes what a protected view requires. Every rule requires a
// login; Roles, when non-empty, additionally requires one of them.
type Rule struct {
	Roles []string
}

// RequireRoles builds a rule from a comma-separated role list such as
// "ROLE_ADMIN, ROLE_MODERATOR". An empty list only requires a login.
func RequireRoles(roles string) Rule {
	return Rule{Roles: ParseRoles(roles)}
}

// Policy maps view paths to rules. A rule on "/admin" also covers
// "/admin/products" and deeper paths.
type Policy struct {
	rules map[string]Rule
}

func NewPolicy(rules map[string]Rule) Policy {
	p := Policy{rules: make(map[string]Rule, len(rules))}
	for path, rule := range rules {
		p.rules[cleanPath(path)] = rule
	}
	return p
}

// DefaultPolicy is the storefront's route table.
func DefaultPolicy() Policy {
	return NewPolicy(map[string]Rule{
		"/checkout":      {},
		"/order-success": {},
		"/orders":        {},
		"/profile":       {},
		"/admin":         RequireRoles("ADMIN"),
	})
}

// Lookup returns the rule for path, walking up to the nearest protected
// ancestor.
func (p Policy) Lookup(path string) (Rule, bool) {
	path = cleanPath(path)
	for {
		if rule, ok := p.rules[path]; ok {
			return rule, true
		}
		i := strings.LastIndex(path, "/")
		if i <= 0 {
			return Rule{}, false
		}
		path = path[:i]
	}
}

func cleanPath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

// ParseRoles splits a comma-separated role list such as
// "ROLE_ADMIN, ROLE_USER". Blank entries are skipped.
func ParseRoles(s string) []string {
	var roles []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			roles = append(roles, part)
		}
	}
	return roles
}
