package identity

import "strings"

// Identity is the set of facets a signer can be addressed by. Sign requests
// may be assigned to people before they register, so an assignment can only
// reference a name or email instead of a subject id.
type Identity struct {
	ID       string
	Username string
	FullName string
	Email    string
}

// Matches reports whether an assignment (id, name, email) refers to this
// identity. Any single facet matching is enough: subject id, username,
// full name, or email. Empty facets never match.
func (i Identity) Matches(assigneeID, assigneeName, assigneeEmail string) bool {
	if eq(i.ID, assigneeID) {
		return true
	}
	if eq(i.Username, assigneeName) || eq(i.FullName, assigneeName) {
		return true
	}
	return eq(i.Email, assigneeEmail)
}

func eq(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	return a != "" && a == b
}
