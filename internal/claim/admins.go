package claim

import (
	"strconv"
	"strings"
)

// AdminSet is the fixed allow-list of caller identities permitted to
// approve or reject claims
type AdminSet map[int64]struct{}

// ParseAdminIDs builds an AdminSet from a comma-separated list of
// integer identities. Blank or non-numeric entries are skipped.
func ParseAdminIDs(list string) AdminSet {
	admins := make(AdminSet)
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		admins[id] = struct{}{}
	}
	return admins
}

// Contains reports whether the given identity is an admin
func (a AdminSet) Contains(id int64) bool {
	_, ok := a[id]
	return ok
}
