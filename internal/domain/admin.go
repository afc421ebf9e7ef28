package domain

import "sort"

// adminResources lists the admin collections and the moderation actions each
// accepts.
var adminResources = map[string][]string{
	"users":        {"ban", "unban"},
	"destinations": {"publish", "unpublish"},
	"articles":     {"publish", "unpublish"},
	"reviews":      {"approve", "reject"},
	"trips":        nil,
}

// AdminResources returns the admin collection names in sorted order.
func AdminResources() []string {
	out := make([]string, 0, len(adminResources))
	for r := range adminResources {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// IsAdminResource reports whether resource is an admin collection.
func IsAdminResource(resource string) bool {
	_, ok := adminResources[resource]
	return ok
}

// ModerationActions returns the actions resource accepts.
func ModerationActions(resource string) []string {
	return append([]string(nil), adminResources[resource]...)
}

// AllowsAction reports whether action applies to resource.
func AllowsAction(resource, action string) bool {
	for _, a := range adminResources[resource] {
		if a == action {
			return true
		}
	}
	return false
}
