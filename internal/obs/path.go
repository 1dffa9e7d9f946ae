package obs

import "strings"

// collections whose second path segment is a resource id. Keeps metric
// label cardinality bounded.
var idCollections = map[string]bool{
	"orgs":          true,
	"staff":         true,
	"students":      true,
	"guardians":     true,
	"threads":       true,
	"menus":         true,
	"photos":        true,
	"announcements": true,
	"attendance":    true,
}

// CanonicalPath collapses resource identifiers in metric labels:
// /v1/students/01H... -> /v1/students/:id.
func CanonicalPath(path string) string {
	if path == "" {
		return "/"
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 3 || parts[0] != "v1" {
		return path
	}
	if !idCollections[parts[1]] {
		return path
	}
	switch len(parts) {
	case 3:
		return "/v1/" + parts[1] + "/:id"
	case 4:
		// /v1/threads/:id/messages and friends
		return "/v1/" + parts[1] + "/:id/" + parts[3]
	default:
		return path
	}
}
