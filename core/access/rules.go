package access

import (
	"sort"
	"strings"

	"github.com/trezcool/veritas/core/session"
)

// Rule protects path and everything below it. No roles means any authenticated role.
type Rule struct {
	Path         string
	AllowedRoles []session.Role
}

func (r *Rule) Allows(role session.Role) bool {
	if len(r.AllowedRoles) == 0 {
		return role.Valid()
	}
	for _, allowed := range r.AllowedRoles {
		if role == allowed {
			return true
		}
	}
	return false
}

func (r *Rule) covers(path string) bool {
	if r.Path == "/" {
		return true
	}
	return path == r.Path || strings.HasPrefix(path, r.Path+"/")
}

// Rules is a static table matched by longest path prefix.
type Rules []Rule

func NewRules(rules ...Rule) Rules {
	rs := make(Rules, len(rules))
	copy(rs, rules)
	sort.SliceStable(rs, func(i, j int) bool {
		return len(rs[i].Path) > len(rs[j].Path)
	})
	return rs
}

// Match returns the most specific rule covering path.
func (rs Rules) Match(path string) (*Rule, bool) {
	path = cleanPath(path)
	for i := range rs {
		if rs[i].covers(path) {
			return &rs[i], true
		}
	}
	return nil, false
}

var (
	admin     = []session.Role{session.RoleAdmin}
	profesor  = []session.Role{session.RoleProfesor}
	acudiente = []session.Role{session.RoleAcudiente}
	aspirante = []session.Role{session.RoleAspirante}
)

// DefaultRules guards the portal screens.
var DefaultRules = NewRules(
	Rule{Path: DashboardPath},
	Rule{Path: "/session"},
	Rule{Path: "/admin", AllowedRoles: admin},
	Rule{Path: "/profesor", AllowedRoles: profesor},
	Rule{Path: "/acudiente", AllowedRoles: acudiente},
	Rule{Path: AspirantePath, AllowedRoles: aspirante},
)
