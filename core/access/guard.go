package access

import (
	"strings"

	"github.com/trezcool/veritas/core/session"
)

// Landing pages
const (
	LoginPath      = session.LoginPath
	DashboardPath  = "/dashboard"
	FirstLoginPath = "/first-login"
	AspirantePath  = "/aspirante"
)

// State is the outcome of a guard check.
type State int

const (
	StateLoading State = iota
	StateAuthorized
	StateUnauthenticated
	StateForbidden
)

var stateNames = map[State]string{
	StateLoading:         "LOADING",
	StateAuthorized:      "AUTHORIZED",
	StateUnauthenticated: "UNAUTHENTICATED",
	StateForbidden:       "FORBIDDEN",
}

func (s State) String() string {
	return stateNames[s]
}

type (
	// SessionView is the read side of the session store.
	SessionView interface {
		Loading() bool
		Current() (session.Session, bool)
	}

	// Decision tells the caller what to do with a navigation. Redirect is empty unless the
	// state is UNAUTHENTICATED or FORBIDDEN.
	Decision struct {
		State    State
		Redirect string
		Rule     *Rule
	}

	Guard struct {
		rules Rules
	}
)

func NewGuard(rules Rules) *Guard {
	return &Guard{rules: rules}
}

// Check evaluates path against the current session. It is cheap and never cached:
// callers run it on every navigation.
func (g *Guard) Check(sess SessionView, path string) Decision {
	rule, ok := g.rules.Match(path)
	if !ok {
		return Decision{State: StateAuthorized}
	}
	return Evaluate(sess, rule)
}

// Evaluate applies one rule. While the session is hydrating nothing is decided.
func Evaluate(sess SessionView, rule *Rule) Decision {
	if sess.Loading() {
		return Decision{State: StateLoading, Rule: rule}
	}
	current, ok := sess.Current()
	if !ok {
		return Decision{State: StateUnauthenticated, Redirect: LoginPath, Rule: rule}
	}
	if !rule.Allows(current.Role) {
		return Decision{State: StateForbidden, Redirect: DashboardPath, Rule: rule}
	}
	return Decision{State: StateAuthorized, Rule: rule}
}

// Home is where a freshly authenticated user goes.
func Home(sess session.Session) string {
	switch {
	case sess.MustChangePassword:
		return FirstLoginPath
	case sess.Role == session.RoleAspirante:
		return AspirantePath
	default:
		return DashboardPath
	}
}

func cleanPath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		path = "/"
	}
	return path
}
