package portal

// GateAction is the outcome of a navigation decision
type GateAction string

const (
	// ActionWait suspends the decision while session state is unknown.
	// Never default-allow or default-deny during initialization.
	ActionWait GateAction = "wait"
	// ActionAllow renders the requested destination.
	ActionAllow GateAction = "allow"
	// ActionRedirect routes to Decision.Destination instead.
	ActionRedirect GateAction = "redirect"
)

// Decision is what a gate tells the navigation layer to do.
type Decision struct {
	Action      GateAction
	Destination string
}

func waitDecision() Decision {
	return Decision{Action: ActionWait}
}

func allowDecision() Decision {
	return Decision{Action: ActionAllow}
}

func redirectDecision(destination string) Decision {
	return Decision{Action: ActionRedirect, Destination: destination}
}

// RouteGate authorizes navigation targets that declare a required role set.
type RouteGate struct {
	sessions *SessionContext
	logger   Logger
}

func NewRouteGate(sessions *SessionContext) *RouteGate {
	return &RouteGate{
		sessions: sessions,
		logger:   defLogger{},
	}
}

func (g *RouteGate) WithLogger(logger Logger) *RouteGate {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// Decide resolves access for a target requiring any of the given roles. An
// empty required set means any authenticated principal may enter. Denials
// while anonymous discard the attempted destination and land on login;
// denials with a known role land on that role's home.
func (g *RouteGate) Decide(required ...Role) Decision {
	snapshot := g.sessions.Current()

	if snapshot.IsLoading() {
		return waitDecision()
	}

	if !snapshot.IsAuthenticated() || snapshot.Session == nil {
		return redirectDecision(DestinationLogin)
	}

	if len(required) == 0 {
		return allowDecision()
	}

	role := NormalizeRole(string(snapshot.Session.Role))
	for _, want := range required {
		if role == NormalizeRole(string(want)) {
			return allowDecision()
		}
	}

	home, ok := HomeDestination(role)
	if !ok {
		g.logger.Warn("principal %s carries unknown role %q, denying to login", snapshot.Session.PrincipalID, role)
		return redirectDecision(DestinationLogin)
	}

	g.logger.Debug("role %q denied, redirecting home", role)
	return redirectDecision(home)
}

// FirstLoginGate forces principals flagged for a password change into the
// change-password flow before anything else. Scoped to instructors, the only
// role the portal provisions with temporary passwords.
type FirstLoginGate struct {
	sessions *SessionContext
	roles    map[Role]struct{}
}

func NewFirstLoginGate(sessions *SessionContext) *FirstLoginGate {
	return &FirstLoginGate{
		sessions: sessions,
		roles: map[Role]struct{}{
			RoleInstructor: {},
		},
	}
}

// Intercept reports whether navigation to destination must be overridden.
// The password-change destination itself is always exempt; otherwise any
// flagged principal in scope is redirected there regardless of what the
// destination would have required.
func (g *FirstLoginGate) Intercept(destination string) (Decision, bool) {
	if destination == DestinationChangePassword {
		return allowDecision(), false
	}

	snapshot := g.sessions.Current()
	if !snapshot.IsAuthenticated() || snapshot.Session == nil {
		return allowDecision(), false
	}
	if !snapshot.Session.MustChangePassword {
		return allowDecision(), false
	}

	if _, scoped := g.roles[NormalizeRole(string(snapshot.Session.Role))]; !scoped {
		return allowDecision(), false
	}

	return redirectDecision(DestinationChangePassword), true
}

// NavigationGate is the single composition point for the two gates: the
// first-login gate runs in addition to role checks and takes precedence,
// overriding an otherwise-allowed destination.
type NavigationGate struct {
	route      *RouteGate
	firstLogin *FirstLoginGate
}

func NewNavigationGate(sessions *SessionContext) *NavigationGate {
	return &NavigationGate{
		route:      NewRouteGate(sessions),
		firstLogin: NewFirstLoginGate(sessions),
	}
}

func (n *NavigationGate) WithLogger(logger Logger) *NavigationGate {
	n.route.WithLogger(logger)
	return n
}

// Authorize decides navigation to destination, which declares the roles it
// requires (none means any authenticated principal).
func (n *NavigationGate) Authorize(destination string, required ...Role) Decision {
	decision := n.route.Decide(required...)
	if decision.Action == ActionWait {
		return decision
	}

	if intercept, forced := n.firstLogin.Intercept(destination); forced {
		return intercept
	}

	return decision
}
