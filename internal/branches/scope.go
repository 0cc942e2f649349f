package branches

// GlobalSelector is the synthetic selector a master session uses to view
// every branch at once. It never appears in the stored branch directory.
const GlobalSelector = "master_global"

// Scope identifies what a session can see: either a single real branch or
// the aggregate all-branches view reserved for the master user.
type Scope struct {
	global   bool
	branchID string
}

// GlobalScope returns the aggregate all-branches scope.
func GlobalScope() Scope {
	return Scope{global: true}
}

// BranchScope returns the scope for a single real branch.
func BranchScope(branchID string) Scope {
	return Scope{branchID: branchID}
}

// ParseSelector maps a raw selector value from a login or branch-switch
// request onto a Scope. The global sentinel becomes the global scope; any
// other value is treated as a real branch identifier.
func ParseSelector(raw string) Scope {
	if raw == GlobalSelector {
		return GlobalScope()
	}
	return BranchScope(raw)
}

// IsGlobal reports whether the scope spans every branch.
func (s Scope) IsGlobal() bool {
	return s.global
}

// BranchID returns the branch identifier for a single-branch scope and the
// empty string for the global scope.
func (s Scope) BranchID() string {
	if s.global {
		return ""
	}
	return s.branchID
}

// Selector returns the wire representation of the scope, suitable for
// embedding in token claims and API responses.
func (s Scope) Selector() string {
	if s.global {
		return GlobalSelector
	}
	return s.branchID
}
