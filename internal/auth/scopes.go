package auth

// Known OAuth scopes used by the tracker API.
const (
	ScopeTrackerWrite = "tracker:write"
	ScopeTrackerRead  = "tracker:read"
)
