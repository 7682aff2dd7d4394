package authz

// Config holds configuration for the permission engine.
type Config struct {
	// RequireManagerAdmin gates ManageJobGrants and ManageUserExceptions
	// behind the caller's super-admin flag. The default is false: any
	// authenticated caller may manage permissions, matching the portal's
	// historical behavior. Deployments that want a stricter gate opt in.
	RequireManagerAdmin bool `json:"require_manager_admin,omitempty"`

	// EnableDecisionLog controls the audit trail of check decisions.
	// Defaults to true.
	EnableDecisionLog *bool `json:"enable_decision_log,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	t := true
	return Config{
		EnableDecisionLog: &t,
	}
}

func (c Config) decisionLogEnabled() bool {
	return c.EnableDecisionLog == nil || *c.EnableDecisionLog
}
