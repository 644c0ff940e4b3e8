package domain

// SystemUserKey owns system accounts and stamps records written outside a user request.
const SystemUserKey = "system"

// Actor identifies who is performing an operation and from where.
// It is passed explicitly into every CRUD and ledger call.
type Actor struct {
	UserKey   string
	ClientIP  string
	UserAgent string
	RequestID string
}

// SystemActor is used for startup bootstrapping and background work.
func SystemActor() Actor {
	return Actor{UserKey: SystemUserKey, ClientIP: "127.0.0.1", UserAgent: "miniwallet"}
}

// IsSystem reports whether the actor is the internal system user.
func (a Actor) IsSystem() bool {
	return a.UserKey == SystemUserKey
}
