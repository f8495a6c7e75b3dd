package models

// Project is one entry of the externally edited projects list. Referral
// links point at projects by ID; they never own them.
type Project struct {
	ID   string `bson:"id" json:"id" yaml:"id"`
	Name string `bson:"name" json:"name" yaml:"name"`
	Link string `bson:"link" json:"link" yaml:"link"` // base URL for shareable links
}

// DefaultRoles is used when no roles document has been configured.
var DefaultRoles = []string{RoleAdmin, RoleMember}

// ConfigSnapshot is an immutable copy of the configuration documents taken
// at the start of an operation sequence.
type ConfigSnapshot struct {
	Roles       []string
	Projects    []Project
	RewardTypes []string
}

// Project looks up a project by ID.
func (c ConfigSnapshot) Project(id string) (Project, bool) {
	for _, p := range c.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}

// HasRole reports whether role appears in the configured roles list.
func (c ConfigSnapshot) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
