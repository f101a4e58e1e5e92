package entities

import "github.com/agentstation/utc"

// Membership links a person to an organization. Explicit memberships carry
// the feed's pure identifier; implicit memberships are created by hierarchy
// propagation, carry no pure identifier, and are marked authoritative so
// later propagating imports may refresh their date ranges. An implicit
// membership created by any other path is never touched by propagation.
type Membership struct {
	Record `yaml:",inline"`

	PersonID       ID `json:"person_id" yaml:"person_id"`
	OrganizationID ID `json:"organization_id" yaml:"organization_id"`

	// PureID is present only for explicitly sourced memberships.
	PureID string `json:"pure_id,omitempty" yaml:"pure_id,omitempty"`

	// Authoritative marks memberships produced by hierarchy propagation
	// from the trusted feed family.
	Authoritative bool `json:"authoritative" yaml:"authoritative"`

	Title     string    `json:"title,omitempty" yaml:"title,omitempty"`
	StartedOn *utc.Time `json:"started_on,omitempty" yaml:"started_on,omitempty"`
	EndedOn   *utc.Time `json:"ended_on,omitempty" yaml:"ended_on,omitempty"`
}

// Implicit reports whether this membership was inferred rather than
// sourced directly from a feed.
func (m *Membership) Implicit() bool {
	return m.PureID == ""
}
