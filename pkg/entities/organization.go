package entities

// Organization is a node in the campus organizational hierarchy. ParentID
// is empty for the root; every other organization links to exactly one
// parent, forming the ancestor chain membership propagation walks.
type Organization struct {
	Record `yaml:",inline"`

	// Code is the organization's external code, the natural key used when
	// no external key matches.
	Code string `json:"code" yaml:"code"`

	Name     string `json:"name" yaml:"name"`
	ParentID ID     `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
}
