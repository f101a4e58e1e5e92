package entities

// Person is a faculty or staff record reconciled from directory and
// activity feeds.
type Person struct {
	Record `yaml:",inline"`

	// WebAccessID is the campus login identifier, the natural key used
	// when no external key matches.
	WebAccessID string `json:"webaccess_id,omitempty" yaml:"webaccess_id,omitempty"`

	FirstName  string `json:"first_name" yaml:"first_name"`
	MiddleName string `json:"middle_name,omitempty" yaml:"middle_name,omitempty"`
	LastName   string `json:"last_name" yaml:"last_name"`
	Email      string `json:"email,omitempty" yaml:"email,omitempty"`
}

// DisplayName returns the person's name as rendered in contributor lists.
func (p *Person) DisplayName() string {
	name := p.FirstName
	if p.MiddleName != "" {
		name += " " + p.MiddleName
	}
	if p.LastName != "" {
		name += " " + p.LastName
	}
	return name
}
