package entities

// Contributor is one entry in a publication's ordered contributor name
// list, matched within its parent by external id when present, else by
// name parts plus position.
type Contributor struct {
	ID            ID     `json:"id" yaml:"id"`
	PublicationID ID     `json:"publication_id" yaml:"publication_id"`
	Position      int    `json:"position" yaml:"position"`
	FirstName     string `json:"first_name" yaml:"first_name"`
	MiddleName    string `json:"middle_name,omitempty" yaml:"middle_name,omitempty"`
	LastName      string `json:"last_name" yaml:"last_name"`
	Role          string `json:"role,omitempty" yaml:"role,omitempty"`

	// ExternalID is the source's identifier for this list entry, when the
	// feed provides one.
	ExternalID string `json:"external_id,omitempty" yaml:"external_id,omitempty"`
}

// Authorship links a publication to a known person. At most one exists per
// (publication, person) pair. AuthorNumber is the person's 1-based position
// among the identifier-matched contributors in source order.
type Authorship struct {
	ID            ID  `json:"id" yaml:"id"`
	PublicationID ID  `json:"publication_id" yaml:"publication_id"`
	PersonID      ID  `json:"person_id" yaml:"person_id"`
	AuthorNumber  int `json:"author_number" yaml:"author_number"`
}
