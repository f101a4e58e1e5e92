package entities

import "github.com/agentstation/utc"

// Publication is a scholarly work reconciled from activity feeds. It owns
// two child collections with different reconciliation policies: the ordered
// contributor name list (full replace, governed by the record lock) and the
// authorship rows linking it to known people (upsert only, governed by
// AuthorshipsEditedAt).
type Publication struct {
	Record `yaml:",inline"`

	Title       string    `json:"title" yaml:"title"`
	Journal     string    `json:"journal,omitempty" yaml:"journal,omitempty"`
	Volume      string    `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue       string    `json:"issue,omitempty" yaml:"issue,omitempty"`
	Pages       string    `json:"pages,omitempty" yaml:"pages,omitempty"`
	Status      string    `json:"status,omitempty" yaml:"status,omitempty"`
	PublishedOn *utc.Time `json:"published_on,omitempty" yaml:"published_on,omitempty"`

	// Visible is false for non-primary members of a duplicate group.
	Visible bool `json:"visible" yaml:"visible"`

	// GroupID links the publication to its duplicate group, if any.
	GroupID ID `json:"group_id,omitempty" yaml:"group_id,omitempty"`

	// AuthorshipsEditedAt locks the authorship collection independently of
	// the record lock; a curated author list never gains rows from import.
	AuthorshipsEditedAt *utc.Time `json:"authorships_edited_at,omitempty" yaml:"authorships_edited_at,omitempty"`
}

// AuthorshipsLocked reports whether a human has curated the authorship
// collection of this publication.
func (p *Publication) AuthorshipsLocked() bool {
	return p.AuthorshipsEditedAt != nil
}
