package entities

// DuplicateGroup clusters publications believed to represent the same
// work. Exactly one member stays visible; the rest are suppressed. A group
// is created lazily on the first detected title collision and absorbs any
// further matches found later.
type DuplicateGroup struct {
	ID             ID   `json:"id" yaml:"id"`
	PublicationIDs []ID `json:"publication_ids" yaml:"publication_ids"`
}

// Contains reports whether the publication is a member of the group.
func (g *DuplicateGroup) Contains(id ID) bool {
	for _, member := range g.PublicationIDs {
		if member == id {
			return true
		}
	}
	return false
}

// Add appends the publication to the group if not already a member.
func (g *DuplicateGroup) Add(id ID) {
	if !g.Contains(id) {
		g.PublicationIDs = append(g.PublicationIDs, id)
	}
}

// UnresolvedAuthor records a contributor whose name matched more than one
// known person. Ambiguous matches are never linked automatically; they are
// persisted here for a human reviewer.
type UnresolvedAuthor struct {
	ID            ID     `json:"id" yaml:"id"`
	PublicationID ID     `json:"publication_id" yaml:"publication_id"`
	DisplayName   string `json:"display_name" yaml:"display_name"`
	CandidateIDs  []ID   `json:"candidate_ids" yaml:"candidate_ids"`
}
