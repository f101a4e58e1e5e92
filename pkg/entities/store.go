package entities

// The store interfaces below are the persistence seam for the
// reconciliation engine. Implementations live under internal/store; the
// engine only ever sees these interfaces. Lookup methods return a
// NotFoundError (pkg/errors) when no record matches, never a nil result
// with a nil error. Put methods have upsert semantics keyed on ID.

// PersonStore provides access to person records.
type PersonStore interface {
	Person(id ID) (*Person, error)
	PersonByKey(key ExternalKey) (*Person, error)
	PersonByWebAccessID(webAccessID string) (*Person, error)

	// PeopleByName returns every person with the given first and last
	// name. More than one result means the name is ambiguous.
	PeopleByName(firstName, lastName string) ([]*Person, error)

	PutPerson(p *Person) error
}

// OrganizationStore provides access to organization records.
type OrganizationStore interface {
	Organization(id ID) (*Organization, error)
	OrganizationByKey(key ExternalKey) (*Organization, error)
	OrganizationByCode(code string) (*Organization, error)
	PutOrganization(o *Organization) error
}

// PublicationStore provides access to publication records.
type PublicationStore interface {
	Publication(id ID) (*Publication, error)
	PublicationByKey(key ExternalKey) (*Publication, error)

	// VisiblePublications returns every publication not suppressed by
	// duplicate grouping, in creation order.
	VisiblePublications() ([]*Publication, error)

	PutPublication(p *Publication) error
}

// ContributorStore provides access to a publication's ordered contributor
// name list.
type ContributorStore interface {
	// Contributors returns the list ordered by position.
	Contributors(publicationID ID) ([]*Contributor, error)
	PutContributor(c *Contributor) error
	DeleteContributor(id ID) error
}

// AuthorshipStore provides access to publication-person authorship rows.
type AuthorshipStore interface {
	Authorship(publicationID, personID ID) (*Authorship, error)
	Authorships(publicationID ID) ([]*Authorship, error)
	PutAuthorship(a *Authorship) error
}

// MembershipStore provides access to person-organization memberships.
type MembershipStore interface {
	MembershipByPureID(pureID string) (*Membership, error)

	// ImplicitMembership returns the membership between person and
	// organization that carries no pure identifier, if one exists.
	ImplicitMembership(personID, organizationID ID) (*Membership, error)

	MembershipsByPerson(personID ID) ([]*Membership, error)
	PutMembership(m *Membership) error
}

// GroupStore provides access to duplicate publication groups.
type GroupStore interface {
	Group(id ID) (*DuplicateGroup, error)

	// GroupOf returns the group containing the publication, if any.
	GroupOf(publicationID ID) (*DuplicateGroup, error)

	PutGroup(g *DuplicateGroup) error
}

// UnresolvedAuthorStore records ambiguous contributor matches for human
// review.
type UnresolvedAuthorStore interface {
	UnresolvedAuthors(publicationID ID) ([]*UnresolvedAuthor, error)

	// PutUnresolvedAuthor upserts by (publication, display name) so
	// re-running an import does not duplicate review work.
	PutUnresolvedAuthor(u *UnresolvedAuthor) error
}

// Store is the complete persistence interface the reconciliation engine is
// written against.
type Store interface {
	PersonStore
	OrganizationStore
	PublicationStore
	ContributorStore
	AuthorshipStore
	MembershipStore
	GroupStore
	UnresolvedAuthorStore
}
