// Package memory provides an in-memory implementation of the entity
// store, used by tests and dry runs. All methods return defensive copies
// so callers can mutate results freely before writing them back.
package memory

import (
	"sort"
	"sync"

	"github.com/scholarsync/scholarsync/pkg/entities"
	"github.com/scholarsync/scholarsync/pkg/errors"
)

// Store is an in-memory entities.Store.
type Store struct {
	mu sync.RWMutex

	people        map[entities.ID]*entities.Person
	organizations map[entities.ID]*entities.Organization
	publications  map[entities.ID]*entities.Publication
	pubOrder      []entities.ID
	contributors  map[entities.ID]*entities.Contributor
	authorships   map[entities.ID]*entities.Authorship
	memberships   map[entities.ID]*entities.Membership
	groups        map[entities.ID]*entities.DuplicateGroup
	unresolved    map[entities.ID]*entities.UnresolvedAuthor
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		people:        make(map[entities.ID]*entities.Person),
		organizations: make(map[entities.ID]*entities.Organization),
		publications:  make(map[entities.ID]*entities.Publication),
		contributors:  make(map[entities.ID]*entities.Contributor),
		authorships:   make(map[entities.ID]*entities.Authorship),
		memberships:   make(map[entities.ID]*entities.Membership),
		groups:        make(map[entities.ID]*entities.DuplicateGroup),
		unresolved:    make(map[entities.ID]*entities.UnresolvedAuthor),
	}
}

// Person returns the person with the given id.
func (s *Store) Person(id entities.ID) (*entities.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.people[id]
	if !ok {
		return nil, errors.NewNotFoundError("person", string(id))
	}
	return clonePerson(p), nil
}

// PersonByKey returns the person carrying the external key.
func (s *Store) PersonByKey(key entities.ExternalKey) (*entities.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.people {
		if p.HasKey(key) {
			return clonePerson(p), nil
		}
	}
	return nil, errors.NewNotFoundError("person", key.ExternalID)
}

// PersonByWebAccessID returns the person with the given web access id.
func (s *Store) PersonByWebAccessID(webAccessID string) (*entities.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.people {
		if p.WebAccessID == webAccessID {
			return clonePerson(p), nil
		}
	}
	return nil, errors.NewNotFoundError("person", webAccessID)
}

// PeopleByName returns every person with the given first and last name.
func (s *Store) PeopleByName(firstName, lastName string) ([]*entities.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entities.Person
	for _, p := range s.people {
		if p.FirstName == firstName && p.LastName == lastName {
			out = append(out, clonePerson(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PutPerson upserts a person by id, assigning one if absent.
func (s *Store) PutPerson(p *entities.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = entities.NewID()
	}
	s.people[p.ID] = clonePerson(p)
	return nil
}

// Organization returns the organization with the given id.
func (s *Store) Organization(id entities.ID) (*entities.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.organizations[id]
	if !ok {
		return nil, errors.NewNotFoundError("organization", string(id))
	}
	return cloneOrganization(o), nil
}

// OrganizationByKey returns the organization carrying the external key.
func (s *Store) OrganizationByKey(key entities.ExternalKey) (*entities.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.organizations {
		if o.HasKey(key) {
			return cloneOrganization(o), nil
		}
	}
	return nil, errors.NewNotFoundError("organization", key.ExternalID)
}

// OrganizationByCode returns the organization with the given code.
func (s *Store) OrganizationByCode(code string) (*entities.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.organizations {
		if o.Code == code {
			return cloneOrganization(o), nil
		}
	}
	return nil, errors.NewNotFoundError("organization", code)
}

// PutOrganization upserts an organization by id, assigning one if absent.
func (s *Store) PutOrganization(o *entities.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == "" {
		o.ID = entities.NewID()
	}
	s.organizations[o.ID] = cloneOrganization(o)
	return nil
}

// Publication returns the publication with the given id.
func (s *Store) Publication(id entities.ID) (*entities.Publication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.publications[id]
	if !ok {
		return nil, errors.NewNotFoundError("publication", string(id))
	}
	return clonePublication(p), nil
}

// PublicationByKey returns the publication carrying the external key.
func (s *Store) PublicationByKey(key entities.ExternalKey) (*entities.Publication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.publications {
		if p.HasKey(key) {
			return clonePublication(p), nil
		}
	}
	return nil, errors.NewNotFoundError("publication", key.ExternalID)
}

// VisiblePublications returns non-suppressed publications in creation
// order.
func (s *Store) VisiblePublications() ([]*entities.Publication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entities.Publication, 0, len(s.pubOrder))
	for _, id := range s.pubOrder {
		if p, ok := s.publications[id]; ok && p.Visible {
			out = append(out, clonePublication(p))
		}
	}
	return out, nil
}

// PutPublication upserts a publication by id, assigning one if absent.
func (s *Store) PutPublication(p *entities.Publication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = entities.NewID()
	}
	if _, ok := s.publications[p.ID]; !ok {
		s.pubOrder = append(s.pubOrder, p.ID)
	}
	s.publications[p.ID] = clonePublication(p)
	return nil
}

// Contributors returns a publication's contributor list ordered by
// position.
func (s *Store) Contributors(publicationID entities.ID) ([]*entities.Contributor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entities.Contributor
	for _, c := range s.contributors {
		if c.PublicationID == publicationID {
			cc := *c
			out = append(out, &cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// PutContributor upserts a contributor by id, assigning one if absent.
func (s *Store) PutContributor(c *entities.Contributor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = entities.NewID()
	}
	cc := *c
	s.contributors[c.ID] = &cc
	return nil
}

// DeleteContributor removes a contributor.
func (s *Store) DeleteContributor(id entities.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contributors[id]; !ok {
		return errors.NewNotFoundError("contributor", string(id))
	}
	delete(s.contributors, id)
	return nil
}

// Authorship returns the authorship row for a (publication, person) pair.
func (s *Store) Authorship(publicationID, personID entities.ID) (*entities.Authorship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.authorships {
		if a.PublicationID == publicationID && a.PersonID == personID {
			aa := *a
			return &aa, nil
		}
	}
	return nil, errors.NewNotFoundError("authorship", string(publicationID))
}

// Authorships returns a publication's authorship rows ordered by author
// number.
func (s *Store) Authorships(publicationID entities.ID) ([]*entities.Authorship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entities.Authorship
	for _, a := range s.authorships {
		if a.PublicationID == publicationID {
			aa := *a
			out = append(out, &aa)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AuthorNumber < out[j].AuthorNumber })
	return out, nil
}

// PutAuthorship upserts an authorship by id, assigning one if absent.
func (s *Store) PutAuthorship(a *entities.Authorship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = entities.NewID()
	}
	aa := *a
	s.authorships[a.ID] = &aa
	return nil
}

// MembershipByPureID returns the explicit membership with the given pure
// identifier.
func (s *Store) MembershipByPureID(pureID string) (*entities.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.memberships {
		if m.PureID != "" && m.PureID == pureID {
			return cloneMembership(m), nil
		}
	}
	return nil, errors.NewNotFoundError("membership", pureID)
}

// ImplicitMembership returns the membership between person and
// organization carrying no pure identifier.
func (s *Store) ImplicitMembership(personID, organizationID entities.ID) (*entities.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.memberships {
		if m.PureID == "" && m.PersonID == personID && m.OrganizationID == organizationID {
			return cloneMembership(m), nil
		}
	}
	return nil, errors.NewNotFoundError("membership", string(organizationID))
}

// MembershipsByPerson returns every membership of the person.
func (s *Store) MembershipsByPerson(personID entities.ID) ([]*entities.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entities.Membership
	for _, m := range s.memberships {
		if m.PersonID == personID {
			out = append(out, cloneMembership(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PutMembership upserts a membership by id, assigning one if absent.
func (s *Store) PutMembership(m *entities.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = entities.NewID()
	}
	s.memberships[m.ID] = cloneMembership(m)
	return nil
}

// Group returns the duplicate group with the given id.
func (s *Store) Group(id entities.ID) (*entities.DuplicateGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, errors.NewNotFoundError("duplicate group", string(id))
	}
	return cloneGroup(g), nil
}

// GroupOf returns the group containing the publication.
func (s *Store) GroupOf(publicationID entities.ID) (*entities.DuplicateGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		if g.Contains(publicationID) {
			return cloneGroup(g), nil
		}
	}
	return nil, errors.NewNotFoundError("duplicate group", string(publicationID))
}

// PutGroup upserts a duplicate group by id, assigning one if absent.
func (s *Store) PutGroup(g *entities.DuplicateGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == "" {
		g.ID = entities.NewID()
	}
	s.groups[g.ID] = cloneGroup(g)
	return nil
}

// UnresolvedAuthors returns the unresolved author records for a
// publication.
func (s *Store) UnresolvedAuthors(publicationID entities.ID) ([]*entities.UnresolvedAuthor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entities.UnresolvedAuthor
	for _, u := range s.unresolved {
		if u.PublicationID == publicationID {
			uu := *u
			uu.CandidateIDs = append([]entities.ID(nil), u.CandidateIDs...)
			out = append(out, &uu)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

// PutUnresolvedAuthor upserts by (publication, display name) so repeated
// imports do not duplicate review work.
func (s *Store) PutUnresolvedAuthor(u *entities.UnresolvedAuthor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.unresolved {
		if existing.PublicationID == u.PublicationID && existing.DisplayName == u.DisplayName {
			existing.CandidateIDs = append([]entities.ID(nil), u.CandidateIDs...)
			return nil
		}
	}
	if u.ID == "" {
		u.ID = entities.NewID()
	}
	uu := *u
	uu.CandidateIDs = append([]entities.ID(nil), u.CandidateIDs...)
	s.unresolved[u.ID] = &uu
	return nil
}

// Clone helpers. Key slices are copied so callers never share backing
// arrays with the store.

func cloneRecord(r entities.Record) entities.Record {
	out := r
	out.Keys = append([]entities.ExternalKey(nil), r.Keys...)
	return out
}

func clonePerson(p *entities.Person) *entities.Person {
	out := *p
	out.Record = cloneRecord(p.Record)
	return &out
}

func cloneOrganization(o *entities.Organization) *entities.Organization {
	out := *o
	out.Record = cloneRecord(o.Record)
	return &out
}

func clonePublication(p *entities.Publication) *entities.Publication {
	out := *p
	out.Record = cloneRecord(p.Record)
	return &out
}

func cloneMembership(m *entities.Membership) *entities.Membership {
	out := *m
	out.Record = cloneRecord(m.Record)
	return &out
}

func cloneGroup(g *entities.DuplicateGroup) *entities.DuplicateGroup {
	out := *g
	out.PublicationIDs = append([]entities.ID(nil), g.PublicationIDs...)
	return &out
}
