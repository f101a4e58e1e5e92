// Package match resolves candidate records to existing entities. A matcher
// tries an ordered list of identity strategies — exact external key first,
// then the natural key declared by the entity kind — and stops at the first
// strategy that yields a unique result.
//
// Name-based person matching is the one strategy that can be ambiguous; an
// ambiguous result is data, not an error, and is never resolved by silently
// picking a candidate.
package match

import (
	"github.com/scholarsync/scholarsync/pkg/entities"
	"github.com/scholarsync/scholarsync/pkg/errors"
)

// Outcome classifies the result of a person resolution.
type Outcome int

const (
	// Unmatched means no strategy produced a result.
	Unmatched Outcome = iota
	// Matched means exactly one person was resolved.
	Matched
	// Ambiguous means a name strategy produced more than one person.
	Ambiguous
)

// PersonMatch is the result of resolving a person reference.
type PersonMatch struct {
	Outcome Outcome

	// Person is set when Outcome is Matched.
	Person *entities.Person

	// CandidateIDs holds every matching person when Outcome is Ambiguous.
	CandidateIDs []entities.ID
}

// PersonRef carries the identifying parts of a person reference. Empty
// fields disable the corresponding strategy.
type PersonRef struct {
	Key         *entities.ExternalKey
	WebAccessID string
	FirstName   string
	LastName    string
}

// Matcher resolves candidates against the entity store.
type Matcher struct {
	store entities.Store
}

// New creates a matcher over the given store.
func New(store entities.Store) *Matcher {
	return &Matcher{store: store}
}

// Person resolves a person reference. Strategies in order: external key,
// web access id, then first+last name. Only the name strategy can return
// an ambiguous result.
func (m *Matcher) Person(ref PersonRef) (PersonMatch, error) {
	if ref.Key != nil && ref.Key.ExternalID != "" {
		p, err := m.store.PersonByKey(*ref.Key)
		if err == nil {
			return PersonMatch{Outcome: Matched, Person: p}, nil
		}
		if !errors.IsNotFound(err) {
			return PersonMatch{}, err
		}
	}

	if ref.WebAccessID != "" {
		p, err := m.store.PersonByWebAccessID(ref.WebAccessID)
		if err == nil {
			return PersonMatch{Outcome: Matched, Person: p}, nil
		}
		if !errors.IsNotFound(err) {
			return PersonMatch{}, err
		}
	}

	if ref.FirstName != "" && ref.LastName != "" {
		people, err := m.store.PeopleByName(ref.FirstName, ref.LastName)
		if err != nil {
			return PersonMatch{}, err
		}
		switch len(people) {
		case 0:
		case 1:
			return PersonMatch{Outcome: Matched, Person: people[0]}, nil
		default:
			ids := make([]entities.ID, 0, len(people))
			for _, p := range people {
				ids = append(ids, p.ID)
			}
			return PersonMatch{Outcome: Ambiguous, CandidateIDs: ids}, nil
		}
	}

	return PersonMatch{Outcome: Unmatched}, nil
}

// Publication resolves a publication by external key. A nil result with a
// nil error means no match; duplicate-title detection among already
// created publications is a separate concern (pkg/dedupe).
func (m *Matcher) Publication(key entities.ExternalKey) (*entities.Publication, error) {
	p, err := m.store.PublicationByKey(key)
	if err == nil {
		return p, nil
	}
	if errors.IsNotFound(err) {
		return nil, nil
	}
	return nil, err
}

// Organization resolves an organization by external key, then by its
// external code. A nil result with a nil error means no match.
func (m *Matcher) Organization(key *entities.ExternalKey, code string) (*entities.Organization, error) {
	if key != nil && key.ExternalID != "" {
		o, err := m.store.OrganizationByKey(*key)
		if err == nil {
			return o, nil
		}
		if !errors.IsNotFound(err) {
			return nil, err
		}
	}

	if code != "" {
		o, err := m.store.OrganizationByCode(code)
		if err == nil {
			return o, nil
		}
		if !errors.IsNotFound(err) {
			return nil, err
		}
	}

	return nil, nil
}

// Membership resolves an explicit membership by its pure identifier. A nil
// result with a nil error means no match.
func (m *Matcher) Membership(pureID string) (*entities.Membership, error) {
	if pureID == "" {
		return nil, nil
	}
	mem, err := m.store.MembershipByPureID(pureID)
	if err == nil {
		return mem, nil
	}
	if errors.IsNotFound(err) {
		return nil, nil
	}
	return nil, err
}
