// Package hierarchy propagates explicit person-organization memberships up
// the organizational ancestor chain. A person reported as a member of a
// department is implicitly a member of its college and of the university;
// those implicit memberships are materialized here so downstream queries
// never need to walk the tree.
package hierarchy

import (
	"github.com/agentstation/utc"

	"github.com/scholarsync/scholarsync/pkg/entities"
	"github.com/scholarsync/scholarsync/pkg/errors"
	"github.com/scholarsync/scholarsync/pkg/logging"
)

// Attrs are the membership attributes carried by an explicit membership
// and copied onto the implicit memberships it produces.
type Attrs struct {
	Title     string
	StartedOn *utc.Time
	EndedOn   *utc.Time
}

// Propagator upserts explicit memberships and maintains their implicit
// ancestors.
type Propagator struct {
	store entities.Store
}

// New creates a propagator over the given store.
func New(store entities.Store) *Propagator {
	return &Propagator{store: store}
}

// Propagate upserts the explicit membership between person and org keyed
// on pureID, then walks org's ancestor chain ensuring an implicit
// membership exists for each ancestor. It returns the explicit membership
// and whether it was created (as opposed to updated).
//
// Explicit memberships are never lock-checked; they carry an authoritative
// external identifier. Implicit memberships created here are marked
// authoritative so a later propagating import may refresh their date
// ranges; implicit memberships created by any other path are left alone.
// Re-running with identical input changes nothing.
func (p *Propagator) Propagate(person *entities.Person, org *entities.Organization, pureID string, attrs Attrs) (*entities.Membership, bool, error) {
	explicit, created, err := p.upsertExplicit(person, org, pureID, attrs)
	if err != nil {
		return nil, false, err
	}

	// The walk is bounded by a visited set so a malformed hierarchy (an
	// organization reachable from its own ancestor chain) cannot loop.
	visited := map[entities.ID]bool{org.ID: true}
	current := org
	for current.ParentID != "" {
		if visited[current.ParentID] {
			logging.Warn().
				Str("organization", org.Code).
				Str("ancestor_id", string(current.ParentID)).
				Msg("organization hierarchy cycle, stopping propagation")
			break
		}
		visited[current.ParentID] = true
		ancestor, err := p.store.Organization(current.ParentID)
		if err != nil {
			return explicit, created, errors.WrapResource("fetch", "organization", string(current.ParentID), err)
		}
		if err := p.ensureImplicit(person, ancestor, attrs); err != nil {
			return explicit, created, err
		}
		current = ancestor
	}

	return explicit, created, nil
}

// upsertExplicit creates or updates the membership carrying the pure
// identifier.
func (p *Propagator) upsertExplicit(person *entities.Person, org *entities.Organization, pureID string, attrs Attrs) (*entities.Membership, bool, error) {
	existing, err := p.store.MembershipByPureID(pureID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, false, err
	}

	now := utc.Now()
	if existing == nil || errors.IsNotFound(err) {
		m := &entities.Membership{
			Record: entities.Record{
				ID:        entities.NewID(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			PersonID:       person.ID,
			OrganizationID: org.ID,
			PureID:         pureID,
			Title:          attrs.Title,
			StartedOn:      attrs.StartedOn,
			EndedOn:        attrs.EndedOn,
		}
		if err := p.store.PutMembership(m); err != nil {
			return nil, false, errors.WrapResource("create", "membership", pureID, err)
		}
		return m, true, nil
	}

	if !changedExplicit(existing, person, org, attrs) {
		return existing, false, nil
	}
	existing.PersonID = person.ID
	existing.OrganizationID = org.ID
	existing.Title = attrs.Title
	existing.StartedOn = attrs.StartedOn
	existing.EndedOn = attrs.EndedOn
	existing.UpdatedAt = now
	if err := p.store.PutMembership(existing); err != nil {
		return nil, false, errors.WrapResource("update", "membership", pureID, err)
	}
	return existing, false, nil
}

// ensureImplicit creates or refreshes the implicit membership between the
// person and one ancestor organization.
func (p *Propagator) ensureImplicit(person *entities.Person, ancestor *entities.Organization, attrs Attrs) error {
	existing, err := p.store.ImplicitMembership(person.ID, ancestor.ID)
	if err != nil && !errors.IsNotFound(err) {
		return err
	}

	now := utc.Now()
	if existing == nil || errors.IsNotFound(err) {
		m := &entities.Membership{
			Record: entities.Record{
				ID:        entities.NewID(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			PersonID:       person.ID,
			OrganizationID: ancestor.ID,
			Authoritative:  true,
			StartedOn:      attrs.StartedOn,
			EndedOn:        attrs.EndedOn,
		}
		if err := p.store.PutMembership(m); err != nil {
			return errors.WrapResource("create", "membership", string(ancestor.ID), err)
		}
		logging.Debug().
			Str("person_id", string(person.ID)).
			Str("organization", ancestor.Code).
			Msg("created implicit membership")
		return nil
	}

	// Implicit memberships from other paths (another feed, manual entry)
	// are never modified by propagation.
	if !existing.Authoritative {
		return nil
	}

	if sameTime(existing.StartedOn, attrs.StartedOn) && sameTime(existing.EndedOn, attrs.EndedOn) {
		return nil
	}
	existing.StartedOn = attrs.StartedOn
	existing.EndedOn = attrs.EndedOn
	existing.UpdatedAt = now
	if err := p.store.PutMembership(existing); err != nil {
		return errors.WrapResource("update", "membership", string(existing.ID), err)
	}
	return nil
}

func changedExplicit(m *entities.Membership, person *entities.Person, org *entities.Organization, attrs Attrs) bool {
	return m.PersonID != person.ID ||
		m.OrganizationID != org.ID ||
		m.Title != attrs.Title ||
		!sameTime(m.StartedOn, attrs.StartedOn) ||
		!sameTime(m.EndedOn, attrs.EndedOn)
}

func sameTime(a, b *utc.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Time.Equal(b.Time)
}
