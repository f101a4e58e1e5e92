package reconcile

import (
	"github.com/scholarsync/scholarsync/pkg/entities"
	"github.com/scholarsync/scholarsync/pkg/errors"
)

// Subcollection policies. Two exist because the collections mean different
// things: authorship rows are a durable claim that must stay additive once
// a human has touched the list, while the contributor name list should
// track the upstream source exactly unless a human has taken it over.

// contributorKey matches an existing list entry against an incoming one
// when the feed provides no external id for the entry.
type contributorKey struct {
	first    string
	middle   string
	last     string
	position int
}

// replaceContributors applies the full-replace-with-lock policy to the
// publication's contributor name list. A locked publication keeps its list
// exactly as curated — no additions, removals, or updates. Otherwise every
// existing entry not matched by an incoming row is deleted and every
// incoming row is upserted, preserving the source's ordering.
func (e *Engine) replaceContributors(pub *entities.Publication, incoming []ContributorCandidate) error {
	if pub.Locked() {
		return nil
	}

	existing, err := e.store.Contributors(pub.ID)
	if err != nil {
		return errors.WrapResource("fetch", "contributor", string(pub.ID), err)
	}

	byExternalID := make(map[string]*entities.Contributor)
	byComposite := make(map[contributorKey]*entities.Contributor)
	for _, c := range existing {
		if c.ExternalID != "" {
			byExternalID[c.ExternalID] = c
		}
		byComposite[contributorKey{c.FirstName, c.MiddleName, c.LastName, c.Position}] = c
	}

	matched := make(map[entities.ID]bool, len(incoming))
	type upsert struct {
		target *entities.Contributor // nil means create
		row    ContributorCandidate
		pos    int
	}
	plan := make([]upsert, 0, len(incoming))

	for i, row := range incoming {
		pos := i + 1
		var target *entities.Contributor
		if row.ExternalID != "" {
			target = byExternalID[row.ExternalID]
		}
		if target == nil {
			target = byComposite[contributorKey{row.FirstName, row.MiddleName, row.LastName, pos}]
		}
		if target != nil {
			matched[target.ID] = true
		}
		plan = append(plan, upsert{target: target, row: row, pos: pos})
	}

	// Delete first so a replacement list never collides with stale rows
	// at the same positions.
	for _, c := range existing {
		if !matched[c.ID] {
			if err := e.store.DeleteContributor(c.ID); err != nil {
				return errors.WrapResource("delete", "contributor", string(c.ID), err)
			}
		}
	}

	for _, u := range plan {
		c := u.target
		if c == nil {
			c = &entities.Contributor{
				ID:            entities.NewID(),
				PublicationID: pub.ID,
			}
		}
		c.Position = u.pos
		c.FirstName = u.row.FirstName
		c.MiddleName = u.row.MiddleName
		c.LastName = u.row.LastName
		c.Role = u.row.Role
		c.ExternalID = u.row.ExternalID
		if err := e.store.PutContributor(c); err != nil {
			return errors.WrapResource("update", "contributor", string(c.ID), err)
		}
	}

	return nil
}

// upsertAuthorships applies the upsert-only policy to the publication's
// authorship rows, keyed on (publication, person). A curated author list
// never gains rows from automated import, and rows absent from the
// incoming set are never deleted.
func (e *Engine) upsertAuthorships(pub *entities.Publication, links []authorLink) error {
	if pub.AuthorshipsLocked() {
		return nil
	}

	for _, link := range links {
		existing, err := e.store.Authorship(pub.ID, link.personID)
		if err != nil && !errors.IsNotFound(err) {
			return errors.WrapResource("fetch", "authorship", string(pub.ID), err)
		}

		if existing == nil || errors.IsNotFound(err) {
			a := &entities.Authorship{
				ID:            entities.NewID(),
				PublicationID: pub.ID,
				PersonID:      link.personID,
				AuthorNumber:  link.number,
			}
			if err := e.store.PutAuthorship(a); err != nil {
				return errors.WrapResource("create", "authorship", string(pub.ID), err)
			}
			continue
		}

		if existing.AuthorNumber == link.number {
			continue
		}
		existing.AuthorNumber = link.number
		if err := e.store.PutAuthorship(existing); err != nil {
			return errors.WrapResource("update", "authorship", string(existing.ID), err)
		}
	}

	return nil
}
