package sqlite

import (
	"database/sql"

	"github.com/scholarsync/scholarsync/pkg/entities"
	"github.com/scholarsync/scholarsync/pkg/errors"
)

const membershipColumns = "id, person_id, organization_id, pure_id, authoritative, title, started_on, ended_on, human_edited_at, created_at, updated_at"

// MembershipByPureID returns the explicit membership with the given pure
// identifier.
func (s *Store) MembershipByPureID(pureID string) (*entities.Membership, error) {
	row := s.db.QueryRow(
		"SELECT "+membershipColumns+" FROM memberships WHERE pure_id = ? AND pure_id != ''",
		pureID,
	)
	m, err := scanMembership(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("membership", pureID)
	}
	return m, err
}

// ImplicitMembership returns the membership between person and
// organization carrying no pure identifier.
func (s *Store) ImplicitMembership(personID, organizationID entities.ID) (*entities.Membership, error) {
	row := s.db.QueryRow(
		"SELECT "+membershipColumns+" FROM memberships WHERE pure_id = '' AND person_id = ? AND organization_id = ?",
		string(personID), string(organizationID),
	)
	m, err := scanMembership(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("membership", string(organizationID))
	}
	return m, err
}

// MembershipsByPerson returns every membership of the person.
func (s *Store) MembershipsByPerson(personID entities.ID) ([]*entities.Membership, error) {
	rows, err := s.db.Query(
		"SELECT "+membershipColumns+" FROM memberships WHERE person_id = ? ORDER BY id",
		string(personID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entities.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// PutMembership upserts a membership by id, assigning one if absent.
func (s *Store) PutMembership(m *entities.Membership) error {
	ensureID(&m.ID)
	_, err := s.db.Exec(`
		INSERT INTO memberships (id, person_id, organization_id, pure_id, authoritative, title, started_on, ended_on, human_edited_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			person_id = excluded.person_id,
			organization_id = excluded.organization_id,
			pure_id = excluded.pure_id,
			authoritative = excluded.authoritative,
			title = excluded.title,
			started_on = excluded.started_on,
			ended_on = excluded.ended_on,
			human_edited_at = excluded.human_edited_at,
			updated_at = excluded.updated_at`,
		string(m.ID), string(m.PersonID), string(m.OrganizationID), m.PureID, boolInt(m.Authoritative),
		m.Title, nullTime(m.StartedOn), nullTime(m.EndedOn), nullTime(m.HumanEditedAt),
		m.CreatedAt.Format(timeLayout), m.UpdatedAt.Format(timeLayout),
	)
	return err
}

func scanMembership(row rowScanner) (*entities.Membership, error) {
	var m entities.Membership
	var id, personID, organizationID, createdAt, updatedAt string
	var startedOn, endedOn, humanEditedAt sql.NullString
	var authoritative int

	err := row.Scan(&id, &personID, &organizationID, &m.PureID, &authoritative, &m.Title,
		&startedOn, &endedOn, &humanEditedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	m.ID = entities.ID(id)
	m.PersonID = entities.ID(personID)
	m.OrganizationID = entities.ID(organizationID)
	m.Authoritative = authoritative != 0
	if m.StartedOn, err = scanTime(startedOn); err != nil {
		return nil, err
	}
	if m.EndedOn, err = scanTime(endedOn); err != nil {
		return nil, err
	}
	if m.HumanEditedAt, err = scanTime(humanEditedAt); err != nil {
		return nil, err
	}
	if m.CreatedAt, err = mustTime(createdAt); err != nil {
		return nil, err
	}
	if m.UpdatedAt, err = mustTime(updatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
