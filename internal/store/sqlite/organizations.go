package sqlite

import (
	"database/sql"

	"github.com/scholarsync/scholarsync/pkg/entities"
	"github.com/scholarsync/scholarsync/pkg/errors"
)

const organizationColumns = "id, code, name, parent_id, human_edited_at, created_at, updated_at"

// Organization returns the organization with the given id.
func (s *Store) Organization(id entities.ID) (*entities.Organization, error) {
	return s.organizationWhere("id = ?", string(id))
}

// OrganizationByKey returns the organization carrying the external key.
func (s *Store) OrganizationByKey(key entities.ExternalKey) (*entities.Organization, error) {
	id, err := entityIDByKey(s.db, key)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError("organization", key.ExternalID)
		}
		return nil, err
	}
	return s.Organization(id)
}

// OrganizationByCode returns the organization with the given code.
func (s *Store) OrganizationByCode(code string) (*entities.Organization, error) {
	return s.organizationWhere("code = ?", code)
}

// PutOrganization upserts an organization by id, assigning one if absent.
func (s *Store) PutOrganization(o *entities.Organization) error {
	ensureID(&o.ID)
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO organizations (id, code, name, parent_id, human_edited_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				code = excluded.code,
				name = excluded.name,
				parent_id = excluded.parent_id,
				human_edited_at = excluded.human_edited_at,
				updated_at = excluded.updated_at`,
			string(o.ID), o.Code, o.Name, string(o.ParentID),
			nullTime(o.HumanEditedAt), o.CreatedAt.Format(timeLayout), o.UpdatedAt.Format(timeLayout),
		)
		if err != nil {
			return err
		}
		return saveKeys(tx, o.ID, o.Keys)
	})
}

func (s *Store) organizationWhere(where string, args ...any) (*entities.Organization, error) {
	row := s.db.QueryRow("SELECT "+organizationColumns+" FROM organizations WHERE "+where, args...)

	var o entities.Organization
	var id, parentID, createdAt, updatedAt string
	var humanEditedAt sql.NullString

	err := row.Scan(&id, &o.Code, &o.Name, &parentID, &humanEditedAt, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("organization", "")
	}
	if err != nil {
		return nil, err
	}

	o.ID = entities.ID(id)
	o.ParentID = entities.ID(parentID)
	if o.HumanEditedAt, err = scanTime(humanEditedAt); err != nil {
		return nil, err
	}
	if o.CreatedAt, err = mustTime(createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = mustTime(updatedAt); err != nil {
		return nil, err
	}
	if o.Keys, err = keysFor(s.db, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}
