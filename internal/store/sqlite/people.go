package sqlite

import (
	"database/sql"

	"github.com/scholarsync/scholarsync/pkg/entities"
	"github.com/scholarsync/scholarsync/pkg/errors"
)

const personColumns = "id, webaccess_id, first_name, middle_name, last_name, email, human_edited_at, created_at, updated_at"

// Person returns the person with the given id.
func (s *Store) Person(id entities.ID) (*entities.Person, error) {
	return s.personWhere("id = ?", string(id))
}

// PersonByKey returns the person carrying the external key.
func (s *Store) PersonByKey(key entities.ExternalKey) (*entities.Person, error) {
	id, err := entityIDByKey(s.db, key)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError("person", key.ExternalID)
		}
		return nil, err
	}
	return s.Person(id)
}

// PersonByWebAccessID returns the person with the given web access id.
func (s *Store) PersonByWebAccessID(webAccessID string) (*entities.Person, error) {
	return s.personWhere("webaccess_id = ? AND webaccess_id != ''", webAccessID)
}

// PeopleByName returns every person with the given first and last name.
func (s *Store) PeopleByName(firstName, lastName string) ([]*entities.Person, error) {
	rows, err := s.db.Query(
		"SELECT "+personColumns+" FROM people WHERE first_name = ? AND last_name = ? ORDER BY id",
		firstName, lastName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entities.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, p := range out {
		if p.Keys, err = keysFor(s.db, p.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// PutPerson upserts a person by id, assigning one if absent.
func (s *Store) PutPerson(p *entities.Person) error {
	ensureID(&p.ID)
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO people (id, webaccess_id, first_name, middle_name, last_name, email, human_edited_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				webaccess_id = excluded.webaccess_id,
				first_name = excluded.first_name,
				middle_name = excluded.middle_name,
				last_name = excluded.last_name,
				email = excluded.email,
				human_edited_at = excluded.human_edited_at,
				updated_at = excluded.updated_at`,
			string(p.ID), p.WebAccessID, p.FirstName, p.MiddleName, p.LastName, p.Email,
			nullTime(p.HumanEditedAt), p.CreatedAt.Format(timeLayout), p.UpdatedAt.Format(timeLayout),
		)
		if err != nil {
			return err
		}
		return saveKeys(tx, p.ID, p.Keys)
	})
}

func (s *Store) personWhere(where string, args ...any) (*entities.Person, error) {
	row := s.db.QueryRow("SELECT "+personColumns+" FROM people WHERE "+where, args...)
	p, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("person", "")
	}
	if err != nil {
		return nil, err
	}
	if p.Keys, err = keysFor(s.db, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*entities.Person, error) {
	var p entities.Person
	var id, createdAt, updatedAt string
	var humanEditedAt sql.NullString

	err := row.Scan(&id, &p.WebAccessID, &p.FirstName, &p.MiddleName, &p.LastName, &p.Email,
		&humanEditedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.ID = entities.ID(id)
	if p.HumanEditedAt, err = scanTime(humanEditedAt); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = mustTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = mustTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
