package sqlite

import (
	"database/sql"
	"encoding/json"

	"github.com/scholarsync/scholarsync/pkg/entities"
	"github.com/scholarsync/scholarsync/pkg/errors"
)

const publicationColumns = "id, title, journal, volume, issue, pages, status, published_on, visible, group_id, authorships_edited_at, human_edited_at, created_at, updated_at"

// Publication returns the publication with the given id.
func (s *Store) Publication(id entities.ID) (*entities.Publication, error) {
	row := s.db.QueryRow("SELECT "+publicationColumns+" FROM publications WHERE id = ?", string(id))
	p, err := scanPublication(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("publication", string(id))
	}
	if err != nil {
		return nil, err
	}
	if p.Keys, err = keysFor(s.db, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// PublicationByKey returns the publication carrying the external key.
func (s *Store) PublicationByKey(key entities.ExternalKey) (*entities.Publication, error) {
	id, err := entityIDByKey(s.db, key)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError("publication", key.ExternalID)
		}
		return nil, err
	}
	return s.Publication(id)
}

// VisiblePublications returns non-suppressed publications in creation
// order.
func (s *Store) VisiblePublications() ([]*entities.Publication, error) {
	rows, err := s.db.Query("SELECT " + publicationColumns + " FROM publications WHERE visible = 1 ORDER BY seq")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entities.Publication
	for rows.Next() {
		p, err := scanPublication(rows)
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

// PutPublication upserts a publication by id, assigning one if absent.
// Creation order is preserved in the seq column for visibility scans.
func (s *Store) PutPublication(p *entities.Publication) error {
	ensureID(&p.ID)
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO publications (id, title, journal, volume, issue, pages, status, published_on, visible, group_id, authorships_edited_at, human_edited_at, created_at, updated_at, seq)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
				(SELECT COALESCE(MAX(seq), 0) + 1 FROM publications))
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				journal = excluded.journal,
				volume = excluded.volume,
				issue = excluded.issue,
				pages = excluded.pages,
				status = excluded.status,
				published_on = excluded.published_on,
				visible = excluded.visible,
				group_id = excluded.group_id,
				authorships_edited_at = excluded.authorships_edited_at,
				human_edited_at = excluded.human_edited_at,
				updated_at = excluded.updated_at`,
			string(p.ID), p.Title, p.Journal, p.Volume, p.Issue, p.Pages, p.Status,
			nullTime(p.PublishedOn), boolInt(p.Visible), string(p.GroupID),
			nullTime(p.AuthorshipsEditedAt), nullTime(p.HumanEditedAt),
			p.CreatedAt.Format(timeLayout), p.UpdatedAt.Format(timeLayout),
		)
		if err != nil {
			return err
		}
		return saveKeys(tx, p.ID, p.Keys)
	})
}

// Contributors returns a publication's contributor list ordered by
// position.
func (s *Store) Contributors(publicationID entities.ID) ([]*entities.Contributor, error) {
	rows, err := s.db.Query(`
		SELECT id, publication_id, position, first_name, middle_name, last_name, role, external_id
		FROM contributors WHERE publication_id = ? ORDER BY position`,
		string(publicationID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entities.Contributor
	for rows.Next() {
		var c entities.Contributor
		var id, pubID string
		if err := rows.Scan(&id, &pubID, &c.Position, &c.FirstName, &c.MiddleName, &c.LastName, &c.Role, &c.ExternalID); err != nil {
			return nil, err
		}
		c.ID = entities.ID(id)
		c.PublicationID = entities.ID(pubID)
		out = append(out, &c)
	}
	return out, rows.Err()
}

// PutContributor upserts a contributor by id, assigning one if absent.
func (s *Store) PutContributor(c *entities.Contributor) error {
	ensureID(&c.ID)
	_, err := s.db.Exec(`
		INSERT INTO contributors (id, publication_id, position, first_name, middle_name, last_name, role, external_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			position = excluded.position,
			first_name = excluded.first_name,
			middle_name = excluded.middle_name,
			last_name = excluded.last_name,
			role = excluded.role,
			external_id = excluded.external_id`,
		string(c.ID), string(c.PublicationID), c.Position,
		c.FirstName, c.MiddleName, c.LastName, c.Role, c.ExternalID,
	)
	return err
}

// DeleteContributor removes a contributor.
func (s *Store) DeleteContributor(id entities.ID) error {
	res, err := s.db.Exec("DELETE FROM contributors WHERE id = ?", string(id))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.NewNotFoundError("contributor", string(id))
	}
	return nil
}

// Authorship returns the authorship row for a (publication, person) pair.
func (s *Store) Authorship(publicationID, personID entities.ID) (*entities.Authorship, error) {
	row := s.db.QueryRow(
		"SELECT id, publication_id, person_id, author_number FROM authorships WHERE publication_id = ? AND person_id = ?",
		string(publicationID), string(personID),
	)
	return scanAuthorship(row)
}

// Authorships returns a publication's authorship rows ordered by author
// number.
func (s *Store) Authorships(publicationID entities.ID) ([]*entities.Authorship, error) {
	rows, err := s.db.Query(
		"SELECT id, publication_id, person_id, author_number FROM authorships WHERE publication_id = ? ORDER BY author_number",
		string(publicationID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entities.Authorship
	for rows.Next() {
		a, err := scanAuthorship(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// PutAuthorship upserts an authorship by id, assigning one if absent.
func (s *Store) PutAuthorship(a *entities.Authorship) error {
	ensureID(&a.ID)
	_, err := s.db.Exec(`
		INSERT INTO authorships (id, publication_id, person_id, author_number)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(publication_id, person_id) DO UPDATE SET
			author_number = excluded.author_number`,
		string(a.ID), string(a.PublicationID), string(a.PersonID), a.AuthorNumber,
	)
	return err
}

// Group returns the duplicate group with the given id.
func (s *Store) Group(id entities.ID) (*entities.DuplicateGroup, error) {
	var exists int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM duplicate_groups WHERE id = ?", string(id)).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, errors.NewNotFoundError("duplicate group", string(id))
	}
	return s.loadGroup(id)
}

// GroupOf returns the group containing the publication.
func (s *Store) GroupOf(publicationID entities.ID) (*entities.DuplicateGroup, error) {
	var groupID string
	err := s.db.QueryRow(
		"SELECT group_id FROM duplicate_group_members WHERE publication_id = ?",
		string(publicationID),
	).Scan(&groupID)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("duplicate group", string(publicationID))
	}
	if err != nil {
		return nil, err
	}
	return s.loadGroup(entities.ID(groupID))
}

// PutGroup upserts a duplicate group and its membership rows.
func (s *Store) PutGroup(g *entities.DuplicateGroup) error {
	ensureID(&g.ID)
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT OR IGNORE INTO duplicate_groups (id) VALUES (?)", string(g.ID)); err != nil {
			return err
		}
		for _, pubID := range g.PublicationIDs {
			if _, err := tx.Exec(
				"INSERT OR IGNORE INTO duplicate_group_members (group_id, publication_id) VALUES (?, ?)",
				string(g.ID), string(pubID),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// UnresolvedAuthors returns the unresolved author records for a
// publication.
func (s *Store) UnresolvedAuthors(publicationID entities.ID) ([]*entities.UnresolvedAuthor, error) {
	rows, err := s.db.Query(
		"SELECT id, publication_id, display_name, candidate_ids FROM unresolved_authors WHERE publication_id = ? ORDER BY display_name",
		string(publicationID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entities.UnresolvedAuthor
	for rows.Next() {
		var u entities.UnresolvedAuthor
		var id, pubID, candidates string
		if err := rows.Scan(&id, &pubID, &u.DisplayName, &candidates); err != nil {
			return nil, err
		}
		u.ID = entities.ID(id)
		u.PublicationID = entities.ID(pubID)
		if err := json.Unmarshal([]byte(candidates), &u.CandidateIDs); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

// PutUnresolvedAuthor upserts by (publication, display name).
func (s *Store) PutUnresolvedAuthor(u *entities.UnresolvedAuthor) error {
	ensureID(&u.ID)
	candidates, err := json.Marshal(u.CandidateIDs)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO unresolved_authors (id, publication_id, display_name, candidate_ids)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(publication_id, display_name) DO UPDATE SET
			candidate_ids = excluded.candidate_ids`,
		string(u.ID), string(u.PublicationID), u.DisplayName, string(candidates),
	)
	return err
}

func (s *Store) loadGroup(id entities.ID) (*entities.DuplicateGroup, error) {
	rows, err := s.db.Query(
		"SELECT publication_id FROM duplicate_group_members WHERE group_id = ? ORDER BY rowid",
		string(id),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	g := &entities.DuplicateGroup{ID: id}
	for rows.Next() {
		var pubID string
		if err := rows.Scan(&pubID); err != nil {
			return nil, err
		}
		g.PublicationIDs = append(g.PublicationIDs, entities.ID(pubID))
	}
	return g, rows.Err()
}

func scanAuthorship(row rowScanner) (*entities.Authorship, error) {
	var a entities.Authorship
	var id, pubID, personID string
	err := row.Scan(&id, &pubID, &personID, &a.AuthorNumber)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("authorship", "")
	}
	if err != nil {
		return nil, err
	}
	a.ID = entities.ID(id)
	a.PublicationID = entities.ID(pubID)
	a.PersonID = entities.ID(personID)
	return &a, nil
}

func scanPublication(row rowScanner) (*entities.Publication, error) {
	var p entities.Publication
	var id, groupID, createdAt, updatedAt string
	var publishedOn, authorshipsEditedAt, humanEditedAt sql.NullString
	var visible int

	err := row.Scan(&id, &p.Title, &p.Journal, &p.Volume, &p.Issue, &p.Pages, &p.Status,
		&publishedOn, &visible, &groupID, &authorshipsEditedAt, &humanEditedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.ID = entities.ID(id)
	p.GroupID = entities.ID(groupID)
	p.Visible = visible != 0
	if p.PublishedOn, err = scanTime(publishedOn); err != nil {
		return nil, err
	}
	if p.AuthorshipsEditedAt, err = scanTime(authorshipsEditedAt); err != nil {
		return nil, err
	}
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

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
