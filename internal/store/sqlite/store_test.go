package sqlite_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarsync/scholarsync/internal/store/sqlite"
	"github.com/scholarsync/scholarsync/pkg/entities"
	"github.com/scholarsync/scholarsync/pkg/errors"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "scholarsync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPersonRoundTrip(t *testing.T) {
	s := openStore(t)

	now := utc.Now()
	key := entities.ExternalKey{Source: "activity-insight", ExternalID: "42"}
	p := &entities.Person{
		Record: entities.Record{
			ID:        entities.NewID(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		WebAccessID: "al1",
		FirstName:   "Ada",
		MiddleName:  "King",
		LastName:    "Lovelace",
		Email:       "al1@example.edu",
	}
	p.SetKey(key)
	require.NoError(t, s.PutPerson(p))

	t.Run("by id", func(t *testing.T) {
		got, err := s.Person(p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ada", got.FirstName)
		assert.Equal(t, "King", got.MiddleName)
		assert.True(t, got.HasKey(key))
		assert.False(t, got.Locked())
	})

	t.Run("by key", func(t *testing.T) {
		got, err := s.PersonByKey(key)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
	})

	t.Run("by web access id", func(t *testing.T) {
		got, err := s.PersonByWebAccessID("al1")
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
	})

	t.Run("lock survives", func(t *testing.T) {
		edited := utc.Now()
		p.HumanEditedAt = &edited
		require.NoError(t, s.PutPerson(p))

		got, err := s.Person(p.ID)
		require.NoError(t, err)
		assert.True(t, got.Locked())
	})

	t.Run("miss is not found", func(t *testing.T) {
		_, err := s.Person("nope")
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestPeopleByName(t *testing.T) {
	s := openStore(t)
	now := utc.Now()

	for _, w := range []string{"js1", "js2"} {
		p := &entities.Person{
			Record:      entities.Record{ID: entities.NewID(), CreatedAt: now, UpdatedAt: now},
			WebAccessID: w,
			FirstName:   "John",
			LastName:    "Smith",
		}
		require.NoError(t, s.PutPerson(p))
	}

	got, err := s.PeopleByName("John", "Smith")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPutPersonUpsertsByID(t *testing.T) {
	s := openStore(t)
	now := utc.Now()

	p := &entities.Person{
		Record:    entities.Record{ID: entities.NewID(), CreatedAt: now, UpdatedAt: now},
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
	require.NoError(t, s.PutPerson(p))

	p.Email = "new@example.edu"
	require.NoError(t, s.PutPerson(p))

	got, err := s.Person(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.edu", got.Email)

	people, err := s.PeopleByName("Ada", "Lovelace")
	require.NoError(t, err)
	assert.Len(t, people, 1)
}

func TestOrganizationRoundTrip(t *testing.T) {
	s := openStore(t)
	now := utc.Now()

	parent := &entities.Organization{
		Record: entities.Record{ID: entities.NewID(), CreatedAt: now, UpdatedAt: now},
		Code:   "UNIV",
		Name:   "University",
	}
	require.NoError(t, s.PutOrganization(parent))

	child := &entities.Organization{
		Record:   entities.Record{ID: entities.NewID(), CreatedAt: now, UpdatedAt: now},
		Code:     "ENGR",
		Name:     "Engineering",
		ParentID: parent.ID,
	}
	require.NoError(t, s.PutOrganization(child))

	got, err := s.OrganizationByCode("ENGR")
	require.NoError(t, err)
	assert.Equal(t, parent.ID, got.ParentID)

	root, err := s.Organization(parent.ID)
	require.NoError(t, err)
	assert.Empty(t, root.ParentID)
}

func TestPublicationsAndChildren(t *testing.T) {
	s := openStore(t)
	now := utc.Now()

	published := utc.Time{Time: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)}
	pub := &entities.Publication{
		Record:      entities.Record{ID: entities.NewID(), CreatedAt: now, UpdatedAt: now},
		Title:       "On Computable Numbers",
		Journal:     "Proc. London Math. Soc.",
		PublishedOn: &published,
		Visible:     true,
	}
	pub.SetKey(entities.ExternalKey{Source: "activity-insight", ExternalID: "pub-1"})
	require.NoError(t, s.PutPublication(pub))

	hidden := &entities.Publication{
		Record:  entities.Record{ID: entities.NewID(), CreatedAt: now, UpdatedAt: now},
		Title:   "Hidden",
		Visible: false,
	}
	require.NoError(t, s.PutPublication(hidden))

	t.Run("visible in creation order", func(t *testing.T) {
		got, err := s.VisiblePublications()
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, pub.ID, got[0].ID)
		require.NotNil(t, got[0].PublishedOn)
		assert.Equal(t, published.Time, got[0].PublishedOn.Time)
	})

	t.Run("contributors ordered by position", func(t *testing.T) {
		for _, c := range []*entities.Contributor{
			{ID: entities.NewID(), PublicationID: pub.ID, Position: 2, LastName: "Hopper"},
			{ID: entities.NewID(), PublicationID: pub.ID, Position: 1, LastName: "Lovelace"},
		} {
			require.NoError(t, s.PutContributor(c))
		}
		got, err := s.Contributors(pub.ID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Lovelace", got[0].LastName)

		require.NoError(t, s.DeleteContributor(got[0].ID))
		got, err = s.Contributors(pub.ID)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("authorship pair uniqueness", func(t *testing.T) {
		personID := entities.NewID()
		a := &entities.Authorship{
			ID:            entities.NewID(),
			PublicationID: pub.ID,
			PersonID:      personID,
			AuthorNumber:  1,
		}
		require.NoError(t, s.PutAuthorship(a))

		a.AuthorNumber = 3
		require.NoError(t, s.PutAuthorship(a))

		got, err := s.Authorship(pub.ID, personID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.AuthorNumber)

		all, err := s.Authorships(pub.ID)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestMemberships(t *testing.T) {
	s := openStore(t)
	now := utc.Now()
	personID, orgID := entities.NewID(), entities.NewID()

	explicit := &entities.Membership{
		Record:         entities.Record{ID: entities.NewID(), CreatedAt: now, UpdatedAt: now},
		PersonID:       personID,
		OrganizationID: orgID,
		PureID:         "pure-1",
		Title:          "Professor",
	}
	require.NoError(t, s.PutMembership(explicit))

	implicit := &entities.Membership{
		Record:         entities.Record{ID: entities.NewID(), CreatedAt: now, UpdatedAt: now},
		PersonID:       personID,
		OrganizationID: orgID,
		Authoritative:  true,
	}
	require.NoError(t, s.PutMembership(implicit))

	byPure, err := s.MembershipByPureID("pure-1")
	require.NoError(t, err)
	assert.Equal(t, explicit.ID, byPure.ID)
	assert.Equal(t, "Professor", byPure.Title)

	imp, err := s.ImplicitMembership(personID, orgID)
	require.NoError(t, err)
	assert.Equal(t, implicit.ID, imp.ID)
	assert.True(t, imp.Authoritative)

	all, err := s.MembershipsByPerson(personID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGroupsAndUnresolved(t *testing.T) {
	s := openStore(t)
	pubA, pubB := entities.NewID(), entities.NewID()

	g := &entities.DuplicateGroup{ID: entities.NewID()}
	g.Add(pubA)
	g.Add(pubB)
	require.NoError(t, s.PutGroup(g))

	got, err := s.GroupOf(pubB)
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
	assert.Len(t, got.PublicationIDs, 2)

	_, err = s.GroupOf(entities.NewID())
	assert.True(t, errors.IsNotFound(err))

	u := &entities.UnresolvedAuthor{
		ID:            entities.NewID(),
		PublicationID: pubA,
		DisplayName:   "J Smith",
		CandidateIDs:  []entities.ID{entities.NewID(), entities.NewID()},
	}
	require.NoError(t, s.PutUnresolvedAuthor(u))
	// Same (publication, display name) updates in place.
	u.CandidateIDs = append(u.CandidateIDs, entities.NewID())
	require.NoError(t, s.PutUnresolvedAuthor(u))

	unresolved, err := s.UnresolvedAuthors(pubA)
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
	assert.Len(t, unresolved[0].CandidateIDs, 3)
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scholarsync.db")

	s, err := sqlite.Open(path)
	require.NoError(t, err)

	now := utc.Now()
	p := &entities.Person{
		Record:    entities.Record{ID: entities.NewID(), CreatedAt: now, UpdatedAt: now},
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
	require.NoError(t, s.PutPerson(p))
	require.NoError(t, s.Close())

	s, err = sqlite.Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Person(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)
}
