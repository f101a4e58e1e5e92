package reconcile_test

import (
	"context"
	"testing"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarsync/scholarsync/internal/store/memory"
	"github.com/scholarsync/scholarsync/pkg/entities"
	"github.com/scholarsync/scholarsync/pkg/reconcile"
)

func pubKey(id string) entities.ExternalKey {
	return entities.ExternalKey{Source: feedSource, ExternalID: id}
}

func seedPerson(t *testing.T, s *memory.Store, first, last, webaccess string) *entities.Person {
	t.Helper()
	p := &entities.Person{
		Record:      entities.Record{ID: entities.NewID()},
		WebAccessID: webaccess,
		FirstName:   first,
		LastName:    last,
	}
	require.NoError(t, s.PutPerson(p))
	return p
}

func TestApplyPublicationCreate(t *testing.T) {
	e, s := newEngine(t)

	out, err := e.Apply(context.Background(), &reconcile.PublicationCandidate{
		Key:     pubKey("pub-1"),
		Title:   "On Computable Numbers",
		Journal: "Proc. London Math. Soc.",
		Status:  "published",
	})
	require.NoError(t, err)
	assert.Equal(t, reconcile.ActionCreated, out.Action)

	p, err := s.PublicationByKey(pubKey("pub-1"))
	require.NoError(t, err)
	assert.True(t, p.Visible)
	assert.Equal(t, "Proc. London Math. Soc.", p.Journal)
}

func TestApplyPublicationUpdateOverwrites(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	_, err := e.Apply(ctx, &reconcile.PublicationCandidate{
		Key:     pubKey("pub-1"),
		Title:   "On Computable Numbers",
		Journal: "Proc. London Math. Soc.",
		Volume:  "2",
	})
	require.NoError(t, err)

	out, err := e.Apply(ctx, &reconcile.PublicationCandidate{
		Key:   pubKey("pub-1"),
		Title: "On Computable Numbers, with Corrections",
	})
	require.NoError(t, err)
	assert.Equal(t, reconcile.ActionUpdated, out.Action)

	p, err := s.PublicationByKey(pubKey("pub-1"))
	require.NoError(t, err)
	assert.Equal(t, "On Computable Numbers, with Corrections", p.Title)
	// Full overwrite clears fields the feed stopped sending.
	assert.Empty(t, p.Journal)
	assert.Empty(t, p.Volume)
}

func TestApplyPublicationLockedSkips(t *testing.T) {
	e, s := newEngine(t)

	now := utc.Now()
	locked := &entities.Publication{
		Record:  entities.Record{ID: entities.NewID(), HumanEditedAt: &now},
		Title:   "Curated Title",
		Visible: true,
	}
	locked.SetKey(pubKey("pub-1"))
	require.NoError(t, s.PutPublication(locked))

	out, err := e.Apply(context.Background(), &reconcile.PublicationCandidate{
		Key:   pubKey("pub-1"),
		Title: "Feed Title",
		Contributors: []reconcile.ContributorCandidate{
			{FirstName: "Ada", LastName: "Lovelace"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, reconcile.ActionSkipped, out.Action)

	p, err := s.Publication(locked.ID)
	require.NoError(t, err)
	assert.Equal(t, "Curated Title", p.Title)

	// The curated contributor list is untouched as well.
	contribs, err := s.Contributors(locked.ID)
	require.NoError(t, err)
	assert.Empty(t, contribs)
}

func TestApplyPublicationAuthorNumbering(t *testing.T) {
	e, s := newEngine(t)

	ada := seedPerson(t, s, "Ada", "Lovelace", "al1")
	grace := seedPerson(t, s, "Grace", "Hopper", "gh2")
	// Two John Smiths make that name ambiguous.
	seedPerson(t, s, "John", "Smith", "js1")
	seedPerson(t, s, "John", "Smith", "js2")

	out, err := e.Apply(context.Background(), &reconcile.PublicationCandidate{
		Key:   pubKey("pub-1"),
		Title: "Collaborative Work",
		Contributors: []reconcile.ContributorCandidate{
			{FirstName: "Ada", LastName: "Lovelace", WebAccessID: "al1"},
			{FirstName: "Totally", LastName: "Unknown"},
			{FirstName: "John", LastName: "Smith"},
			{FirstName: "Grace", LastName: "Hopper", WebAccessID: "gh2"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, reconcile.ActionCreated, out.Action)
	assert.Equal(t, 1, out.Unresolved)

	pub, err := s.PublicationByKey(pubKey("pub-1"))
	require.NoError(t, err)

	// Numbers run 1..N over the resolved subsequence only: the unknown and
	// the ambiguous entries consume no number.
	auths, err := s.Authorships(pub.ID)
	require.NoError(t, err)
	require.Len(t, auths, 2)
	assert.Equal(t, ada.ID, auths[0].PersonID)
	assert.Equal(t, 1, auths[0].AuthorNumber)
	assert.Equal(t, grace.ID, auths[1].PersonID)
	assert.Equal(t, 2, auths[1].AuthorNumber)

	// The ambiguous name lands in the review queue with both candidates.
	unresolved, err := s.UnresolvedAuthors(pub.ID)
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
	assert.Equal(t, "John Smith", unresolved[0].DisplayName)
	assert.Len(t, unresolved[0].CandidateIDs, 2)

	// The full contributor name list keeps every entry in source order.
	contribs, err := s.Contributors(pub.ID)
	require.NoError(t, err)
	require.Len(t, contribs, 4)
	for i, c := range contribs {
		assert.Equal(t, i+1, c.Position)
	}
	assert.Equal(t, "Unknown", contribs[1].LastName)
}

func TestApplyPublicationContributorFullReplace(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	_, err := e.Apply(ctx, &reconcile.PublicationCandidate{
		Key:   pubKey("pub-1"),
		Title: "A Work",
		Contributors: []reconcile.ContributorCandidate{
			{FirstName: "Ada", LastName: "Lovelace"},
			{FirstName: "Stale", LastName: "Entry"},
		},
	})
	require.NoError(t, err)

	_, err = e.Apply(ctx, &reconcile.PublicationCandidate{
		Key:   pubKey("pub-1"),
		Title: "A Work",
		Contributors: []reconcile.ContributorCandidate{
			{FirstName: "Ada", LastName: "Lovelace"},
			{FirstName: "Grace", LastName: "Hopper"},
		},
	})
	require.NoError(t, err)

	pub, err := s.PublicationByKey(pubKey("pub-1"))
	require.NoError(t, err)
	contribs, err := s.Contributors(pub.ID)
	require.NoError(t, err)
	require.Len(t, contribs, 2)
	assert.Equal(t, "Lovelace", contribs[0].LastName)
	assert.Equal(t, "Hopper", contribs[1].LastName)
}

func TestApplyPublicationContributorMatchByExternalID(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	_, err := e.Apply(ctx, &reconcile.PublicationCandidate{
		Key:   pubKey("pub-1"),
		Title: "A Work",
		Contributors: []reconcile.ContributorCandidate{
			{FirstName: "Ada", LastName: "Lovelace", ExternalID: "c-1"},
		},
	})
	require.NoError(t, err)

	pub, err := s.PublicationByKey(pubKey("pub-1"))
	require.NoError(t, err)
	before, err := s.Contributors(pub.ID)
	require.NoError(t, err)
	require.Len(t, before, 1)

	// Same external id with a corrected name updates in place.
	_, err = e.Apply(ctx, &reconcile.PublicationCandidate{
		Key:   pubKey("pub-1"),
		Title: "A Work",
		Contributors: []reconcile.ContributorCandidate{
			{FirstName: "Augusta Ada", LastName: "Lovelace", ExternalID: "c-1"},
		},
	})
	require.NoError(t, err)

	after, err := s.Contributors(pub.ID)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, before[0].ID, after[0].ID)
	assert.Equal(t, "Augusta Ada", after[0].FirstName)
}

func TestApplyPublicationAuthorshipsUpsertOnly(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	ada := seedPerson(t, s, "Ada", "Lovelace", "al1")
	grace := seedPerson(t, s, "Grace", "Hopper", "gh2")

	_, err := e.Apply(ctx, &reconcile.PublicationCandidate{
		Key:   pubKey("pub-1"),
		Title: "A Work",
		Contributors: []reconcile.ContributorCandidate{
			{FirstName: "Ada", LastName: "Lovelace", WebAccessID: "al1"},
			{FirstName: "Grace", LastName: "Hopper", WebAccessID: "gh2"},
		},
	})
	require.NoError(t, err)

	// A later feed omits Grace; her authorship row must survive.
	_, err = e.Apply(ctx, &reconcile.PublicationCandidate{
		Key:   pubKey("pub-1"),
		Title: "A Work",
		Contributors: []reconcile.ContributorCandidate{
			{FirstName: "Ada", LastName: "Lovelace", WebAccessID: "al1"},
		},
	})
	require.NoError(t, err)

	pub, err := s.PublicationByKey(pubKey("pub-1"))
	require.NoError(t, err)
	auths, err := s.Authorships(pub.ID)
	require.NoError(t, err)
	require.Len(t, auths, 2)

	ids := []entities.ID{auths[0].PersonID, auths[1].PersonID}
	assert.Contains(t, ids, ada.ID)
	assert.Contains(t, ids, grace.ID)
}

func TestApplyPublicationAuthorshipsLocked(t *testing.T) {
	e, s := newEngine(t)

	seedPerson(t, s, "Ada", "Lovelace", "al1")

	now := utc.Now()
	pub := &entities.Publication{
		Record:              entities.Record{ID: entities.NewID()},
		Title:               "A Work",
		Visible:             true,
		AuthorshipsEditedAt: &now,
	}
	pub.SetKey(pubKey("pub-1"))
	require.NoError(t, s.PutPublication(pub))

	out, err := e.Apply(context.Background(), &reconcile.PublicationCandidate{
		Key:   pubKey("pub-1"),
		Title: "A Work",
		Contributors: []reconcile.ContributorCandidate{
			{FirstName: "Ada", LastName: "Lovelace", WebAccessID: "al1"},
		},
	})
	require.NoError(t, err)
	// The record itself is unlocked, so attributes still update.
	assert.Equal(t, reconcile.ActionUpdated, out.Action)

	// But the curated author list gains nothing.
	auths, err := s.Authorships(pub.ID)
	require.NoError(t, err)
	assert.Empty(t, auths)

	// The contributor name list follows the record lock, not the
	// authorship lock, so it is still replaced.
	contribs, err := s.Contributors(pub.ID)
	require.NoError(t, err)
	assert.Len(t, contribs, 1)
}

func TestApplyPublicationDuplicateGrouping(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	_, err := e.Apply(ctx, &reconcile.PublicationCandidate{
		Key:   pubKey("pub-1"),
		Title: "On Computable Numbers",
	})
	require.NoError(t, err)

	out, err := e.Apply(ctx, &reconcile.PublicationCandidate{
		Key:   entities.ExternalKey{Source: "pure", ExternalID: "pure-pub-9"},
		Title: "ON COMPUTABLE NUMBERS",
	})
	require.NoError(t, err)
	assert.Equal(t, reconcile.ActionCreated, out.Action)

	dup, err := s.Publication(out.EntityID)
	require.NoError(t, err)
	assert.False(t, dup.Visible)
	assert.NotEmpty(t, dup.GroupID)

	original, err := s.PublicationByKey(pubKey("pub-1"))
	require.NoError(t, err)
	assert.True(t, original.Visible)
	assert.Equal(t, dup.GroupID, original.GroupID)
}

func TestApplyPublicationUpdateSkipsGrouping(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	_, err := e.Apply(ctx, &reconcile.PublicationCandidate{Key: pubKey("pub-1"), Title: "Distinct Title"})
	require.NoError(t, err)
	_, err = e.Apply(ctx, &reconcile.PublicationCandidate{Key: pubKey("pub-2"), Title: "Another Title"})
	require.NoError(t, err)

	// An update that makes two titles collide does not group; grouping
	// runs only when a publication is first created.
	out, err := e.Apply(ctx, &reconcile.PublicationCandidate{Key: pubKey("pub-2"), Title: "Distinct Title"})
	require.NoError(t, err)
	assert.Equal(t, reconcile.ActionUpdated, out.Action)

	p, err := s.PublicationByKey(pubKey("pub-2"))
	require.NoError(t, err)
	assert.True(t, p.Visible)
	assert.Empty(t, p.GroupID)
}
