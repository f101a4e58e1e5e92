package reconcile

import (
	"context"

	"github.com/agentstation/utc"

	"github.com/scholarsync/scholarsync/pkg/entities"
	"github.com/scholarsync/scholarsync/pkg/errors"
	"github.com/scholarsync/scholarsync/pkg/logging"
	"github.com/scholarsync/scholarsync/pkg/match"
)

// authorLink is a contributor resolved to a known person, carrying the
// author number assigned from its position in the resolved subsequence.
type authorLink struct {
	personID entities.ID
	number   int
}

// applyPublication reconciles a publication candidate, its contributor
// list, and its authorship rows, then runs duplicate grouping for newly
// created publications.
func (e *Engine) applyPublication(ctx context.Context, c *PublicationCandidate) (Outcome, error) {
	pub, err := e.matcher.Publication(c.Key)
	if err != nil {
		return Outcome{}, err
	}

	now := utc.Now()
	var action Action
	switch {
	case pub == nil:
		pub = &entities.Publication{
			Record:      newRecord(c.Key, now),
			Title:       c.Title,
			Journal:     c.Journal,
			Volume:      c.Volume,
			Issue:       c.Issue,
			Pages:       c.Pages,
			Status:      c.Status,
			PublishedOn: c.PublishedOn,
			Visible:     true,
		}
		if err := e.store.PutPublication(pub); err != nil {
			return Outcome{}, errors.WrapResource("create", "publication", c.Key.ExternalID, err)
		}
		action = ActionCreated

	case pub.Locked():
		// Attributes stay untouched; only record that this feed still
		// refers to the same publication.
		if !pub.HasKey(c.Key) {
			pub.SetKey(c.Key)
			if err := e.store.PutPublication(pub); err != nil {
				return Outcome{}, errors.WrapResource("update", "publication", string(pub.ID), err)
			}
		}
		action = ActionSkipped

	default:
		before := *pub
		pub.Title = c.Title
		pub.Journal = c.Journal
		pub.Volume = c.Volume
		pub.Issue = c.Issue
		pub.Pages = c.Pages
		pub.Status = c.Status
		pub.PublishedOn = c.PublishedOn
		pub.SetKey(c.Key)
		pub.UpdatedAt = now
		if e.auditDiffs {
			logUpdateDiff("publication", pub.ID, &before, pub)
		}
		if err := e.store.PutPublication(pub); err != nil {
			return Outcome{}, errors.WrapResource("update", "publication", string(pub.ID), err)
		}
		action = ActionUpdated
	}

	// Child collections are reconciled regardless of the parent action;
	// each policy performs its own lock check.
	links, unresolved, err := e.resolveContributors(ctx, pub, c.Contributors)
	if err != nil {
		return Outcome{}, err
	}
	if err := e.replaceContributors(pub, c.Contributors); err != nil {
		return Outcome{}, err
	}
	if err := e.upsertAuthorships(pub, links); err != nil {
		return Outcome{}, err
	}
	for _, u := range unresolved {
		if err := e.store.PutUnresolvedAuthor(u); err != nil {
			return Outcome{}, errors.WrapResource("create", "unresolved author", u.DisplayName, err)
		}
	}

	// Duplicate detection runs only for newly created publications.
	if action == ActionCreated {
		if err := e.grouper.Evaluate(pub); err != nil {
			return Outcome{}, err
		}
	}

	return Outcome{Action: action, EntityID: pub.ID, Unresolved: len(unresolved)}, nil
}

// resolveContributors matches each contributor to a known person, in
// source order. Resolved contributors are numbered 1..N over the resolved
// subsequence only; entries that match nobody consume no number, and
// entries whose name matches several people are recorded for human review
// instead of being linked.
func (e *Engine) resolveContributors(ctx context.Context, pub *entities.Publication, contributors []ContributorCandidate) ([]authorLink, []*entities.UnresolvedAuthor, error) {
	var links []authorLink
	var unresolved []*entities.UnresolvedAuthor

	number := 0
	for _, c := range contributors {
		m, err := e.matcher.Person(match.PersonRef{
			Key:         c.PersonKey,
			WebAccessID: c.WebAccessID,
			FirstName:   c.FirstName,
			LastName:    c.LastName,
		})
		if err != nil {
			return nil, nil, err
		}

		switch m.Outcome {
		case match.Matched:
			number++
			links = append(links, authorLink{personID: m.Person.ID, number: number})

		case match.Ambiguous:
			unresolved = append(unresolved, &entities.UnresolvedAuthor{
				ID:            entities.NewID(),
				PublicationID: pub.ID,
				DisplayName:   displayName(c),
				CandidateIDs:  m.CandidateIDs,
			})
			logging.Ctx(ctx).Debug().
				Str("publication_id", string(pub.ID)).
				Str("name", displayName(c)).
				Int("candidates", len(m.CandidateIDs)).
				Msg("ambiguous contributor match recorded for review")
		}
	}

	return links, unresolved, nil
}

func displayName(c ContributorCandidate) string {
	name := c.FirstName
	if c.MiddleName != "" {
		name += " " + c.MiddleName
	}
	if c.LastName != "" {
		name += " " + c.LastName
	}
	return name
}
