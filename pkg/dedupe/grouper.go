// Package dedupe clusters publications that share a normalized title into
// duplicate groups and suppresses the visibility of non-primary members.
//
// Title matching is deliberately a strict normalized-equality rule — case
// folding plus whitespace collapse — not a similarity score. Punctuation
// and subtitles stay significant.
package dedupe

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/scholarsync/scholarsync/pkg/entities"
	"github.com/scholarsync/scholarsync/pkg/errors"
	"github.com/scholarsync/scholarsync/pkg/logging"
)

var lower = cases.Lower(language.Und)

// Signature computes the normalized-title signature used for duplicate
// detection: Unicode lowercase, internal whitespace collapsed to single
// spaces, leading and trailing whitespace stripped.
func Signature(title string) string {
	return strings.Join(strings.Fields(lower.String(title)), " ")
}

// Grouper evaluates newly created publications against the visible
// publications already in the store.
type Grouper struct {
	store entities.Store
}

// New creates a grouper over the given store.
func New(store entities.Store) *Grouper {
	return &Grouper{store: store}
}

// Evaluate is called once, after a publication entity is created (never on
// update or skip). If any visible publication shares the new one's
// normalized title, the new publication joins that publication's duplicate
// group — creating the group if none exists — and is suppressed. Existing
// group members keep whatever visibility was already curated.
func (g *Grouper) Evaluate(pub *entities.Publication) error {
	// Already grouped; nothing to do. Keeps re-evaluation idempotent.
	if pub.GroupID != "" {
		return nil
	}

	sig := Signature(pub.Title)
	if sig == "" {
		return nil
	}

	visible, err := g.store.VisiblePublications()
	if err != nil {
		return errors.WrapResource("fetch", "publication", "", err)
	}

	var matches []*entities.Publication
	for _, other := range visible {
		if other.ID == pub.ID {
			continue
		}
		if Signature(other.Title) == sig {
			matches = append(matches, other)
		}
	}
	if len(matches) == 0 {
		return nil
	}

	group, err := g.groupOfAny(matches)
	if err != nil {
		return err
	}

	if group == nil {
		group = &entities.DuplicateGroup{ID: entities.NewID()}
		for _, m := range matches {
			group.Add(m.ID)
			// Group linkage is identity bookkeeping, not an attribute
			// merge, so it applies to locked publications as well.
			m.GroupID = group.ID
			if err := g.store.PutPublication(m); err != nil {
				return errors.WrapResource("update", "publication", string(m.ID), err)
			}
		}
	}

	group.Add(pub.ID)
	if err := g.store.PutGroup(group); err != nil {
		return errors.WrapResource("update", "duplicate group", string(group.ID), err)
	}

	// The newly imported record defers to whatever was already curated.
	pub.GroupID = group.ID
	pub.Visible = false
	if err := g.store.PutPublication(pub); err != nil {
		return errors.WrapResource("update", "publication", string(pub.ID), err)
	}

	logging.Debug().
		Str("publication_id", string(pub.ID)).
		Str("group_id", string(group.ID)).
		Int("members", len(group.PublicationIDs)).
		Msg("publication joined duplicate group")
	return nil
}

// groupOfAny returns the first existing group any of the matched
// publications belongs to.
func (g *Grouper) groupOfAny(matches []*entities.Publication) (*entities.DuplicateGroup, error) {
	for _, m := range matches {
		group, err := g.store.GroupOf(m.ID)
		if err == nil {
			return group, nil
		}
		if !errors.IsNotFound(err) {
			return nil, err
		}
	}
	return nil, nil
}
