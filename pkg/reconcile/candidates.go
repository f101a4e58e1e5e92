package reconcile

import (
	"github.com/agentstation/utc"

	"github.com/scholarsync/scholarsync/pkg/entities"
)

// Candidate is a parsed external row awaiting reconciliation. Each entity
// kind has its own candidate type with an explicit field list; attribute
// maps from the feed adapters are validated and narrowed at that boundary,
// never carried through the engine.
type Candidate interface {
	// Kind identifies the entity type this candidate targets.
	Kind() entities.Kind

	// Source names the feed family the candidate came from.
	Source() entities.Source
}

// PersonCandidate is a parsed person row.
type PersonCandidate struct {
	// Key is the feed's external key for this person.
	Key entities.ExternalKey

	WebAccessID string
	FirstName   string
	MiddleName  string
	LastName    string
	Email       string
}

// Kind implements Candidate.
func (c *PersonCandidate) Kind() entities.Kind { return entities.KindPerson }

// Source implements Candidate.
func (c *PersonCandidate) Source() entities.Source { return c.Key.Source }

// OrganizationCandidate is a parsed organization row.
type OrganizationCandidate struct {
	Key entities.ExternalKey

	Code       string
	Name       string
	ParentCode string
}

// Kind implements Candidate.
func (c *OrganizationCandidate) Kind() entities.Kind { return entities.KindOrganization }

// Source implements Candidate.
func (c *OrganizationCandidate) Source() entities.Source { return c.Key.Source }

// ContributorCandidate is one entry of a publication row's contributor
// list, in source order. Identifier fields, when present, are used to
// resolve the entry to a known person.
type ContributorCandidate struct {
	FirstName  string
	MiddleName string
	LastName   string
	Role       string

	// ExternalID is the source's identifier for the list entry itself.
	ExternalID string

	// PersonKey and WebAccessID identify the person, when the feed knows.
	PersonKey   *entities.ExternalKey
	WebAccessID string
}

// PublicationCandidate is a parsed publication row together with its
// ordered contributor list.
type PublicationCandidate struct {
	Key entities.ExternalKey

	Title       string
	Journal     string
	Volume      string
	Issue       string
	Pages       string
	Status      string
	PublishedOn *utc.Time

	Contributors []ContributorCandidate
}

// Kind implements Candidate.
func (c *PublicationCandidate) Kind() entities.Kind { return entities.KindPublication }

// Source implements Candidate.
func (c *PublicationCandidate) Source() entities.Source { return c.Key.Source }

// MembershipCandidate is a parsed explicit membership row.
type MembershipCandidate struct {
	// PureID is the authoritative external identifier of the membership.
	PureID string

	// Source names the feed family for linkage bookkeeping.
	FeedSource entities.Source

	// PersonKey and PersonWebAccessID identify the member.
	PersonKey         *entities.ExternalKey
	PersonWebAccessID string

	// OrganizationCode identifies the organization.
	OrganizationCode string

	Title     string
	StartedOn *utc.Time
	EndedOn   *utc.Time
}

// Kind implements Candidate.
func (c *MembershipCandidate) Kind() entities.Kind { return entities.KindMembership }

// Source implements Candidate.
func (c *MembershipCandidate) Source() entities.Source { return c.FeedSource }
