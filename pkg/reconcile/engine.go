// Package reconcile implements the conflict-aware merge engine at the
// center of feed import. Given a candidate record, the engine resolves it
// to zero or one existing entity, then takes exactly one of three actions:
// CREATE a new entity, UPDATE an unlocked match with a full attribute
// overwrite, or SKIP a match a human has curated.
//
// Child collections are reconciled independently of the parent action,
// each under its own governing lock: a publication's contributor name list
// tracks the upstream source exactly (full replace) while its authorship
// rows are additive and never deleted (upsert only).
package reconcile

import (
	"context"
	"fmt"

	"github.com/agentstation/utc"

	"github.com/scholarsync/scholarsync/pkg/dedupe"
	"github.com/scholarsync/scholarsync/pkg/entities"
	"github.com/scholarsync/scholarsync/pkg/errors"
	"github.com/scholarsync/scholarsync/pkg/hierarchy"
	"github.com/scholarsync/scholarsync/pkg/logging"
	"github.com/scholarsync/scholarsync/pkg/match"
)

// Action is the terminal decision the engine took for one candidate.
type Action string

// Terminal actions.
const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
)

// Outcome describes what the engine did with one candidate.
type Outcome struct {
	Action   Action
	EntityID entities.ID

	// Unresolved counts contributor references that matched more than
	// one person and were recorded for human review.
	Unresolved int
}

// Engine applies candidates to the entity store.
type Engine struct {
	store      entities.Store
	matcher    *match.Matcher
	grouper    *dedupe.Grouper
	propagator *hierarchy.Propagator
	auditDiffs bool
}

// Option configures an Engine.
type Option func(*Engine) error

// WithAuditDiffs enables debug-level unified diffs of entity attributes on
// every UPDATE.
func WithAuditDiffs(enabled bool) Option {
	return func(e *Engine) error {
		e.auditDiffs = enabled
		return nil
	}
}

// New creates an Engine over the given store.
func New(store entities.Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.NewValidationError("store", nil, "store cannot be nil")
	}
	e := &Engine{
		store:      store,
		matcher:    match.New(store),
		grouper:    dedupe.New(store),
		propagator: hierarchy.New(store),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Apply reconciles one candidate and returns the action taken. Errors are
// persistence failures; the batch importer records them per unit and
// continues with the next candidate.
func (e *Engine) Apply(ctx context.Context, c Candidate) (Outcome, error) {
	switch c := c.(type) {
	case *PersonCandidate:
		return e.applyPerson(ctx, c)
	case *OrganizationCandidate:
		return e.applyOrganization(ctx, c)
	case *PublicationCandidate:
		return e.applyPublication(ctx, c)
	case *MembershipCandidate:
		return e.applyMembership(ctx, c)
	default:
		return Outcome{}, errors.NewValidationError("candidate", c, fmt.Sprintf("unsupported candidate type %T", c))
	}
}

// applyPerson reconciles a person candidate.
func (e *Engine) applyPerson(ctx context.Context, c *PersonCandidate) (Outcome, error) {
	m, err := e.matcher.Person(match.PersonRef{Key: &c.Key, WebAccessID: c.WebAccessID})
	if err != nil {
		return Outcome{}, err
	}

	now := utc.Now()
	if m.Outcome != match.Matched {
		p := &entities.Person{
			Record:      newRecord(c.Key, now),
			WebAccessID: c.WebAccessID,
			FirstName:   c.FirstName,
			MiddleName:  c.MiddleName,
			LastName:    c.LastName,
			Email:       c.Email,
		}
		if err := e.store.PutPerson(p); err != nil {
			return Outcome{}, errors.WrapResource("create", "person", c.Key.ExternalID, err)
		}
		return Outcome{Action: ActionCreated, EntityID: p.ID}, nil
	}

	p := m.Person
	if p.Locked() {
		if err := e.recordPersonKey(p, c.Key); err != nil {
			return Outcome{}, err
		}
		logging.Ctx(ctx).Debug().Str("person_id", string(p.ID)).Msg("person locked, attributes untouched")
		return Outcome{Action: ActionSkipped, EntityID: p.ID}, nil
	}

	before := *p
	p.WebAccessID = c.WebAccessID
	p.FirstName = c.FirstName
	p.MiddleName = c.MiddleName
	p.LastName = c.LastName
	p.Email = c.Email
	p.SetKey(c.Key)
	p.UpdatedAt = now
	if e.auditDiffs {
		logUpdateDiff("person", p.ID, &before, p)
	}
	if err := e.store.PutPerson(p); err != nil {
		return Outcome{}, errors.WrapResource("update", "person", string(p.ID), err)
	}
	return Outcome{Action: ActionUpdated, EntityID: p.ID}, nil
}

// applyOrganization reconciles an organization candidate.
func (e *Engine) applyOrganization(ctx context.Context, c *OrganizationCandidate) (Outcome, error) {
	existing, err := e.matcher.Organization(&c.Key, c.Code)
	if err != nil {
		return Outcome{}, err
	}

	parentID, err := e.resolveParent(ctx, c)
	if err != nil {
		return Outcome{}, err
	}

	now := utc.Now()
	if existing == nil {
		o := &entities.Organization{
			Record:   newRecord(c.Key, now),
			Code:     c.Code,
			Name:     c.Name,
			ParentID: parentID,
		}
		if err := e.store.PutOrganization(o); err != nil {
			return Outcome{}, errors.WrapResource("create", "organization", c.Code, err)
		}
		return Outcome{Action: ActionCreated, EntityID: o.ID}, nil
	}

	if existing.Locked() {
		if !existing.HasKey(c.Key) && c.Key.ExternalID != "" {
			existing.SetKey(c.Key)
			if err := e.store.PutOrganization(existing); err != nil {
				return Outcome{}, errors.WrapResource("update", "organization", string(existing.ID), err)
			}
		}
		return Outcome{Action: ActionSkipped, EntityID: existing.ID}, nil
	}

	before := *existing
	existing.Code = c.Code
	existing.Name = c.Name
	existing.ParentID = parentID
	if c.Key.ExternalID != "" {
		existing.SetKey(c.Key)
	}
	existing.UpdatedAt = now
	if e.auditDiffs {
		logUpdateDiff("organization", existing.ID, &before, existing)
	}
	if err := e.store.PutOrganization(existing); err != nil {
		return Outcome{}, errors.WrapResource("update", "organization", string(existing.ID), err)
	}
	return Outcome{Action: ActionUpdated, EntityID: existing.ID}, nil
}

// resolveParent looks up the parent organization named by the candidate's
// parent code. A missing parent is tolerated; feeds do not guarantee
// parents arrive before children within one batch.
func (e *Engine) resolveParent(ctx context.Context, c *OrganizationCandidate) (entities.ID, error) {
	if c.ParentCode == "" {
		return "", nil
	}
	if c.ParentCode == c.Code {
		logging.Ctx(ctx).Warn().
			Str("code", c.Code).
			Msg("organization names itself as parent, leaving unlinked")
		return "", nil
	}
	parent, err := e.store.OrganizationByCode(c.ParentCode)
	if err != nil {
		if errors.IsNotFound(err) {
			logging.Ctx(ctx).Warn().
				Str("code", c.Code).
				Str("parent_code", c.ParentCode).
				Msg("parent organization not found, leaving unlinked")
			return "", nil
		}
		return "", err
	}
	return parent.ID, nil
}

// applyMembership reconciles an explicit membership candidate and runs
// hierarchy propagation.
func (e *Engine) applyMembership(ctx context.Context, c *MembershipCandidate) (Outcome, error) {
	if c.PureID == "" {
		return Outcome{}, errors.NewValidationError("pure_id", "", "explicit membership requires a pure identifier")
	}

	pm, err := e.matcher.Person(match.PersonRef{Key: c.PersonKey, WebAccessID: c.PersonWebAccessID})
	if err != nil {
		return Outcome{}, err
	}
	if pm.Outcome != match.Matched {
		return Outcome{}, errors.NewValidationError("person", c.PersonWebAccessID, "membership person not found")
	}

	org, err := e.matcher.Organization(nil, c.OrganizationCode)
	if err != nil {
		return Outcome{}, err
	}
	if org == nil {
		return Outcome{}, errors.NewValidationError("organization", c.OrganizationCode, "membership organization not found")
	}

	explicit, created, err := e.propagator.Propagate(pm.Person, org, c.PureID, hierarchy.Attrs{
		Title:     c.Title,
		StartedOn: c.StartedOn,
		EndedOn:   c.EndedOn,
	})
	if err != nil {
		return Outcome{}, err
	}

	action := ActionUpdated
	if created {
		action = ActionCreated
	}
	return Outcome{Action: action, EntityID: explicit.ID}, nil
}

// recordPersonKey records linkage bookkeeping for a locked person without
// touching attributes.
func (e *Engine) recordPersonKey(p *entities.Person, key entities.ExternalKey) error {
	if key.ExternalID == "" || p.HasKey(key) {
		return nil
	}
	p.SetKey(key)
	if err := e.store.PutPerson(p); err != nil {
		return errors.WrapResource("update", "person", string(p.ID), err)
	}
	return nil
}

// newRecord builds the identity core for a freshly created entity.
func newRecord(key entities.ExternalKey, now utc.Time) entities.Record {
	r := entities.Record{
		ID:        entities.NewID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if key.ExternalID != "" {
		r.SetKey(key)
	}
	return r
}
