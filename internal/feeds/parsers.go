package feeds

import (
	"fmt"
	"strings"

	"github.com/scholarsync/scholarsync/pkg/entities"
	"github.com/scholarsync/scholarsync/pkg/errors"
	"github.com/scholarsync/scholarsync/pkg/reconcile"
)

// PersonParser converts person feed rows into candidates.
// Expected columns: id, webaccess_id, first_name, middle_name, last_name,
// email.
type PersonParser struct {
	Source entities.Source
}

// Parse implements importer.Parser.
func (p *PersonParser) Parse(row any) (reconcile.Candidate, error) {
	id, err := requireField(row, "id")
	if err != nil {
		return nil, err
	}
	first, _ := field(row, "first_name")
	last, err := requireField(row, "last_name")
	if err != nil {
		return nil, err
	}
	middle, _ := field(row, "middle_name")
	webaccess, _ := field(row, "webaccess_id")
	email, _ := field(row, "email")
	return &reconcile.PersonCandidate{
		Key:         entities.ExternalKey{Source: p.Source, ExternalID: id},
		WebAccessID: strings.TrimSpace(webaccess),
		FirstName:   strings.TrimSpace(first),
		MiddleName:  strings.TrimSpace(middle),
		LastName:    last,
		Email:       strings.TrimSpace(email),
	}, nil
}

// OrganizationParser converts organization feed rows into candidates.
// Expected columns: id, code, name, parent_code.
type OrganizationParser struct {
	Source entities.Source
}

// Parse implements importer.Parser.
func (p *OrganizationParser) Parse(row any) (reconcile.Candidate, error) {
	id, err := requireField(row, "id")
	if err != nil {
		return nil, err
	}
	code, err := requireField(row, "code")
	if err != nil {
		return nil, err
	}
	name, err := requireField(row, "name")
	if err != nil {
		return nil, err
	}
	parent, _ := field(row, "parent_code")
	return &reconcile.OrganizationCandidate{
		Key:        entities.ExternalKey{Source: p.Source, ExternalID: id},
		Code:       code,
		Name:       name,
		ParentCode: strings.TrimSpace(parent),
	}, nil
}

// MembershipParser converts explicit membership feed rows into candidates.
// Expected columns: pure_id, webaccess_id (or person_id), organization_code,
// title, started_on, ended_on.
type MembershipParser struct {
	Source entities.Source
}

// Parse implements importer.Parser.
func (p *MembershipParser) Parse(row any) (reconcile.Candidate, error) {
	pureID, err := requireField(row, "pure_id")
	if err != nil {
		return nil, err
	}
	orgCode, err := requireField(row, "organization_code")
	if err != nil {
		return nil, err
	}
	cand := &reconcile.MembershipCandidate{
		PureID:           pureID,
		FeedSource:       p.Source,
		OrganizationCode: orgCode,
	}
	if webaccess, ok := field(row, "webaccess_id"); ok && strings.TrimSpace(webaccess) != "" {
		cand.PersonWebAccessID = strings.TrimSpace(webaccess)
	} else if personID, ok := field(row, "person_id"); ok && strings.TrimSpace(personID) != "" {
		cand.PersonKey = &entities.ExternalKey{Source: p.Source, ExternalID: strings.TrimSpace(personID)}
	} else {
		return nil, errors.NewValidationError("webaccess_id", "", "membership row identifies no person")
	}
	if cand.Title, _ = field(row, "title"); cand.Title != "" {
		cand.Title = strings.TrimSpace(cand.Title)
	}
	if cand.StartedOn, err = parseDate(row, "started_on"); err != nil {
		return nil, err
	}
	if cand.EndedOn, err = parseDate(row, "ended_on"); err != nil {
		return nil, err
	}
	return cand, nil
}

// PublicationParser converts publication feed rows into candidates.
// Expected columns: id, title, journal, volume, issue, pages, status,
// published_on, contributors. In CSV feeds the contributor list is packed
// into one column as semicolon-separated entries of
// "first|middle|last|role|webaccess_id|external_id"; in YAML and JSON
// feeds it is a native list of mappings.
type PublicationParser struct {
	Source entities.Source
}

// Parse implements importer.Parser.
func (p *PublicationParser) Parse(row any) (reconcile.Candidate, error) {
	id, err := requireField(row, "id")
	if err != nil {
		return nil, err
	}
	title, err := requireField(row, "title")
	if err != nil {
		return nil, err
	}
	cand := &reconcile.PublicationCandidate{
		Key:   entities.ExternalKey{Source: p.Source, ExternalID: id},
		Title: title,
	}
	cand.Journal, _ = field(row, "journal")
	cand.Volume, _ = field(row, "volume")
	cand.Issue, _ = field(row, "issue")
	cand.Pages, _ = field(row, "pages")
	cand.Status, _ = field(row, "status")
	if cand.PublishedOn, err = parseDate(row, "published_on"); err != nil {
		return nil, err
	}
	contribs, err := p.parseContributors(row)
	if err != nil {
		return nil, err
	}
	cand.Contributors = contribs
	return cand, nil
}

func (p *PublicationParser) parseContributors(row any) ([]reconcile.ContributorCandidate, error) {
	if m, ok := row.(map[string]any); ok {
		if raw, ok := m["contributors"]; ok {
			if _, isString := raw.(string); !isString {
				return p.structuredContributors(raw)
			}
		}
	}
	packed, ok := field(row, "contributors")
	if !ok || strings.TrimSpace(packed) == "" {
		return nil, nil
	}
	return p.packedContributors(packed)
}

// packedContributors decodes the CSV single-column encoding.
func (p *PublicationParser) packedContributors(packed string) ([]reconcile.ContributorCandidate, error) {
	entries := strings.Split(packed, ";")
	out := make([]reconcile.ContributorCandidate, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, "|")
		if len(parts) < 3 {
			return nil, errors.NewValidationError("contributors", entry, "malformed contributor entry")
		}
		part := func(i int) string {
			if i < len(parts) {
				return strings.TrimSpace(parts[i])
			}
			return ""
		}
		c := reconcile.ContributorCandidate{
			FirstName:   part(0),
			MiddleName:  part(1),
			LastName:    part(2),
			Role:        part(3),
			WebAccessID: part(4),
			ExternalID:  part(5),
		}
		if c.LastName == "" {
			return nil, errors.NewValidationError("contributors", entry, "contributor last name is missing")
		}
		out = append(out, c)
	}
	return out, nil
}

// structuredContributors decodes a native list of mappings.
func (p *PublicationParser) structuredContributors(raw any) ([]reconcile.ContributorCandidate, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, errors.NewValidationError("contributors", raw, "expected a list of contributor entries")
	}
	out := make([]reconcile.ContributorCandidate, 0, len(items))
	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, errors.NewValidationError("contributors", fmt.Sprintf("entry %d", i+1), "expected a contributor mapping")
		}
		c := reconcile.ContributorCandidate{}
		c.FirstName, _ = field(entry, "first_name")
		c.MiddleName, _ = field(entry, "middle_name")
		c.LastName, _ = field(entry, "last_name")
		c.Role, _ = field(entry, "role")
		c.WebAccessID, _ = field(entry, "webaccess_id")
		c.ExternalID, _ = field(entry, "external_id")
		if personID, _ := field(entry, "person_id"); personID != "" {
			c.PersonKey = &entities.ExternalKey{Source: p.Source, ExternalID: personID}
		}
		if c.LastName == "" {
			return nil, errors.NewValidationError("contributors", fmt.Sprintf("entry %d", i+1), "contributor last name is missing")
		}
		out = append(out, c)
	}
	return out, nil
}
