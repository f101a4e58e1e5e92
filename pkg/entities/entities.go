// Package entities defines the persisted record types that participate in
// feed reconciliation — people, organizations, publications, memberships,
// and their owned sub-records — together with the store abstraction the
// reconciliation engine is written against.
//
// Every top-level entity embeds Record, which carries local identity,
// per-source external keys, and the human-edit lock. The lock is the single
// precedence mechanism in the system: once an administrator has touched a
// record, automated imports stop overwriting its attributes until the lock
// is cleared through the admin interface.
package entities

import (
	"github.com/agentstation/utc"
	"github.com/google/uuid"
)

// ID is the stable local identity of a persisted record.
type ID string

// NewID generates a fresh local identity.
func NewID() ID {
	return ID(uuid.NewString())
}

// Source names an external feed family (e.g. "activity-insight", "pure").
type Source string

// String returns the string representation of a source name.
func (s Source) String() string {
	return string(s)
}

// ExternalKey identifies a record within one external source. For a given
// source, a key maps to at most one local entity.
type ExternalKey struct {
	Source     Source `json:"source" yaml:"source"`
	ExternalID string `json:"external_id" yaml:"external_id"`
}

// Kind identifies the type of entity a candidate or record represents.
type Kind string

// Entity kinds participating in reconciliation.
const (
	KindPerson       Kind = "person"
	KindOrganization Kind = "organization"
	KindPublication  Kind = "publication"
	KindMembership   Kind = "membership"
)

// Record is the identity core embedded in every top-level entity.
type Record struct {
	ID            ID            `json:"id" yaml:"id"`
	Keys          []ExternalKey `json:"keys,omitempty" yaml:"keys,omitempty"`
	HumanEditedAt *utc.Time     `json:"human_edited_at,omitempty" yaml:"human_edited_at,omitempty"`
	CreatedAt     utc.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt     utc.Time      `json:"updated_at" yaml:"updated_at"`
}

// Locked reports whether a human has curated this record. Automated merges
// must not overwrite attributes of a locked record.
func (r *Record) Locked() bool {
	return r.HumanEditedAt != nil
}

// Key returns this record's external key for the given source, if any.
func (r *Record) Key(source Source) (ExternalKey, bool) {
	for _, k := range r.Keys {
		if k.Source == source {
			return k, true
		}
	}
	return ExternalKey{}, false
}

// SetKey records the external key this source uses for the record,
// replacing any previous key from the same source.
func (r *Record) SetKey(key ExternalKey) {
	for i, k := range r.Keys {
		if k.Source == key.Source {
			r.Keys[i] = key
			return
		}
	}
	r.Keys = append(r.Keys, key)
}

// HasKey reports whether the record already carries the exact key.
func (r *Record) HasKey(key ExternalKey) bool {
	for _, k := range r.Keys {
		if k == key {
			return true
		}
	}
	return false
}
