// Package schema defines the in-memory model of a SharePoint site schema:
// lists, their typed columns, and the relationships inferred from lookup
// columns. The model is the hand-off point between the Graph API fetcher and
// the diagram renderer.
package schema

import "slices"

// ColumnKind is a closed enumeration of column data types.
// It mirrors the Graph API column facets that listgraph understands;
// everything else maps to KindUnknown.
type ColumnKind string

// Column kinds, in facet detection priority order.
const (
	KindText       ColumnKind = "text"
	KindLookup     ColumnKind = "lookup"
	KindDateTime   ColumnKind = "dateTime"
	KindNumber     ColumnKind = "number"
	KindChoice     ColumnKind = "choice"
	KindBoolean    ColumnKind = "boolean"
	KindPerson     ColumnKind = "person"
	KindCalculated ColumnKind = "calculated"
	KindUnknown    ColumnKind = "unknown"
)

// Column is a typed field definition within a List. Immutable once fetched.
type Column struct {
	ID          string
	Name        string
	DisplayName string
	Required    bool
	Kind        ColumnKind

	// TargetListID is the id of the list a lookup column points at.
	// Only meaningful when Kind is KindLookup; an empty value on a lookup
	// column marks it as unresolvable (malformed or out-of-site target).
	TargetListID string
}

// IsLookup reports whether the column establishes a relationship to another list.
func (c Column) IsLookup() bool { return c.Kind == KindLookup }

// List is a SharePoint data container analogous to a database table.
// Created once per fetched list; immutable after creation.
type List struct {
	ID          string
	DisplayName string
	Columns     []Column
}

// Relationship is a directed edge between two lists, derived from a lookup
// column. The label is the originating column's name.
type Relationship struct {
	SourceID string
	TargetID string
	Label    string
}

// Model is the queryable aggregate handed to the renderer: all fetched lists
// keyed by id, plus the relationships that survived target resolution.
type Model struct {
	Lists         map[string]List
	Relationships []Relationship
}

// Build assembles lists and relationships into a Model.
//
// Relationships whose source or target id does not reference a list in the
// fetched set are dropped rather than causing failure; this covers lookups
// pointing at excluded system lists or lists outside the current site.
func Build(lists []List, rels []Relationship) Model {
	m := Model{Lists: make(map[string]List, len(lists))}
	for _, l := range lists {
		m.Lists[l.ID] = l
	}
	for _, r := range rels {
		if _, ok := m.Lists[r.SourceID]; !ok {
			continue
		}
		if _, ok := m.Lists[r.TargetID]; !ok {
			continue
		}
		m.Relationships = append(m.Relationships, r)
	}
	return m
}

// SortedLists returns the model's lists ordered by display name (id as
// tiebreak) for deterministic rendering.
func (m Model) SortedLists() []List {
	out := make([]List, 0, len(m.Lists))
	for _, l := range m.Lists {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b List) int {
		if a.DisplayName != b.DisplayName {
			if a.DisplayName < b.DisplayName {
				return -1
			}
			return 1
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}
