package schema

// Relationships scans the fetched lists for lookup columns and resolves each
// one to its target list, producing a directed edge per resolvable lookup.
//
// Resolution rules:
//   - A lookup whose target id matches a fetched list yields one edge,
//     labeled with the column name.
//   - A lookup with no target id (malformed metadata) or a target id outside
//     the fetched set is skipped silently, never an error.
//   - Self-referencing lookups yield self-edges.
//   - Multiple lookups on the same list are not deduplicated; each column
//     contributes its own labeled edge.
//
// Edge order follows list and column fetch order, which keeps diagram output
// deterministic for a given fetch.
func Relationships(lists []List) []Relationship {
	known := make(map[string]struct{}, len(lists))
	for _, l := range lists {
		known[l.ID] = struct{}{}
	}

	var rels []Relationship
	for _, l := range lists {
		for _, c := range l.Columns {
			if !c.IsLookup() || c.TargetListID == "" {
				continue
			}
			if _, ok := known[c.TargetListID]; !ok {
				continue
			}
			rels = append(rels, Relationship{
				SourceID: l.ID,
				TargetID: c.TargetListID,
				Label:    c.Name,
			})
		}
	}
	return rels
}
