package schema

import "fmt"

// Change is a difference between two schemas that breaks items already
// stored under the old one.
type Change struct {
	Table  string
	Entity string
	// Description says what changed, e.g. `sort key pattern "{t}#{v}" -> "{v}"`.
	Description string
}

func (c Change) String() string {
	if c.Entity == "" {
		return fmt.Sprintf("table %q: %s", c.Table, c.Description)
	}
	return fmt.Sprintf("table %q: entity %q: %s", c.Table, c.Entity, c.Description)
}

// BreakingChanges lists the storage format changes from old to new: changed
// table keys, changed key patterns, and removed or renamed stored fields.
// Added entities, fields and indexes are compatible and not reported.
func BreakingChanges(old, new Schema) []Change {
	var changes []Change
	newTables := map[string]Table{}
	for _, t := range new.Tables {
		newTables[t.Name] = t
	}
	for _, ot := range old.Tables {
		nt, ok := newTables[ot.Name]
		if !ok {
			changes = append(changes, Change{Table: ot.Name, Description: "table removed"})
			continue
		}
		if ot.PartitionKey != nt.PartitionKey {
			changes = append(changes, Change{Table: ot.Name, Description: fmt.Sprintf("partition key %v -> %v", ot.PartitionKey, nt.PartitionKey)})
		}
		if !sameKey(ot.SortKey, nt.SortKey) {
			changes = append(changes, Change{Table: ot.Name, Description: fmt.Sprintf("sort key %v -> %v", keyString(ot.SortKey), keyString(nt.SortKey))})
		}
		changes = append(changes, entityChanges(ot, nt)...)
	}
	return changes
}

func entityChanges(ot, nt Table) []Change {
	var changes []Change
	newEntities := map[string]Entity{}
	for _, e := range nt.Entities {
		newEntities[e.Type] = e
	}
	for _, oe := range ot.Entities {
		add := func(format string, args ...any) {
			changes = append(changes, Change{Table: ot.Name, Entity: oe.Type, Description: fmt.Sprintf(format, args...)})
		}
		ne, ok := newEntities[oe.Type]
		if !ok {
			add("entity removed")
			continue
		}
		if oe.PartitionKeyPattern != ne.PartitionKeyPattern {
			add("partition key pattern %q -> %q", oe.PartitionKeyPattern, ne.PartitionKeyPattern)
		}
		if oe.SortKeyPattern != ne.SortKeyPattern {
			add("sort key pattern %q -> %q", oe.SortKeyPattern, ne.SortKeyPattern)
		}

		newGSIs := map[string]GSIMapping{}
		for _, m := range ne.GSIMappings {
			newGSIs[m.GSI] = m
		}
		for _, om := range oe.GSIMappings {
			if nm, ok := newGSIs[om.GSI]; ok && nm != om {
				add("gsi %q patterns %q/%q -> %q/%q", om.GSI, om.PartitionPattern, om.SortPattern, nm.PartitionPattern, nm.SortPattern)
			}
		}

		newFields := map[string]Field{}
		for _, f := range ne.Fields {
			newFields[f.Name] = f
		}
		for _, of := range oe.Fields {
			nf, ok := newFields[of.Name]
			switch {
			case !ok:
				add("field %q removed", of.Name)
			case nf.Tag != of.Tag:
				add("field %q stored as %q, was %q", of.Name, nf.Tag, of.Tag)
			case nf.Type != of.Type:
				add("field %q type %s -> %s", of.Name, of.Type, nf.Type)
			}
		}
	}
	return changes
}

func sameKey(a, b *KeyDef) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func keyString(k *KeyDef) string {
	if k == nil {
		return "none"
	}
	return fmt.Sprintf("%v", *k)
}
