package model

// Derive computes the attribute names of one structure of an operation
// subtype, in declaration order. It reads the resource and never changes it,
// so deriving twice from the same resource gives the same names.
//
//	subtype               input                  output
//	CreateOne/Many        data attributes        partition key
//	Read/Update/Delete/   partition key          all attributes
//	  ImportOne/Many
//	List                  none                   all attributes
//
// A Data structure holds all attributes regardless of subtype. Any other
// combination is an *UnsupportedOperationTypeError.
func Derive(r *Resource, subType OperationSubType, st StructureType) ([]string, error) {
	if st == Data {
		return allAttributes(r), nil
	}
	if st != Input && st != Output {
		return nil, &UnsupportedOperationTypeError{Resource: r.name, SubType: subType, Structure: st}
	}

	switch subType {
	case CreateOne, CreateMany:
		if st == Input {
			return dataAttributes(r), nil
		}
		return partitionKeyAttributes(r), nil
	case ReadOne, ReadMany, UpdateOne, UpdateMany, DeleteOne, DeleteMany, ImportOne, ImportMany:
		if st == Input {
			return partitionKeyAttributes(r), nil
		}
		return allAttributes(r), nil
	case List:
		if st == Input {
			return []string{}, nil
		}
		return allAttributes(r), nil
	}
	return nil, &UnsupportedOperationTypeError{Resource: r.name, SubType: subType, Structure: st}
}

func allAttributes(r *Resource) []string {
	return selectAttributes(r, func(*Attribute) bool { return true })
}

// dataAttributes selects the attributes the caller supplies on create: those
// with no generator at any stage. A value generated on create is never a
// data attribute, and neither is one the model sets later, like deleted-at.
func dataAttributes(r *Resource) []string {
	return selectAttributes(r, func(a *Attribute) bool { return !a.IsSystem() })
}

func partitionKeyAttributes(r *Resource) []string {
	return selectAttributes(r, (*Attribute).IsPartitionKey)
}

func selectAttributes(r *Resource, keep func(*Attribute) bool) []string {
	out := []string{}
	for _, a := range r.attributes {
		if keep(a) {
			out = append(out, a.name)
		}
	}
	return out
}
