package query

import (
	"go.mongodb.org/mongo-driver/bson"
)

// IndexOrder is the direction or type of an index key.
type IndexOrder int

const (
	Ascending IndexOrder = iota
	Descending
	Text
)

type IndexKey struct {
	Field string
	Order IndexOrder
}

// Index describes a secondary index. Name may be empty to let the store
// derive one from the keys.
type Index struct {
	Name   string
	Keys   []IndexKey
	Unique bool
}

func (ix Index) Validate() error {
	if len(ix.Keys) == 0 {
		return invalid("index needs at least one key")
	}
	seen := make(map[string]bool, len(ix.Keys))
	for _, k := range ix.Keys {
		if k.Field == "" {
			return invalid("index key needs a field")
		}
		if seen[k.Field] {
			return invalid("index repeats field %q", k.Field)
		}
		seen[k.Field] = true
		if k.Order < Ascending || k.Order > Text {
			return invalid("index key %q has unknown order %d", k.Field, k.Order)
		}
	}
	return nil
}

// KeysBSON renders the key document, e.g. {author: 1, published_year: -1}.
func (ix Index) KeysBSON() bson.D {
	keys := make(bson.D, 0, len(ix.Keys))
	for _, k := range ix.Keys {
		var v any
		switch k.Order {
		case Descending:
			v = -1
		case Text:
			v = "text"
		default:
			v = 1
		}
		keys = append(keys, bson.E{Key: k.Field, Value: v})
	}
	return keys
}
