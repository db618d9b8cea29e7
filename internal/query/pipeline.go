package query

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Stage is one step of an aggregation pipeline. The set of stages is closed:
// Unwind, Group, Sort, Limit, Match and Project.
type Stage interface {
	Validate() error
	BSON() bson.D
	stage()
}

// Pipeline is an ordered list of stages applied by the store.
type Pipeline []Stage

func (p Pipeline) Validate() error {
	if len(p) == 0 {
		return invalid("pipeline has no stages")
	}
	for i, s := range p {
		if s == nil {
			return invalid("stage %d is nil", i)
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("stage %d: %w", i, err)
		}
	}
	return nil
}

func (p Pipeline) BSON() []bson.D {
	out := make([]bson.D, 0, len(p))
	for _, s := range p {
		out = append(out, s.BSON())
	}
	return out
}

// Unwind emits one document per element of the array at Path.
type Unwind struct {
	Path string
}

func (Unwind) stage() {}

func (u Unwind) Validate() error {
	if u.Path == "" {
		return invalid("unwind needs a path")
	}
	return nil
}

func (u Unwind) BSON() bson.D {
	return bson.D{{Key: "$unwind", Value: "$" + u.Path}}
}

// AccKind selects a group accumulator.
type AccKind string

const (
	AccCount   AccKind = "count"
	AccSum     AccKind = "sum"
	AccAvg     AccKind = "avg"
	AccMin     AccKind = "min"
	AccMax     AccKind = "max"
	AccSumSize AccKind = "sum_size"
)

// Accumulator computes one output field of a Group.
type Accumulator struct {
	Name  string
	Kind  AccKind
	Field string
}

func Count(name string) Accumulator { return Accumulator{Name: name, Kind: AccCount} }

func Sum(name, field string) Accumulator { return Accumulator{Name: name, Kind: AccSum, Field: field} }
func Avg(name, field string) Accumulator { return Accumulator{Name: name, Kind: AccAvg, Field: field} }
func Min(name, field string) Accumulator { return Accumulator{Name: name, Kind: AccMin, Field: field} }
func Max(name, field string) Accumulator { return Accumulator{Name: name, Kind: AccMax, Field: field} }

// SumSize sums the lengths of an array field across the group.
func SumSize(name, field string) Accumulator {
	return Accumulator{Name: name, Kind: AccSumSize, Field: field}
}

func (a Accumulator) validate() error {
	if a.Name == "" || a.Name == "_id" {
		return invalid("accumulator name %q is not allowed", a.Name)
	}
	switch a.Kind {
	case AccCount:
		return nil
	case AccSum, AccAvg, AccMin, AccMax, AccSumSize:
		if a.Field == "" {
			return invalid("accumulator %q needs a field", a.Name)
		}
		return nil
	default:
		return invalid("accumulator %q has unknown kind %q", a.Name, a.Kind)
	}
}

func (a Accumulator) bson() bson.E {
	var expr any
	switch a.Kind {
	case AccCount:
		expr = bson.D{{Key: "$sum", Value: 1}}
	case AccSumSize:
		expr = bson.D{{Key: "$sum", Value: sizeOf(a.Field)}}
	default:
		expr = bson.D{{Key: "$" + string(a.Kind), Value: "$" + a.Field}}
	}
	return bson.E{Key: a.Name, Value: expr}
}

// Group collapses documents sharing the By field. An empty By groups
// everything into a single row.
type Group struct {
	By           string
	Accumulators []Accumulator
}

func (Group) stage() {}

func (g Group) Validate() error {
	if len(g.Accumulators) == 0 {
		return invalid("group needs at least one accumulator")
	}
	seen := make(map[string]bool, len(g.Accumulators))
	for _, a := range g.Accumulators {
		if err := a.validate(); err != nil {
			return err
		}
		if seen[a.Name] {
			return invalid("duplicate accumulator %q", a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}

func (g Group) BSON() bson.D {
	var id any
	if g.By != "" {
		id = "$" + g.By
	}
	body := bson.D{{Key: "_id", Value: id}}
	for _, a := range g.Accumulators {
		body = append(body, a.bson())
	}
	return bson.D{{Key: "$group", Value: body}}
}

// SortKey orders by one field.
type SortKey struct {
	Field string
	Desc  bool
}

func Asc(field string) SortKey  { return SortKey{Field: field} }
func Desc(field string) SortKey { return SortKey{Field: field, Desc: true} }

// Sort orders documents by Keys, earlier keys taking precedence.
type Sort struct {
	Keys []SortKey
}

func (Sort) stage() {}

func (s Sort) Validate() error {
	if len(s.Keys) == 0 {
		return invalid("sort needs at least one key")
	}
	for _, k := range s.Keys {
		if k.Field == "" {
			return invalid("sort key needs a field")
		}
	}
	return nil
}

func (s Sort) BSON() bson.D {
	return bson.D{{Key: "$sort", Value: sortKeys(s.Keys)}}
}

func sortKeys(keys []SortKey) bson.D {
	doc := make(bson.D, 0, len(keys))
	for _, k := range keys {
		dir := 1
		if k.Desc {
			dir = -1
		}
		doc = append(doc, bson.E{Key: k.Field, Value: dir})
	}
	return doc
}

// Limit passes at most N documents.
type Limit struct {
	N int64
}

func (Limit) stage() {}

func (l Limit) Validate() error {
	if l.N <= 0 {
		return invalid("limit must be positive, got %d", l.N)
	}
	return nil
}

func (l Limit) BSON() bson.D {
	return bson.D{{Key: "$limit", Value: l.N}}
}

// Match filters the document stream.
type Match struct {
	Filter Filter
}

func (Match) stage() {}

func (m Match) Validate() error {
	return m.Filter.Validate()
}

func (m Match) BSON() bson.D {
	return bson.D{{Key: "$match", Value: m.Filter.BSON()}}
}

// Project keeps only Fields (and _id).
type Project struct {
	Fields []string
}

func (Project) stage() {}

func (p Project) Validate() error {
	if len(p.Fields) == 0 {
		return invalid("project needs at least one field")
	}
	for _, f := range p.Fields {
		if f == "" {
			return invalid("project field is empty")
		}
	}
	return nil
}

func (p Project) BSON() bson.D {
	fields := make(bson.D, 0, len(p.Fields))
	for _, f := range p.Fields {
		fields = append(fields, bson.E{Key: f, Value: 1})
	}
	return bson.D{{Key: "$project", Value: fields}}
}
