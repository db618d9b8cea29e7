// Package query builds typed filter, update, pipeline and index descriptors
// and renders them into MongoDB documents.
package query

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// ErrInvalidDescriptor is returned when a descriptor fails validation.
var ErrInvalidDescriptor = errors.New("invalid query descriptor")

// Op identifies the kind of a Filter node.
type Op string

const (
	OpAll   Op = "all"
	OpEq    Op = "eq"
	OpGt    Op = "gt"
	OpGte   Op = "gte"
	OpLt    Op = "lt"
	OpLte   Op = "lte"
	OpRange Op = "range"
	OpAnd   Op = "and"
	OpOr    Op = "or"
	OpSize  Op = "size_gte"
	OpRegex Op = "regex"
)

// Filter is a node of a filter expression. Build it with the constructors
// below rather than by hand.
type Filter struct {
	Op       Op
	Field    string
	Value    any
	Max      any
	Children []Filter
	// CaseInsensitive applies to OpRegex only.
	CaseInsensitive bool
}

// All matches every document.
func All() Filter { return Filter{Op: OpAll} }

// Eq matches documents whose field equals value. On array fields the store
// treats this as membership.
func Eq(field string, value any) Filter { return Filter{Op: OpEq, Field: field, Value: value} }

func Gt(field string, value any) Filter  { return Filter{Op: OpGt, Field: field, Value: value} }
func Gte(field string, value any) Filter { return Filter{Op: OpGte, Field: field, Value: value} }
func Lt(field string, value any) Filter  { return Filter{Op: OpLt, Field: field, Value: value} }
func Lte(field string, value any) Filter { return Filter{Op: OpLte, Field: field, Value: value} }

// Range matches min <= field <= max. An inverted range is valid and matches nothing.
func Range(field string, min, max any) Filter {
	return Filter{Op: OpRange, Field: field, Value: min, Max: max}
}

func And(filters ...Filter) Filter { return Filter{Op: OpAnd, Children: filters} }
func Or(filters ...Filter) Filter  { return Filter{Op: OpOr, Children: filters} }

// SizeAtLeast matches documents whose array field has at least n elements.
// A missing field counts as an empty array.
func SizeAtLeast(field string, n int) Filter {
	return Filter{Op: OpSize, Field: field, Value: n}
}

// Regex matches string fields against pattern. The pattern is evaluated by
// the store, so its syntax is not checked here.
func Regex(field, pattern string, caseInsensitive bool) Filter {
	return Filter{Op: OpRegex, Field: field, Value: pattern, CaseInsensitive: caseInsensitive}
}

// Validate reports structural problems in the expression tree.
func (f Filter) Validate() error {
	switch f.Op {
	case OpAll:
		return nil
	case OpEq, OpGt, OpGte, OpLt, OpLte:
		return f.requireField()
	case OpRange:
		if err := f.requireField(); err != nil {
			return err
		}
		if f.Value == nil || f.Max == nil {
			return invalid("range on %q needs both bounds", f.Field)
		}
		return nil
	case OpAnd, OpOr:
		if len(f.Children) == 0 {
			return invalid("%s needs at least one operand", f.Op)
		}
		for i, c := range f.Children {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("%s[%d]: %w", f.Op, i, err)
			}
		}
		return nil
	case OpSize:
		if err := f.requireField(); err != nil {
			return err
		}
		n, ok := f.Value.(int)
		if !ok || n < 0 {
			return invalid("size on %q must be a non-negative int, got %v", f.Field, f.Value)
		}
		return nil
	case OpRegex:
		if err := f.requireField(); err != nil {
			return err
		}
		if p, ok := f.Value.(string); !ok || p == "" {
			return invalid("regex on %q needs a pattern", f.Field)
		}
		return nil
	default:
		return invalid("unknown filter op %q", f.Op)
	}
}

func (f Filter) requireField() error {
	if f.Field == "" {
		return invalid("%s needs a field", f.Op)
	}
	return nil
}

// BSON renders the filter. Call Validate first; BSON does not check the tree.
func (f Filter) BSON() bson.D {
	switch f.Op {
	case OpEq:
		return bson.D{{Key: f.Field, Value: f.Value}}
	case OpGt, OpGte, OpLt, OpLte:
		return bson.D{{Key: f.Field, Value: bson.D{{Key: "$" + string(f.Op), Value: f.Value}}}}
	case OpRange:
		return bson.D{{Key: f.Field, Value: bson.D{
			{Key: "$gte", Value: f.Value},
			{Key: "$lte", Value: f.Max},
		}}}
	case OpAnd, OpOr:
		operands := make(bson.A, 0, len(f.Children))
		for _, c := range f.Children {
			operands = append(operands, c.BSON())
		}
		return bson.D{{Key: "$" + string(f.Op), Value: operands}}
	case OpSize:
		return bson.D{{Key: "$expr", Value: bson.D{{Key: "$gte", Value: bson.A{
			sizeOf(f.Field),
			f.Value,
		}}}}}
	case OpRegex:
		regex := bson.D{{Key: "$regex", Value: f.Value}}
		if f.CaseInsensitive {
			regex = append(regex, bson.E{Key: "$options", Value: "i"})
		}
		return bson.D{{Key: f.Field, Value: regex}}
	default:
		return bson.D{}
	}
}

// sizeOf renders the length of an array field, treating a missing field as empty.
func sizeOf(field string) bson.D {
	return bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, bson.A{}}}}}}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDescriptor, fmt.Sprintf(format, args...))
}
