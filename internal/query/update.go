package query

import (
	"go.mongodb.org/mongo-driver/bson"
)

type updateOp string

const (
	updateSet  updateOp = "$set"
	updatePush updateOp = "$push"
)

type clause struct {
	op    updateOp
	field string
	value any
}

// Update is an ordered list of field assignments and array appends.
type Update struct {
	clauses []clause
}

// Set starts an update that assigns value to field.
func Set(field string, value any) Update { return Update{}.Set(field, value) }

// Push starts an update that appends value to the array field.
func Push(field string, value any) Update { return Update{}.Push(field, value) }

func (u Update) Set(field string, value any) Update {
	return u.with(clause{op: updateSet, field: field, value: value})
}

func (u Update) Push(field string, value any) Update {
	return u.with(clause{op: updatePush, field: field, value: value})
}

func (u Update) with(c clause) Update {
	clauses := make([]clause, len(u.clauses), len(u.clauses)+1)
	copy(clauses, u.clauses)
	return Update{clauses: append(clauses, c)}
}

// Fields returns the updated field names in order.
func (u Update) Fields() []string {
	fields := make([]string, 0, len(u.clauses))
	for _, c := range u.clauses {
		fields = append(fields, c.field)
	}
	return fields
}

func (u Update) Validate() error {
	if len(u.clauses) == 0 {
		return invalid("update has no clauses")
	}
	for _, c := range u.clauses {
		switch {
		case c.field == "":
			return invalid("%s needs a field", c.op)
		case c.field == "_id":
			return invalid("%s cannot modify _id", c.op)
		}
	}
	return nil
}

// BSON groups clauses by operator, keeping first-seen operator order.
func (u Update) BSON() bson.D {
	var doc bson.D
	index := map[updateOp]int{}
	for _, c := range u.clauses {
		i, ok := index[c.op]
		if !ok {
			i = len(doc)
			index[c.op] = i
			doc = append(doc, bson.E{Key: string(c.op), Value: bson.D{}})
		}
		fields := doc[i].Value.(bson.D)
		doc[i].Value = append(fields, bson.E{Key: c.field, Value: c.value})
	}
	return doc
}
