package gormsource

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/Alp4ka/gotable"
)

var _encoder = base64.RawURLEncoding

// Cursor is the position right after the last row of a batch:
//
//	[(C1, O1, V1), (C2, O2, V2) ... (Cn, On, Vn)]
//
// one element per ordering column. It expands into the condition
//
//	(C1 O1 V1) OR (C1 = V1 AND C2 O2 V2) OR ...
//
// which selects exactly the rows after that position.
type Cursor struct {
	elements []CursorElement
}

// CursorElement is one (column, value, operator) triple of a Cursor.
type CursorElement struct {
	Column   string   `json:"c"`
	Value    any      `json:"v"`
	Operator Operator `json:"o"`
}

func NewCursor(elements ...CursorElement) *Cursor {
	return &Cursor{elements: elements}
}

// DecodeCursor parses a token produced by Cursor.String. The empty token
// yields a nil cursor, the start of the table.
func DecodeCursor(token string) (*Cursor, error) {
	if len(token) == 0 {
		return nil, nil
	}

	raw, err := _encoder.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("cannot decode base64 encoded cursor: %w", err)
	}

	var elements []CursorElement
	if err = json.Unmarshal(raw, &elements); err != nil {
		return nil, fmt.Errorf("cannot unmarshal json encoded cursor: %w", err)
	}

	return &Cursor{elements: elements}, nil
}

// String encodes the cursor as an opaque URL-safe token, "" when empty.
func (c *Cursor) String() string {
	if c.IsEmpty() {
		return ""
	}

	raw, err := json.Marshal(c.elements)
	if err != nil {
		panic(fmt.Errorf("cannot marshal cursor value: %w", err))
	}

	var buf bytes.Buffer
	if err = json.Compact(&buf, raw); err != nil {
		panic(fmt.Errorf("cannot compact cursor value: %w", err))
	}

	return _encoder.EncodeToString(buf.Bytes())
}

func (c *Cursor) IsEmpty() bool {
	return c == nil || len(c.elements) == 0
}

func (c *Cursor) Elements() []CursorElement {
	if c == nil {
		return nil
	}

	return c.elements
}

// Apply restricts db to the rows after the cursor.
func (c *Cursor) Apply(db *gorm.DB) *gorm.DB {
	exp := c.toDNF().expression()
	if exp == nil {
		return db
	}

	return db.Clauses(exp)
}

func (c *Cursor) toDNF() dnf {
	if c.IsEmpty() {
		return nil
	}

	ret := make(dnf, 0, len(c.elements))
	for i := range c.elements {
		equal := lo.Map(c.elements[:i], func(item CursorElement, _ int) conjunct {
			return conjunct{Column: item.Column, Value: item.Value, Operator: operatorEq}
		})

		dj := make(disjunct, 0, i+1)
		dj = append(dj, equal...)
		dj = append(dj, conjunct(c.elements[i]))

		ret = append(ret, dj)
	}

	return ret
}

func (c *Cursor) validate(orderings Orderings) error {
	if c.IsEmpty() {
		return nil
	}

	if len(c.elements) != len(orderings) {
		return fmt.Errorf("cursor column number mismatch")
	}

	for i, element := range c.elements {
		orderBy := orderings[i]
		if element.Column != orderBy.Column {
			return fmt.Errorf("unexpected cursor column '%s'", element.Column)
		}

		dir, ok := element.Operator.ForOrdering()
		if !ok {
			return fmt.Errorf("invalid cursor operator '%s'", element.Operator)
		} else if dir != orderBy.Direction {
			return fmt.Errorf("unexpected cursor operator '%s'", element.Operator)
		}
	}

	return nil
}

// nextCursor returns the cursor positioned after last.
func nextCursor(orderings Orderings, last gotable.Record) (*Cursor, error) {
	elements := make([]CursorElement, 0, len(orderings))
	for _, orderBy := range orderings {
		value, ok := last[orderBy.Column]
		if !ok {
			return nil, fmt.Errorf("cannot find ordering column '%s' in result set", orderBy.Column)
		}

		elements = append(elements, CursorElement{
			Column:   orderBy.Column,
			Value:    value,
			Operator: operatorFor(orderBy.Direction),
		})
	}

	return &Cursor{elements: elements}, nil
}
