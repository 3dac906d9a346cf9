package gormsource

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm/clause"
)

type (
	conjunct struct {
		Column   string
		Value    any
		Operator Operator
	}

	disjunct []conjunct

	// dnf is a condition in disjunctive normal form: disjuncts joined by OR,
	// each one a list of conjuncts joined by AND.
	//
	//	(A11 AND A12) OR (A21 AND A22 AND A23)
	dnf []disjunct
)

// expression renders "Column Operator ?".
func (c conjunct) expression() clause.Expression {
	return clause.Expr{
		SQL:  fmt.Sprintf("%s %s ?", c.Column, c.Operator),
		Vars: []any{parseAnyValue(c.Value)},
	}
}

// parseAnyValue turns RFC 3339 text back into time.Time, since cursor values
// lose their type once encoded.
func parseAnyValue(v any) any {
	asTime := func(raw []byte) any {
		var t time.Time
		if err := t.UnmarshalText(raw); err == nil {
			return t
		}

		return v
	}

	switch vt := v.(type) {
	case string:
		return asTime([]byte(vt))
	case []byte:
		return asTime(vt)
	default:
		return v
	}
}

func (d disjunct) expression() clause.Expression {
	and := lo.Map(d, func(c conjunct, _ int) clause.Expression {
		return c.expression()
	})

	switch len(and) {
	case 0:
		return nil
	case 1:
		return and[0]
	default:
		return clause.And(and...)
	}
}

func (d dnf) expression() clause.Expression {
	or := lo.FilterMap(d, func(dj disjunct, _ int) (clause.Expression, bool) {
		exp := dj.expression()
		return exp, exp != nil
	})

	switch len(or) {
	case 0:
		return nil
	case 1:
		return or[0]
	default:
		return clause.Or(or...)
	}
}
