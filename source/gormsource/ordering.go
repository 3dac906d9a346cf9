package gormsource

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/Alp4ka/gotable"
)

type (
	// Orderings is the keyset order of a load. The last column must be unique
	// so that every row has a distinct position.
	Orderings []OrderBy
	OrderBy   struct {
		Column    string
		Direction gotable.Direction
	}
)

var _availableColumnNameSymbols = append([]rune("_.'`\""), lo.AlphanumericCharset...)

func validIdentifier(name string) bool {
	return name != "" && lo.Every(_availableColumnNameSymbols, []rune(name))
}

func (o OrderBy) validate() error {
	if !o.Direction.Valid() {
		return fmt.Errorf("invalid ordering direction '%s'", o.Direction)
	}

	// Column names end up in raw SQL.
	if !validIdentifier(o.Column) {
		return fmt.Errorf("ordering column name contains forbidden symbols '%s'", o.Column)
	}

	return nil
}

// ToSQL renders the orderings as "a ASC, b DESC".
func (o Orderings) ToSQL() string {
	return strings.Join(lo.Map(o, func(ordering OrderBy, _ int) string {
		return fmt.Sprintf("%s %s", ordering.Column, strings.ToUpper(string(ordering.Direction)))
	}), ", ")
}

// Apply applies the ordering to a gorm query.
func (o Orderings) Apply(db *gorm.DB) *gorm.DB {
	return db.Order(o.ToSQL())
}

func (o Orderings) validate() error {
	if len(o) == 0 {
		return fmt.Errorf("empty ordering list")
	}

	for _, ordering := range o {
		if err := ordering.validate(); err != nil {
			return err
		}
	}

	return nil
}

// operatorFor returns the strict comparison that moves past a row in
// direction dir.
func operatorFor(dir gotable.Direction) Operator {
	if dir == gotable.DirectionDESC {
		return OperatorLT
	}

	return OperatorGT
}
