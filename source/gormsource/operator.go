package gormsource

import "github.com/Alp4ka/gotable"

// Operator is a comparison used in keyset conditions.
type Operator string

const (
	OperatorGT Operator = ">"
	OperatorLT Operator = "<"

	// operatorEq only appears inside expanded cursor conditions.
	operatorEq Operator = "="
)

func (o Operator) Valid() bool {
	return o == OperatorLT || o == OperatorGT
}

// ForOrdering returns the direction a strict operator walks in, false for
// anything but > and <.
func (o Operator) ForOrdering() (gotable.Direction, bool) {
	switch o {
	case OperatorGT:
		return gotable.DirectionASC, true
	case OperatorLT:
		return gotable.DirectionDESC, true
	default:
		return "", false
	}
}
