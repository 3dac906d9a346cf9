package gotable

import (
	"math"
	"strings"
)

// Direction defines the sort direction for the requested dataset.
type Direction string

const (
	DirectionASC  Direction = "asc"
	DirectionDESC Direction = "desc"
)

func (d Direction) Valid() bool {
	return d == DirectionASC || d == DirectionDESC
}

// ParseDirection maps a raw request value to a Direction. Only the literal
// "desc" token (any case, surrounding spaces ignored) means descending;
// everything else, including garbage, is ascending.
func ParseDirection(raw string) Direction {
	if strings.EqualFold(strings.TrimSpace(raw), string(DirectionDESC)) {
		return DirectionDESC
	}

	return DirectionASC
}

// Toggle returns the opposite direction. Used to build header sort links.
func (d Direction) Toggle() Direction {
	if d == DirectionDESC {
		return DirectionASC
	}

	return DirectionDESC
}

// Apply applies the direction to a comparator result.
func (d Direction) Apply(cmp int) int {
	if d == DirectionDESC {
		return -cmp
	}

	return cmp
}

// closestColumn returns the schema column with the smallest edit distance to
// input. Used for diagnostics only, never to rewrite the request.
func closestColumn(input string, schema []string) string {
	minDist := math.MaxInt
	closest := ""

	for _, column := range schema {
		dist := levenshtein([]rune(column), []rune(input))
		if dist < minDist {
			minDist = dist
			closest = column
		}
	}

	return closest
}
