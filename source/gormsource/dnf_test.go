package gormsource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"
)

func Test_conjunct_expression(t *testing.T) {
	timeNow := time.Now().UTC().Truncate(time.Second)
	timeNowStr, _ := timeNow.MarshalText()

	tests := []struct {
		name     string
		conjunct conjunct
		wantSQL  string
		wantVar  any
	}{
		{
			name:     "string less than",
			conjunct: conjunct{Column: "name", Operator: OperatorLT, Value: "abc"},
			wantSQL:  "name < ?",
			wantVar:  "abc",
		},
		{
			name:     "timestamp greater than",
			conjunct: conjunct{Column: "created_at", Operator: OperatorGT, Value: timeNow},
			wantSQL:  "created_at > ?",
			wantVar:  timeNow,
		},
		{
			name:     "timestamp text converts to timestamp",
			conjunct: conjunct{Column: "created_at", Operator: OperatorGT, Value: string(timeNowStr)},
			wantSQL:  "created_at > ?",
			wantVar:  timeNow,
		},
		{
			name:     "equality",
			conjunct: conjunct{Column: "id", Operator: operatorEq, Value: 10},
			wantSQL:  "id = ?",
			wantVar:  10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, ok := tt.conjunct.expression().(clause.Expr)
			require.True(t, ok)

			assert.Equal(t, tt.wantSQL, expr.SQL)
			require.Len(t, expr.Vars, 1)
			if want, ok := tt.wantVar.(time.Time); ok {
				got, ok := expr.Vars[0].(time.Time)
				require.True(t, ok)
				assert.True(t, want.Equal(got))
				return
			}
			assert.Equal(t, tt.wantVar, expr.Vars[0])
		})
	}
}

func Test_dnf_expression(t *testing.T) {
	tests := []struct {
		name    string
		dnf     dnf
		wantNil bool
		wantOr  bool
	}{
		{
			name: "two disjuncts",
			dnf: dnf{
				{{Column: "id", Operator: OperatorGT, Value: 5}},
				{
					{Column: "id", Operator: operatorEq, Value: 5},
					{Column: "created_at", Operator: OperatorGT, Value: "2024-01-02T03:04:05Z"},
				},
			},
			wantOr: true,
		},
		{
			name: "single disjunct",
			dnf:  dnf{{{Column: "id", Operator: OperatorGT, Value: 5}}},
		},
		{
			name:    "empty disjuncts are skipped",
			dnf:     dnf{{}, {}},
			wantNil: true,
		},
		{
			name:    "empty",
			dnf:     dnf{},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr := tt.dnf.expression()
			if tt.wantNil {
				assert.Nil(t, expr)
				return
			}

			require.NotNil(t, expr)
			_, isOr := expr.(clause.OrConditions)
			assert.Equal(t, tt.wantOr, isOr)
		})
	}
}
