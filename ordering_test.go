package gotable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ParseDirection(t *testing.T) {
	tests := []struct {
		raw  string
		want Direction
	}{
		{"desc", DirectionDESC},
		{"DESC", DirectionDESC},
		{" Desc ", DirectionDESC},
		{"asc", DirectionASC},
		{"", DirectionASC},
		{"descending", DirectionASC},
		{"drop table", DirectionASC},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseDirection(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func Test_Direction_Toggle_Apply(t *testing.T) {
	assert.Equal(t, DirectionDESC, DirectionASC.Toggle())
	assert.Equal(t, DirectionASC, DirectionDESC.Toggle())

	assert.Equal(t, -1, DirectionASC.Apply(-1))
	assert.Equal(t, 1, DirectionDESC.Apply(-1))
	assert.False(t, Direction("up").Valid())
}

func Test_closestColumn(t *testing.T) {
	schema := []string{"name", "email", "created_at"}

	assert.Equal(t, "email", closestColumn("emial", schema))
	assert.Equal(t, "created_at", closestColumn("createdat", schema))
	assert.Equal(t, "", closestColumn("x", nil))
}
