package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/joinery/internal/ir"
)

func TestNewCondition_Validation(t *testing.T) {
	assert.NoError(t, NewCondition("{} = ?").Err())
	assert.NoError(t, NewCondition("{} = ?", ir.Int(1)).Err())
	assert.NoError(t, IsNull().Err())

	assert.Error(t, NewCondition("x = ?").Err(), "missing expression token")
	assert.Error(t, NewCondition("{} = ?", ir.Int(1), ir.Int(2)).Err(), "too many values")
	assert.Error(t, NewCondition("{} = ?", ir.List{ir.Int(1)}).Err(), "non-scalar value")
	assert.Error(t, In().Err())
	assert.Error(t, InParams(0).Err())
}

func TestCondition_Bound(t *testing.T) {
	assert.True(t, Eq(ir.Int(1)).Bound())
	assert.False(t, Eq().Bound())
	assert.True(t, IsNotNull().Bound())
	assert.Equal(t, 2, Between().Slots())
}

func TestCondition_RenderLiteral(t *testing.T) {
	tests := []struct {
		name string
		cond *Condition
		want string
	}{
		{"eq int", Eq(ir.Int(2012)), "A.year = 2012"},
		{"eq string", Eq(ir.String("O'Reilly")), "A.year = 'O''Reilly'"},
		{"in", In(ir.Ints(2012, 2013)...), "A.year IN (2012, 2013)"},
		{"between", Between(ir.Int(1990), ir.Int(1999)), "A.year BETWEEN 1990 AND 1999"},
		{"null", IsNull(), "A.year IS NULL"},
		{"eq null", Eq(ir.Null{}), "A.year = NULL"},
		{"bool", Eq(ir.Bool(true)), "A.year = TRUE"},
		{"custom", NewCondition("{} % 2 = ?", ir.Int(0)), "A.year % 2 = 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cond.renderLiteral("A.year", Generic)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCondition_RenderLiteral_ValueWithQuestionMark(t *testing.T) {
	got, err := Eq(ir.String("why?")).renderLiteral("A.title", Generic)
	require.NoError(t, err)
	assert.Equal(t, "A.title = 'why?'", got)
}

func TestCondition_RenderLiteral_Unbound(t *testing.T) {
	_, err := Eq().renderLiteral("A.year", Generic)
	require.Error(t, err)
	assert.True(t, IsValidationError(err, ErrCodeUnboundCondition))
}

func TestCondition_RenderPlaceholder(t *testing.T) {
	text, args := In(ir.Ints(2012, 2013)...).renderPlaceholder("A.year")
	assert.Equal(t, "A.year IN (?, ?)", text)
	assert.Equal(t, []ir.Value{ir.Int(2012), ir.Int(2013)}, args)

	text, args = InParams(3).renderPlaceholder("A.year")
	assert.Equal(t, "A.year IN (?, ?, ?)", text)
	assert.Equal(t, []ir.Value{nil, nil, nil}, args)

	text, args = IsNull().renderPlaceholder("A.year")
	assert.Equal(t, "A.year IS NULL", text)
	assert.Empty(t, args)
}

func TestCondition_String(t *testing.T) {
	assert.Equal(t, "{} = ?", Eq().String())
	assert.Equal(t, `{} LIKE ? ["%go%"]`, Like(ir.String("%go%")).String())
}
