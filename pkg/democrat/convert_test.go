package democrat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	i, err := coerce[int](float64(3))
	require.NoError(t, err)
	assert.Equal(t, 3, i)

	_, err = coerce[int](3.5)
	assert.Error(t, err, "lossy conversions fail")

	type level string
	l, err := coerce[level]("debug")
	require.NoError(t, err)
	assert.Equal(t, level("debug"), l)

	tags, err := coerce[[]string]([]any{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tags)

	type pos struct {
		X int `json:"x"`
	}
	p, err := coerce[pos](map[string]any{"x": float64(2)})
	require.NoError(t, err)
	assert.Equal(t, pos{X: 2}, p)

	s, err := coerce[[]int](nil)
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = coerce[int](nil)
	assert.Error(t, err)
}

func TestConvertValue(t *testing.T) {
	assert.Equal(t, []int{1, 2}, convertValue[[]int]([]any{1, 2}))
	assert.Equal(t, map[string]int{"a": 1}, convertValue[map[string]int](map[string]any{"a": 1}))
	assert.Equal(t, []*int{nil}, convertValue[[]*int]([]any{nil}))
	assert.Equal(t, 0, convertValue[int](nil))

	err := recoverError(func() { convertValue[string](1) })
	assert.ErrorIs(t, err, ErrInvalidChildren)
}

func TestClassify(t *testing.T) {
	comp := newCounter("C")
	ctx := CreateContext(0)
	tests := []struct {
		children any
		want     Kind
	}{
		{nil, KindNull},
		{(*Element)(nil), KindNull},
		{(*Map)(nil), KindNull},
		{comp.Create(struct{}{}), KindComponent},
		{ctx.Provider(1, nil), KindProvider},
		{[]any{}, KindArray},
		{[2]*Element{}, KindArray},
		{NewMap(), KindMap},
		{map[string]any{}, KindRecord},
		{map[int]any{}, kindInvalid},
		{"text", kindInvalid},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classify(tt.children), "%T", tt.children)
	}
}

func TestElement(t *testing.T) {
	comp := newCounter("Counter")
	el := comp.Create(struct{}{})
	_, ok := el.Key()
	assert.False(t, ok)
	assert.Equal(t, "Counter", el.String())

	keyed := el.WithKey(3)
	k, ok := keyed.Key()
	assert.True(t, ok)
	assert.Equal(t, 3, k)
	assert.Equal(t, "Counter[key=3]", keyed.String())
	_, ok = el.Key()
	assert.False(t, ok, "WithKey copies the element")

	ctx := CreateContext("").Named("Theme")
	assert.Equal(t, "Provider(Theme)", ctx.Provider("x", nil).String())
	assert.Equal(t, "Counter", comp.Name())
}
