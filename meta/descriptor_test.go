package meta_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirpx/cobject/meta"
)

type widget struct {
	value int
}

func (w *widget) Calculate() int { return w.value * 2 }

func widgetClass() *meta.ClassDescriptor {
	d := meta.NewClassDescriptor("Widget", nil, func() any { return &widget{value: 42} })
	d.AddProperty(&meta.PropertyDescriptor{
		Name: "value",
		Type: meta.KindInt,
		Get: func(recv any) meta.Value {
			return meta.NewValue(recv.(*widget).value)
		},
		Set: func(recv any, v meta.Value) bool {
			i, ok := v.Int()
			if !ok {
				return false
			}
			recv.(*widget).value = i
			return true
		},
	})
	d.AddMethod(&meta.MethodDescriptor{
		Name:      "calculate",
		Signature: "int()",
		Invoke: meta.MakeInvoker(0, func(recv *widget, args []meta.Value) (meta.Value, error) {
			return meta.NewValue(recv.Calculate()), nil
		}),
	})
	return d
}

func TestReflectionRoundTrip(t *testing.T) {
	d := widgetClass()
	inst := d.CreateInstance()
	require.NotNil(t, inst)

	prop, ok := d.FindProperty("value")
	require.True(t, ok)

	v := prop.Get(inst)
	got, ok := v.Int()
	require.True(t, ok)
	assert.Equal(t, 42, got)

	require.True(t, prop.Set(inst, meta.NewValue(100)))

	m, ok := d.FindMethod("calculate")
	require.True(t, ok)
	result, err := m.Invoke(inst, nil)
	require.NoError(t, err)
	n, ok := result.Int()
	require.True(t, ok)
	assert.Equal(t, 200, n)
}

func TestFindOnParentChain(t *testing.T) {
	base := meta.NewClassDescriptor("Base", nil, nil)
	base.AddProperty(&meta.PropertyDescriptor{Name: "id", Type: meta.KindInt})

	derived := meta.NewClassDescriptor("Derived", base, nil)
	derived.AddProperty(&meta.PropertyDescriptor{Name: "extra", Type: meta.KindString})

	_, ok := derived.FindProperty("id")
	assert.True(t, ok, "derived should find inherited property")

	_, ok = base.FindProperty("extra")
	assert.False(t, ok, "base must not see derived-only members")

	assert.True(t, derived.Inherits(base))
	assert.False(t, base.Inherits(derived))
	assert.False(t, derived.Inherits(derived))
}

func TestCreateInstanceWithoutFactory(t *testing.T) {
	abstract := meta.NewClassDescriptor("Abstract", nil, nil)
	assert.Nil(t, abstract.CreateInstance())
}

func TestInvokerArityAndTypeMismatch(t *testing.T) {
	inv := meta.MakeInvoker(1, func(recv *widget, args []meta.Value) (meta.Value, error) {
		n, err := meta.Arg[int](args, 0)
		if err != nil {
			return meta.Invalid(), err
		}
		return meta.NewValue(recv.value + n), nil
	})

	w := &widget{value: 1}

	_, err := inv(w, nil)
	assert.Error(t, err, "wrong arity must error, not panic")

	_, err = inv(w, []meta.Value{meta.NewValue("not an int")})
	assert.Error(t, err, "type mismatch must surface as an error")

	_, err = inv("not a widget", []meta.Value{meta.NewValue(1)})
	assert.Error(t, err, "receiver downcast failure must surface as an error")

	result, err := inv(w, []meta.Value{meta.NewValue(41)})
	require.NoError(t, err)
	n, _ := result.Int()
	assert.Equal(t, 42, n)
}
