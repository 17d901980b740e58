package meta_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirpx/cobject/meta"
)

func TestRegistryRegisterFindCreate(t *testing.T) {
	r := meta.NewRegistry()
	d := widgetClass()

	r.Register(d)
	found, ok := r.Find("Widget")
	require.True(t, ok)
	assert.Same(t, d, found)

	inst, ok := r.CreateInstance("Widget")
	require.True(t, ok)
	assert.IsType(t, &widget{}, inst)

	_, ok = r.Find("DoesNotExist")
	assert.False(t, ok)

	_, ok = r.CreateInstance("DoesNotExist")
	assert.False(t, ok)
}

func TestRegistryIdempotentRegistration(t *testing.T) {
	r := meta.NewRegistry()
	d := widgetClass()

	r.Register(d)
	r.Register(d)
	r.Register(d)

	assert.Equal(t, 1, r.Count())
}

func TestRegistryAbstractClassCreateInstance(t *testing.T) {
	r := meta.NewRegistry()
	r.Register(meta.NewClassDescriptor("Abstract", nil, nil))

	_, ok := r.CreateInstance("Abstract")
	assert.False(t, ok)
}

func TestRegistryClassNames(t *testing.T) {
	r := meta.NewRegistry()
	r.Register(meta.NewClassDescriptor("A", nil, nil))
	r.Register(meta.NewClassDescriptor("B", nil, nil))

	names := r.ClassNames()
	assert.ElementsMatch(t, []string{"A", "B"}, names)
}

func TestGlobalRegistryConvenienceFunctions(t *testing.T) {
	d := meta.NewClassDescriptor("GlobalWidget", nil, func() any { return &widget{} })
	meta.Register(d)

	found, ok := meta.Find("GlobalWidget")
	require.True(t, ok)
	assert.Same(t, d, found)

	assert.Contains(t, meta.ClassNames(), "GlobalWidget")
}
