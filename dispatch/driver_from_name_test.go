package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromNameSelect(t *testing.T) {
	d, err := NewFromName("select")
	require.NoError(t, err)
	defer d.Close()
	_, ok := d.(*SelectDriver)
	assert.True(t, ok)
}

func TestNewFromNameDefault(t *testing.T) {
	d, err := NewFromName("")
	require.NoError(t, err)
	defer d.Close()

	d2, err := NewFromName("default")
	require.NoError(t, err)
	defer d2.Close()
}

func TestNewFromNameRejectsUnknown(t *testing.T) {
	_, err := NewFromName("not-a-real-driver")
	assert.Error(t, err)
}
