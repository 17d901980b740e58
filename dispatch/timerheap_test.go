package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirpx/cobject/kernel"
)

func TestTimerTableFiresInDeadlineOrder(t *testing.T) {
	tbl := newTimerTable()
	far := kernel.New(nil, nil)
	near := kernel.New(nil, nil)

	tbl.add(50, far)
	tbl.add(1, near)

	var fired []*timerRecord
	require.Eventually(t, func() bool {
		fired = tbl.due()
		return len(fired) > 0
	}, time.Second, time.Millisecond)
	assert.Same(t, near, fired[0].receiver)
}

func TestTimerTableRearmsFromNow(t *testing.T) {
	tbl := newTimerTable()
	obj := kernel.New(nil, nil)
	id := tbl.add(1, obj)

	require.Eventually(t, func() bool {
		return len(tbl.due()) == 1
	}, time.Second, time.Millisecond)

	next, ok := tbl.nextDeadlineMs()
	assert.True(t, ok)
	assert.GreaterOrEqual(t, next, 0)

	assert.True(t, tbl.remove(id))
	assert.False(t, tbl.remove(id))
}

func TestTimerTableRemoveReceiverCancelsAll(t *testing.T) {
	tbl := newTimerTable()
	obj := kernel.New(nil, nil)
	tbl.add(1000, obj)
	tbl.add(2000, obj)
	other := kernel.New(nil, nil)
	tbl.add(1000, other)

	tbl.removeReceiver(obj)
	assert.Equal(t, 1, tbl.Len())
}

func TestTimerTableNextDeadlineMsEmpty(t *testing.T) {
	tbl := newTimerTable()
	_, ok := tbl.nextDeadlineMs()
	assert.False(t, ok)
}
