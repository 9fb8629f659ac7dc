package evse

import (
	"testing"
	"time"

	"evstation/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager([]Evse{
		{Id: 1, PhaseType: types.CurrentPhaseAC},
		{Id: 2},
		{Id: 3, PhaseType: types.CurrentPhaseDC},
	}, nil)
}

func TestEvses(t *testing.T) {
	m := newTestManager()
	assert.Equal(t, []int{1, 2, 3}, m.EvseIds())
	assert.True(t, m.EvseExists(2))
	assert.False(t, m.EvseExists(0))
	assert.Equal(t, types.CurrentPhaseAC, m.CurrentPhaseType(2))
	assert.Equal(t, types.CurrentPhaseDC, m.CurrentPhaseType(3))
	assert.Equal(t, types.CurrentPhaseUnknown, m.CurrentPhaseType(0))
	assert.Equal(t, types.CurrentPhaseUnknown, m.CurrentPhaseType(9))
}

func TestTransactionLifecycle(t *testing.T) {
	m := newTestManager()
	var changed []int
	m.OnChange(func(evseId int) { changed = append(changed, evseId) })

	start := time.Date(2024, 1, 17, 12, 0, 0, 0, time.UTC)
	tx, err := m.StartTransaction(1, types.IdToken{IdToken: "tag", Type: types.IdTokenTypeCentral}, nil, start)
	require.NoError(t, err)
	assert.NotEmpty(t, tx.Id)

	assert.True(t, m.HasActiveTransaction(1))
	id, ok := m.TransactionId(1)
	assert.True(t, ok)
	assert.Equal(t, tx.Id, id)
	startTime, ok := m.TransactionStartTime(1)
	assert.True(t, ok)
	assert.Equal(t, start, startTime)

	_, err = m.StartTransaction(1, types.IdToken{}, nil, start)
	assert.Error(t, err)
	_, err = m.StartTransaction(7, types.IdToken{}, nil, start)
	assert.Error(t, err)

	assert.Equal(t, 0, m.NextSeqNo(tx.Id))
	assert.Equal(t, 1, m.NextSeqNo(tx.Id))

	found, ok := m.FindTransaction(tx.Id)
	assert.True(t, ok)
	assert.Equal(t, 1, found.EvseId)

	stopped, err := m.StopTransaction(tx.Id)
	require.NoError(t, err)
	assert.Equal(t, tx.Id, stopped.Id)
	assert.False(t, m.HasActiveTransaction(1))
	_, err = m.StopTransaction(tx.Id)
	assert.Error(t, err)

	assert.Equal(t, []int{1, 1}, changed)
}
