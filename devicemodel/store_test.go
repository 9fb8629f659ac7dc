package devicemodel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDefaults() map[VariableRef]string {
	return map[VariableRef]string{
		RateUnit:                  "A,W",
		ACPhaseSwitchingSupported: "false",
		DefaultLimitAmps:          "48",
		SupplyPhases:              "3",
	}
}

func TestTypedGetters(t *testing.T) {
	store := NewStore(nil, nil)
	require.NoError(t, store.Load(testDefaults()))

	assert.Equal(t, []string{"A", "W"}, store.GetList(RateUnit))
	assert.False(t, store.GetBool(ACPhaseSwitchingSupported, true))
	assert.Equal(t, 48.0, store.GetFloat(DefaultLimitAmps, 0))
	assert.Equal(t, 3, store.GetInt(SupplyPhases, 0))
	assert.Equal(t, 230.0, store.GetFloat(SupplyVoltage, 230))
	assert.Empty(t, store.GetList(NewRef("Nope", "Nope", "")))
}

func TestSetRejectsUnknownVariable(t *testing.T) {
	store := NewStore(nil, nil)
	require.NoError(t, store.Load(testDefaults()))

	assert.Error(t, store.Set(NewRef("Nope", "Nope", ""), "1"))
	require.NoError(t, store.Set(RateUnit, "W"))
	assert.Equal(t, []string{"W"}, store.GetList(RateUnit))
}

func TestMalformedValueFallsBack(t *testing.T) {
	store := NewStore(nil, nil)
	require.NoError(t, store.Load(map[VariableRef]string{SupplyPhases: "three"}))
	assert.Equal(t, 3, store.GetInt(SupplyPhases, 3))
}

func TestSQLitePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device_model.db")
	storage, err := OpenSQLite(path)
	require.NoError(t, err)

	store := NewStore(storage, nil)
	require.NoError(t, store.Load(testDefaults()))
	require.NoError(t, store.Set(SupplyPhases, "1"))
	require.NoError(t, storage.Close())

	storage, err = OpenSQLite(path)
	require.NoError(t, err)
	defer func() { _ = storage.Close() }()

	reloaded := NewStore(storage, nil)
	require.NoError(t, reloaded.Load(testDefaults()))
	assert.Equal(t, 1, reloaded.GetInt(SupplyPhases, 3))
	assert.Equal(t, []string{"A", "W"}, reloaded.GetList(RateUnit))
}
