package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProfileReturnsDefaults(t *testing.T) {
	cfg, err := LoadProfile("standard")
	require.NoError(t, err)
	assert.Equal(t, ProfileStandard, cfg.Name)
	assert.Equal(t, 20, cfg.BroadcastCapacity)
}

func TestDefaultProfilesScaleBroadcastCapacityWithTier(t *testing.T) {
	defaults := GetDefaultProfiles()
	minimal := defaults[ProfileMinimal].BroadcastCapacity
	standard := defaults[ProfileStandard].BroadcastCapacity
	full := defaults[ProfileFull].BroadcastCapacity
	assert.Less(t, minimal, standard)
	assert.Less(t, standard, full)
}

func TestLoadProfileRejectsUnknownName(t *testing.T) {
	_, err := LoadProfile("overclocked")
	require.Error(t, err)
}

func TestGetProfileForBoard(t *testing.T) {
	assert.Equal(t, ProfileMinimal, GetProfileForBoard("Pi Zero"))
	assert.Equal(t, ProfileStandard, GetProfileForBoard("Pi 3"))
	assert.Equal(t, ProfileFull, GetProfileForBoard("Pi 4"))
	assert.Equal(t, ProfileStandard, GetProfileForBoard("Unknown Board"))
}
