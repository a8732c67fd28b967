package serialport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSettingsAcceptsValidCombination(t *testing.T) {
	s, err := NewSettings(Settings{
		Path: "/dev/ttyUSB0", BaudRate: 9600, DataBits: 8,
		Parity: ParityNone, StopBits: StopBitsOne, FlowControl: FlowControlNone,
	})
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", s.Path)
}

func TestNewSettingsRejectsBadDataBits(t *testing.T) {
	_, err := NewSettings(Settings{Path: "/dev/ttyUSB0", BaudRate: 9600, DataBits: 9})
	require.Error(t, err)
	var invalid *InvalidSettingsError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "data_bits", invalid.Field)
}

func TestNewSettingsRejectsMissingPath(t *testing.T) {
	_, err := NewSettings(Settings{BaudRate: 9600, DataBits: 8})
	require.Error(t, err)
}

func TestNewSettingsRejectsNonPositiveBaudRate(t *testing.T) {
	_, err := NewSettings(Settings{Path: "/dev/ttyUSB0", BaudRate: 0, DataBits: 8})
	require.Error(t, err)
}
