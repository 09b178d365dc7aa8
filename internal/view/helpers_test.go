package view

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OCAP2/boatsync/internal/bus"
)

func newBus(t *testing.T) *bus.Bus {
	t.Helper()
	b, err := bus.New(nil)
	require.NoError(t, err)
	return b
}
