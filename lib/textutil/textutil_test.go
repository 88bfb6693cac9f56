package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "AHMAD BIN ABDULLAH", NormalizeName("  ahmad   bin\tAbdullah\n"))
}

func TestEqualNames(t *testing.T) {
	require.True(t, EqualNames("SOLARTECH SDN BHD", "Solartech  Sdn Bhd"))
	require.False(t, EqualNames("SOLARTECH SDN BHD", "SOLARTECH"))
}
