package eatap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterProfilesByNameIsCaseInsensitive(t *testing.T) {
	profiles := []Profile{
		{Id: "1", Name: "jane doe"},
		{Id: "2", Name: "JOHN SMITH"},
		{Id: "3", Name: "JANE  DOE"},
	}

	matches := FilterProfilesByName("Jane Doe", profiles)
	require.Len(t, matches, 2)
	require.Equal(t, "1", matches[0].Id)
	require.Equal(t, "3", matches[1].Id)

	require.Empty(t, FilterProfilesByName("Nobody", profiles))
}

func TestRankProfilesByName(t *testing.T) {
	profiles := []Profile{
		{Id: "1", Name: "AHMAD BIN ABDULLAH"},
		{Id: "2", Name: "SOLARTECH SDN BHD"},
		{Id: "3", Name: "AHMAD BIN ABU"},
	}

	matches := RankProfilesByName("ahmad bin abdullah", profiles)
	require.Len(t, matches, 3)
	require.Equal(t, "1", matches[0].Id)
	require.Equal(t, float64(1), matches[0].Similarity)
	for i := 1; i < len(matches); i++ {
		require.LessOrEqual(t, matches[i].Similarity, matches[i-1].Similarity)
	}
}
