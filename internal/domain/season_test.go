package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonPresetsAreExhaustive(t *testing.T) {
	for name, preset := range SeasonPresets {
		t.Run(name, func(t *testing.T) {
			m := preset()
			require.NoError(t, m.Validate())
			assert.Len(t, m, 12)
		})
	}
}

func TestMeteorologicalSeasons(t *testing.T) {
	m := MeteorologicalSeasons()
	assert.Equal(t, Winter, m[Dec])
	assert.Equal(t, Winter, m[Feb])
	assert.Equal(t, Spring, m[Mar])
	assert.Equal(t, Summer, m[Aug])
	assert.Equal(t, Fall, m[Sep])
	assert.Equal(t, Fall, m[Nov])
}

func TestExtendedSummerSeasons(t *testing.T) {
	m := ExtendedSummerSeasons()
	assert.Equal(t, Summer, m[Sep])
	assert.Equal(t, Summer, m[Oct])
	assert.Equal(t, Winter, m[Nov])
	for _, s := range m {
		assert.NotEqual(t, Fall, s)
	}
}

func TestParseSeasonMapping(t *testing.T) {
	t.Run("preset name", func(t *testing.T) {
		m, err := ParseSeasonMapping("extended-summer")
		require.NoError(t, err)
		assert.Equal(t, ExtendedSummerSeasons(), m)
	})

	t.Run("explicit list", func(t *testing.T) {
		m, err := ParseSeasonMapping(
			"Jan=Winter, Feb=Winter, Mar=Spring, Apr=Spring, May=Spring, Jun=Summer," +
				"Jul=Summer, Aug=Summer, Sep=Fall, Oct=Fall, Nov=Fall, Dec=Winter")
		require.NoError(t, err)
		assert.Equal(t, MeteorologicalSeasons(), m)
	})

	t.Run("incomplete list", func(t *testing.T) {
		_, err := ParseSeasonMapping("Jan=Winter,Feb=Winter")
		require.ErrorIs(t, err, ErrIncompleteSeasons)
		assert.Contains(t, err.Error(), "Mar")
	})

	t.Run("unknown preset", func(t *testing.T) {
		_, err := ParseSeasonMapping("astronomical")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown preset")
	})

	t.Run("bad month", func(t *testing.T) {
		_, err := ParseSeasonMapping("January=Winter")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse month")
	})

	t.Run("duplicate month", func(t *testing.T) {
		_, err := ParseSeasonMapping("Jan=Winter,Jan=Spring")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "assigned twice")
	})

	t.Run("malformed entry", func(t *testing.T) {
		_, err := ParseSeasonMapping("Jan=Winter,Feb")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed entry")
	})
}

func TestSeasonMappingValidate(t *testing.T) {
	t.Run("unknown season", func(t *testing.T) {
		m := MeteorologicalSeasons()
		m[Jul] = Season("Monsoon")
		err := m.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Monsoon")
	})

	t.Run("stray key", func(t *testing.T) {
		m := MeteorologicalSeasons()
		m[Month("Smarch")] = Winter
		require.Error(t, m.Validate())
	})

	t.Run("empty", func(t *testing.T) {
		require.ErrorIs(t, SeasonMapping{}.Validate(), ErrIncompleteSeasons)
	})
}

func TestSeasonValid(t *testing.T) {
	for _, s := range []Season{Winter, Spring, Summer, Fall} {
		assert.True(t, s.Valid(), string(s))
	}
	for _, s := range []Season{"", "winter", "Autumn"} {
		assert.False(t, s.Valid(), string(s))
	}
}
