package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoat_Apply(t *testing.T) {
	b := Boat{ID: "a01", Name: "Sea Breeze", Length: 12, Price: 10000, Latitude: Coord(1), Longitude: Coord(2)}

	out, err := b.Apply(map[string]any{"name": "Sea Gale", "price": 12500.5})
	require.NoError(t, err)

	assert.Equal(t, "Sea Gale", out.Name)
	assert.Equal(t, 12500.5, out.Price)
	assert.Equal(t, 12.0, out.Length)
	assert.Equal(t, 1.0, *out.Latitude)
	// The original is untouched.
	assert.Equal(t, "Sea Breeze", b.Name)
}

func TestBoat_ApplyNullClears(t *testing.T) {
	b := Boat{ID: "a01", Latitude: Coord(1), Longitude: Coord(2)}

	out, err := b.Apply(map[string]any{"latitude": nil})
	require.NoError(t, err)

	assert.Nil(t, out.Latitude)
	assert.False(t, out.Geolocated())
	assert.True(t, b.Geolocated())
}

func TestBoat_ApplyKeepsID(t *testing.T) {
	out, err := Boat{ID: "a01"}.Apply(map[string]any{"id": "zzz"})
	require.NoError(t, err)
	assert.Equal(t, "a01", out.ID)
}

func TestBoat_ApplyTypeMismatch(t *testing.T) {
	_, err := Boat{ID: "a01"}.Apply(map[string]any{"length": "long"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boat a01")
}

func TestBoat_Clone(t *testing.T) {
	b := Boat{ID: "a01", Latitude: Coord(1), Longitude: Coord(2)}
	c := b.Clone()
	*c.Latitude = 5

	assert.Equal(t, 1.0, *b.Latitude)
	pos, ok := c.Position()
	assert.True(t, ok)
	assert.Equal(t, Position{Latitude: 5, Longitude: 2}, pos)
}

func TestIsEditableField(t *testing.T) {
	assert.True(t, IsEditableField("price"))
	assert.True(t, IsEditableField("contactName"))
	assert.False(t, IsEditableField("id"))
	assert.False(t, IsEditableField("color"))
}

func TestParseSimilarBy(t *testing.T) {
	by, err := ParseSimilarBy("length")
	require.NoError(t, err)
	assert.Equal(t, SimilarByLength, by)

	by, err = ParseSimilarBy(" Price ")
	require.NoError(t, err)
	assert.Equal(t, SimilarByPrice, by)

	_, err = ParseSimilarBy("color")
	assert.Error(t, err)
}

func TestConfigurationError(t *testing.T) {
	var err error = Configf("submit edits", "duplicate entity id %q", "a01")

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, `submit edits: invalid configuration: duplicate entity id "a01"`, err.Error())
}
