package domain_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fastygo/foodlink/domain"
)

func TestDistanceMeters(t *testing.T) {
	mumbai := domain.Point{Longitude: 72.8777, Latitude: 19.0760}
	pune := domain.Point{Longitude: 73.8567, Latitude: 18.5204}

	d := mumbai.DistanceMeters(pune)
	assert.InDelta(t, 120_000, d, 5_000)
	assert.InDelta(t, d, pune.DistanceMeters(mumbai), 1e-6)
	assert.Zero(t, mumbai.DistanceMeters(mumbai))
}

func TestNewPointValidates(t *testing.T) {
	_, err := domain.NewPoint(181, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidLocation)

	_, err = domain.NewPoint(0, -91)
	assert.ErrorIs(t, err, domain.ErrInvalidLocation)

	_, err = domain.NewPoint(math.NaN(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidLocation)

	p, err := domain.NewPoint(73.85, 18.52)
	assert.NoError(t, err)
	assert.Equal(t, []float64{73.85, 18.52}, p.Coordinates())
}
