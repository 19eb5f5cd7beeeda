package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCategory(t *testing.T) {
	for _, c := range []string{"Roads", "Lighting", "Water Supply", "Cleanliness", "Public Safety", "Obstructions"} {
		assert.True(t, ValidCategory(c), c)
	}

	for _, c := range []string{"", "roads", "Potholes", "Water", "Road"} {
		assert.False(t, ValidCategory(c), c)
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{"Reported", "In Progress", "Resolved", "Closed"} {
		assert.True(t, ValidStatus(s), s)
	}

	for _, s := range []string{"", "Pending", "closed", "Done"} {
		assert.False(t, ValidStatus(s), s)
	}
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(77.2090, 28.6139))
	assert.True(t, ValidCoordinates(-180, -90))
	assert.True(t, ValidCoordinates(180, 90))
	assert.True(t, ValidCoordinates(0, 0))

	assert.False(t, ValidCoordinates(180.1, 0))
	assert.False(t, ValidCoordinates(-180.1, 0))
	assert.False(t, ValidCoordinates(0, 90.1))
	assert.False(t, ValidCoordinates(0, -90.1))
}

func TestNewGeoPoint(t *testing.T) {
	p := NewGeoPoint(77.2090, 28.6139)
	assert.Equal(t, "Point", p.Type)
	assert.Equal(t, []float64{77.2090, 28.6139}, p.Coordinates)
}
