package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParseIssueListParams(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		p, err := ParseIssueListParams(map[string]string{})
		require.NoError(t, err)
		assert.Nil(t, p.Lat)
		assert.Nil(t, p.Lng)
		assert.Equal(t, defaultRadiusMeters, p.Radius)
		assert.Equal(t, 1, p.Page)
		assert.Equal(t, defaultPageSize, p.Limit)
	})

	t.Run("FullQuery", func(t *testing.T) {
		p, err := ParseIssueListParams(map[string]string{
			"lat":      "28.6139",
			"lng":      "77.2090",
			"radius":   "1000",
			"category": "Roads",
			"status":   "Reported",
			"page":     "3",
			"limit":    "25",
		})
		require.NoError(t, err)
		require.NotNil(t, p.Lat)
		require.NotNil(t, p.Lng)
		assert.InDelta(t, 28.6139, *p.Lat, 1e-9)
		assert.InDelta(t, 77.2090, *p.Lng, 1e-9)
		assert.Equal(t, 1000.0, p.Radius)
		assert.Equal(t, "Roads", p.Category)
		assert.Equal(t, "Reported", p.Status)
		assert.Equal(t, 3, p.Page)
		assert.Equal(t, 25, p.Limit)
		assert.Equal(t, 50, p.Skip())
	})

	t.Run("LatWithoutLng", func(t *testing.T) {
		_, err := ParseIssueListParams(map[string]string{"lat": "28.6"})
		assert.Error(t, err)
	})

	t.Run("CoordinatesOutOfRange", func(t *testing.T) {
		_, err := ParseIssueListParams(map[string]string{"lat": "91", "lng": "10"})
		assert.Error(t, err)

		_, err = ParseIssueListParams(map[string]string{"lat": "10", "lng": "181"})
		assert.Error(t, err)
	})

	t.Run("InvalidRadius", func(t *testing.T) {
		for _, radius := range []string{"0", "-5", "abc", "50001"} {
			_, err := ParseIssueListParams(map[string]string{"radius": radius})
			assert.Error(t, err, "radius=%s", radius)
		}

		p, err := ParseIssueListParams(map[string]string{"radius": "50000"})
		require.NoError(t, err)
		assert.Equal(t, maxRadiusMeters, p.Radius)
	})

	t.Run("UnknownCategory", func(t *testing.T) {
		_, err := ParseIssueListParams(map[string]string{"category": "Potholes"})
		assert.Error(t, err)
	})

	t.Run("AllIsNoFilter", func(t *testing.T) {
		p, err := ParseIssueListParams(map[string]string{"category": "all", "status": "all"})
		require.NoError(t, err)
		assert.Empty(t, p.Category)
		assert.Empty(t, p.Status)
	})

	t.Run("InvalidPagination", func(t *testing.T) {
		for _, q := range []map[string]string{
			{"page": "0"},
			{"page": "-1"},
			{"limit": "0"},
			{"limit": "101"},
			{"limit": "x"},
		} {
			_, err := ParseIssueListParams(q)
			assert.Error(t, err, "query=%v", q)
		}
	})
}

func TestBuildIssueFilter(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		p, err := ParseIssueListParams(map[string]string{})
		require.NoError(t, err)
		assert.Equal(t, bson.M{}, BuildIssueFilter(p))
	})

	t.Run("GeoAndEquality", func(t *testing.T) {
		p, err := ParseIssueListParams(map[string]string{
			"lat":      "28.6139",
			"lng":      "77.2090",
			"radius":   "5000",
			"category": "Roads",
			"status":   "Resolved",
		})
		require.NoError(t, err)

		filter := BuildIssueFilter(p)
		assert.Equal(t, "Roads", filter["category"])
		assert.Equal(t, "Resolved", filter["status"])

		geo, ok := filter["location"].(bson.M)
		require.True(t, ok)
		within, ok := geo["$geoWithin"].(bson.M)
		require.True(t, ok)
		sphere, ok := within["$centerSphere"].(bson.A)
		require.True(t, ok)
		require.Len(t, sphere, 2)

		center, ok := sphere[0].(bson.A)
		require.True(t, ok)
		assert.Equal(t, bson.A{77.2090, 28.6139}, center)

		// Radius is expressed in radians on the sphere
		radians, ok := sphere[1].(float64)
		require.True(t, ok)
		assert.InDelta(t, 5000.0/earthRadiusMeters, radians, 1e-12)
	})

	t.Run("NoGeoWithoutCoordinates", func(t *testing.T) {
		p, err := ParseIssueListParams(map[string]string{"category": "Lighting"})
		require.NoError(t, err)

		filter := BuildIssueFilter(p)
		_, hasGeo := filter["location"]
		assert.False(t, hasGeo)
		assert.Equal(t, "Lighting", filter["category"])
	})
}

func TestNewPaginationMeta(t *testing.T) {
	t.Run("MiddlePage", func(t *testing.T) {
		meta := NewPaginationMeta(45, 2, 10)
		assert.Equal(t, 2, meta.CurrentPage)
		assert.Equal(t, 5, meta.TotalPages)
		assert.Equal(t, int64(45), meta.TotalIssues)
		assert.True(t, meta.HasNext)
		assert.True(t, meta.HasPrev)
	})

	t.Run("LastPage", func(t *testing.T) {
		meta := NewPaginationMeta(45, 5, 10)
		assert.False(t, meta.HasNext)
		assert.True(t, meta.HasPrev)
	})

	t.Run("Empty", func(t *testing.T) {
		meta := NewPaginationMeta(0, 1, 10)
		assert.Equal(t, 0, meta.TotalPages)
		assert.False(t, meta.HasNext)
		assert.False(t, meta.HasPrev)
	})

	t.Run("ExactMultiple", func(t *testing.T) {
		meta := NewPaginationMeta(30, 3, 10)
		assert.Equal(t, 3, meta.TotalPages)
		assert.False(t, meta.HasNext)
	})

	t.Run("Invariant", func(t *testing.T) {
		// Whenever hasNext is true, the page start lies inside the result set
		for total := int64(0); total <= 55; total += 5 {
			for page := 1; page <= 7; page++ {
				meta := NewPaginationMeta(total, page, 10)
				if meta.HasNext {
					assert.Less(t, int64(page*10-10), total,
						"total=%d page=%d", total, page)
				}
			}
		}
	})
}
