package controllers

import (
	"fmt"
	"strconv"

	"urbanfix-be/models"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	defaultRadiusMeters = 5000.0
	maxRadiusMeters     = 50000.0
	defaultPageSize     = 10
	maxPageSize         = 100

	// Equatorial radius used by MongoDB for $centerSphere conversions.
	earthRadiusMeters = 6378137.0
)

// IssueListParams is the parsed, validated query surface of the listing
// endpoints.
type IssueListParams struct {
	Lat      *float64
	Lng      *float64
	Radius   float64
	Category string
	Status   string
	Page     int
	Limit    int
}

// ParseIssueListParams validates raw query values and applies defaults.
// Out-of-range coordinates, a non-positive or oversized radius, and unknown
// category/status values are rejected rather than passed to the store.
func ParseIssueListParams(query map[string]string) (IssueListParams, error) {
	p := IssueListParams{
		Radius: defaultRadiusMeters,
		Page:   1,
		Limit:  defaultPageSize,
	}

	latStr := query["lat"]
	lngStr := query["lng"]
	hasLat := latStr != ""
	hasLng := lngStr != ""
	if hasLat != hasLng {
		return p, fmt.Errorf("lat and lng must be provided together")
	}
	if hasLat {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return p, fmt.Errorf("invalid lat")
		}
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			return p, fmt.Errorf("invalid lng")
		}
		if !models.ValidCoordinates(lng, lat) {
			return p, fmt.Errorf("coordinates out of range")
		}
		p.Lat = &lat
		p.Lng = &lng
	}

	if radiusStr, ok := query["radius"]; ok && radiusStr != "" {
		radius, err := strconv.ParseFloat(radiusStr, 64)
		if err != nil || radius <= 0 {
			return p, fmt.Errorf("invalid radius")
		}
		if radius > maxRadiusMeters {
			return p, fmt.Errorf("radius exceeds %.0f meters", maxRadiusMeters)
		}
		p.Radius = radius
	}

	if category, ok := query["category"]; ok && category != "" && category != "all" {
		if !models.ValidCategory(category) {
			return p, fmt.Errorf("invalid category")
		}
		p.Category = category
	}

	if status, ok := query["status"]; ok && status != "" && status != "all" {
		if !models.ValidStatus(status) {
			return p, fmt.Errorf("invalid status")
		}
		p.Status = status
	}

	if pageStr, ok := query["page"]; ok && pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			return p, fmt.Errorf("invalid page")
		}
		p.Page = page
	}

	if limitStr, ok := query["limit"]; ok && limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > maxPageSize {
			return p, fmt.Errorf("invalid limit")
		}
		p.Limit = limit
	}

	return p, nil
}

// BuildIssueFilter translates params into a store filter. The geo clause uses
// $geoWithin with $centerSphere instead of $near because CountDocuments does
// not accept $near and result order is by creation time regardless.
func BuildIssueFilter(p IssueListParams) bson.M {
	filter := bson.M{}

	if p.Lat != nil && p.Lng != nil {
		filter["location"] = bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{
					bson.A{*p.Lng, *p.Lat},
					p.Radius / earthRadiusMeters,
				},
			},
		}
	}

	if p.Category != "" {
		filter["category"] = p.Category
	}

	if p.Status != "" {
		filter["status"] = p.Status
	}

	return filter
}

// Skip returns the offset implied by page and limit.
func (p IssueListParams) Skip() int {
	return (p.Page - 1) * p.Limit
}

// PaginationMeta is the envelope returned next to every paginated result set.
type PaginationMeta struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalIssues int64 `json:"totalIssues"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// NewPaginationMeta computes page counts from the filtered total.
func NewPaginationMeta(total int64, page, limit int) PaginationMeta {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return PaginationMeta{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalIssues: total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1 && total > 0,
	}
}
