package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harrison/sitecheck/internal/models"
)

// SaveCapture stores (or replaces) the capture for its property.
func (s *Store) SaveCapture(ctx context.Context, capture models.PropertyCapture) error {
	if capture.Property.ID == "" {
		return errors.New("capture property id is required")
	}

	amenities := capture.Property.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	amenitiesJSON, err := json.Marshal(amenities)
	if err != nil {
		return fmt.Errorf("marshal amenities: %w", err)
	}
	quick := capture.QuickAnalysis
	if quick == nil {
		quick = []models.QuickAnalysisEntry{}
	}
	quickJSON, err := json.Marshal(quick)
	if err != nil {
		return fmt.Errorf("marshal quick analysis: %w", err)
	}

	capturedAt := capture.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = s.now()
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO property_captures (property_id, address, zoning, site_area_sqm, amenities, heritage_listed, quick_analysis, captured_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(property_id) DO UPDATE SET
    address = excluded.address,
    zoning = excluded.zoning,
    site_area_sqm = excluded.site_area_sqm,
    amenities = excluded.amenities,
    heritage_listed = excluded.heritage_listed,
    quick_analysis = excluded.quick_analysis,
    captured_at = excluded.captured_at`,
		capture.Property.ID, capture.Property.Address, capture.Property.Zoning, capture.Property.SiteAreaSqm,
		string(amenitiesJSON), capture.Property.HeritageListed, string(quickJSON), capturedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert capture: %w", err)
	}
	return nil
}

// FetchCapture loads the capture for propertyID, or ErrNotFound.
func (s *Store) FetchCapture(ctx context.Context, propertyID string) (*models.PropertyCapture, error) {
	var (
		c                models.PropertyCapture
		address, zoning  sql.NullString
		siteArea         sql.NullFloat64
		amenities, quick sql.NullString
		capturedAt       time.Time
	)
	err := s.db.QueryRowContext(ctx, `
SELECT property_id, address, zoning, site_area_sqm, amenities, heritage_listed, quick_analysis, captured_at
FROM property_captures WHERE property_id = ?`, propertyID).
		Scan(&c.Property.ID, &address, &zoning, &siteArea, &amenities, &c.Property.HeritageListed, &quick, &capturedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("capture for %s: %w", propertyID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query capture: %w", err)
	}

	c.Property.Address = address.String
	c.Property.Zoning = zoning.String
	c.Property.SiteAreaSqm = siteArea.Float64
	c.Property.Amenities = []string{}
	c.QuickAnalysis = []models.QuickAnalysisEntry{}
	c.CapturedAt = capturedAt.UTC()

	if amenities.Valid && amenities.String != "" {
		if err := json.Unmarshal([]byte(amenities.String), &c.Property.Amenities); err != nil {
			return nil, fmt.Errorf("unmarshal amenities: %w", err)
		}
	}
	if quick.Valid && quick.String != "" {
		if err := json.Unmarshal([]byte(quick.String), &c.QuickAnalysis); err != nil {
			return nil, fmt.Errorf("unmarshal quick analysis: %w", err)
		}
	}
	return &c, nil
}
