package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// CreateCorrespondence persists a single correspondence row.
func (s *Store) CreateCorrespondence(ctx context.Context, c *Correspondence) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create correspondence for pair (%d, %d): %w", c.CompanyID, c.IncentiveID, err)
	}
	return nil
}

// CorrespondencesByRun returns all rows of the given run with their company and
// incentive records attached, ordered by incentive then score descending.
func (s *Store) CorrespondencesByRun(ctx context.Context, runID string) ([]Correspondence, error) {
	var rows []Correspondence
	if err := s.db.WithContext(ctx).
		Preload("Company").
		Preload("Incentive").
		Where("run_id = ?", runID).
		Order("incentive_id ASC, score DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("correspondences by run %s: %w", runID, err)
	}
	return rows, nil
}

// LatestRunID returns the run id of the most recently written correspondence.
// ErrNotFound is returned when no correspondences exist yet.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	var row Correspondence
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("latest run id: %w", err)
	}
	return row.RunID, nil
}

// CorrespondencesFor returns the latest-run correspondences touching any of
// the given companies or incentives, with both sides preloaded.
func (s *Store) CorrespondencesFor(ctx context.Context, companyIDs, incentiveIDs []uint) ([]Correspondence, error) {
	if len(companyIDs) == 0 && len(incentiveIDs) == 0 {
		return nil, nil
	}

	runID, err := s.LatestRunID(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Preload("Company").
		Preload("Incentive").
		Where("run_id = ?", runID)

	switch {
	case len(companyIDs) > 0 && len(incentiveIDs) > 0:
		query = query.Where("company_id IN ? OR incentive_id IN ?", companyIDs, incentiveIDs)
	case len(companyIDs) > 0:
		query = query.Where("company_id IN ?", companyIDs)
	default:
		query = query.Where("incentive_id IN ?", incentiveIDs)
	}

	var rows []Correspondence
	if err := query.Order("score DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("correspondences for context: %w", err)
	}
	return rows, nil
}

// RecentCorrespondences returns the most recently created rows across all runs.
func (s *Store) RecentCorrespondences(ctx context.Context, limit int) ([]Correspondence, error) {
	var rows []Correspondence
	if err := s.db.WithContext(ctx).
		Preload("Company").
		Preload("Incentive").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("recent correspondences: %w", err)
	}
	return rows, nil
}
