package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// ListIncentives returns all incentives ordered by id.
func (s *Store) ListIncentives(ctx context.Context) (Incentives, error) {
	var incentives Incentives
	if err := s.db.WithContext(ctx).
		Order("id ASC").
		Find(&incentives).Error; err != nil {
		return nil, fmt.Errorf("list incentives: %w", err)
	}
	return incentives, nil
}

// SearchIncentives returns up to limit incentives whose title or descriptions
// contain any of the terms, case-insensitively.
func (s *Store) SearchIncentives(ctx context.Context, terms []string, limit int) (Incentives, error) {
	terms = cleanTerms(terms)
	if len(terms) == 0 {
		return nil, nil
	}

	query := s.db.WithContext(ctx).Model(&Incentive{})
	query = query.Where(termCondition(s.db, terms, "title", "description", "ai_description"))

	var incentives Incentives
	if err := query.Order("id ASC").Limit(limit).Find(&incentives).Error; err != nil {
		return nil, fmt.Errorf("search incentives: %w", err)
	}
	return incentives, nil
}

// ReplaceIncentives clears the incentives table and bulk-inserts the provided
// rows in one transaction. Returns the number of rows inserted.
func (s *Store) ReplaceIncentives(ctx context.Context, incentives []Incentive) (int, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&Incentive{}).Error; err != nil {
			return err
		}
		if len(incentives) == 0 {
			return nil
		}
		return tx.CreateInBatches(incentives, insertBatchSize).Error
	})
	if err != nil {
		return 0, fmt.Errorf("replace incentives: %w", err)
	}
	return len(incentives), nil
}

// CountIncentives returns the number of stored incentives.
func (s *Store) CountIncentives(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Incentive{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count incentives: %w", err)
	}
	return count, nil
}
