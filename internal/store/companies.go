package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ListCompanies returns all companies ordered by id.
func (s *Store) ListCompanies(ctx context.Context) (Companies, error) {
	var companies Companies
	if err := s.db.WithContext(ctx).
		Order("id ASC").
		Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

// SearchCompanies returns up to limit companies whose name, activity label or
// trade description contains any of the terms, case-insensitively. An empty
// term list yields no rows.
func (s *Store) SearchCompanies(ctx context.Context, terms []string, limit int) (Companies, error) {
	terms = cleanTerms(terms)
	if len(terms) == 0 {
		return nil, nil
	}

	query := s.db.WithContext(ctx).Model(&Company{})
	query = query.Where(termCondition(s.db, terms,
		"company_name", "cae_primary_label", "trade_description_native"))

	var companies Companies
	if err := query.Order("company_name ASC").Limit(limit).Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("search companies: %w", err)
	}
	return companies, nil
}

// ReplaceCompanies clears the companies table and bulk-inserts the provided
// rows in one transaction. Returns the number of rows inserted.
func (s *Store) ReplaceCompanies(ctx context.Context, companies []Company) (int, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&Company{}).Error; err != nil {
			return err
		}
		if len(companies) == 0 {
			return nil
		}
		return tx.CreateInBatches(companies, insertBatchSize).Error
	})
	if err != nil {
		return 0, fmt.Errorf("replace companies: %w", err)
	}
	return len(companies), nil
}

// CountCompanies returns the number of stored companies.
func (s *Store) CountCompanies(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Company{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count companies: %w", err)
	}
	return count, nil
}

const insertBatchSize = 500

// cleanTerms trims, lowercases and deduplicates search terms.
func cleanTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	cleaned := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		cleaned = append(cleaned, term)
	}
	return cleaned
}

// termCondition builds an OR of case-insensitive LIKE matches over the given
// columns. LOWER(...) LIKE keeps the query portable between postgres and the
// sqlite database used in tests.
func termCondition(db *gorm.DB, terms []string, columns ...string) *gorm.DB {
	cond := db.Session(&gorm.Session{NewDB: true})
	first := true
	for _, term := range terms {
		pattern := "%" + term + "%"
		for _, column := range columns {
			clause := fmt.Sprintf("LOWER(%s) LIKE ?", column)
			if first {
				cond = cond.Where(clause, pattern)
				first = false
			} else {
				cond = cond.Or(clause, pattern)
			}
		}
	}
	return cond
}
