// Package loader imports companies and incentives from CSV files. Column
// lookup is header-driven so reordered exports keep working.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/augusta-labs/incentive-matcher/internal/store"

	"go.uber.org/zap"
)

type Loader struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// Companies parses a companies CSV file.
func (l *Loader) Companies(path string) ([]store.Company, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open companies file: %w", err)
	}
	defer file.Close()

	return l.readCompanies(file)
}

// Incentives parses an incentives CSV file.
func (l *Loader) Incentives(path string) ([]store.Incentive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open incentives file: %w", err)
	}
	defer file.Close()

	return l.readIncentives(file)
}

func (l *Loader) readCompanies(r io.Reader) ([]store.Company, error) {
	rows, err := newRowReader(r)
	if err != nil {
		return nil, fmt.Errorf("read companies header: %w", err)
	}

	var companies []store.Company
	for {
		row, err := rows.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read companies row: %w", err)
		}

		name := row.get("company_name")
		if name == "" {
			l.logger.Warn("skipping company row without a name", zap.Int("line", rows.line))
			continue
		}

		companies = append(companies, store.Company{
			Name:             name,
			ActivityLabel:    row.get("cae_primary_label"),
			TradeDescription: row.get("trade_description_native"),
			Website:          row.get("website"),
		})
	}

	return companies, nil
}

func (l *Loader) readIncentives(r io.Reader) ([]store.Incentive, error) {
	rows, err := newRowReader(r)
	if err != nil {
		return nil, fmt.Errorf("read incentives header: %w", err)
	}

	var incentives []store.Incentive
	for {
		row, err := rows.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read incentives row: %w", err)
		}

		incentive := store.Incentive{
			Title:         row.get("title"),
			Description:   row.get("description"),
			AIDescription: row.get("ai_description"),
			DocumentURLs:  row.get("document_urls"),
			SourceLink:    row.get("source_link"),
		}

		incentive.PublicationDate = l.parseTimestamp(rows.line, row.first("publication_date", "date_publication"))
		incentive.StartDate = l.parseTimestamp(rows.line, row.first("start_date", "date_start"))
		incentive.EndDate = l.parseTimestamp(rows.line, row.first("end_date", "date_end"))

		if raw := row.get("total_budget"); raw != "" {
			budget, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				l.logger.Warn("invalid total_budget, leaving empty",
					zap.Int("line", rows.line),
					zap.String("value", raw),
				)
			} else {
				incentive.TotalBudget = &budget
			}
		}

		incentives = append(incentives, incentive)
	}

	return incentives, nil
}

// parseTimestamp handles the timestamp shapes seen in the source exports:
// ISO datetimes with an optional timezone suffix and plain dates. Unparseable
// values are warnings, not failures.
func (l *Loader) parseTimestamp(line int, value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	if idx := strings.Index(value, "+"); idx != -1 {
		value = strings.TrimSpace(value[:idx])
	}
	value = strings.Replace(value, " ", "T", 1)

	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return &ts
		}
	}

	l.logger.Warn("could not parse timestamp, leaving empty",
		zap.Int("line", line),
		zap.String("value", value),
	)
	return nil
}

// rowReader pairs a csv.Reader with its header for name-based field access.
type rowReader struct {
	reader  *csv.Reader
	columns map[string]int
	line    int
}

type row struct {
	columns map[string]int
	fields  []string
}

func newRowReader(r io.Reader) (*rowReader, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	return &rowReader{reader: reader, columns: columns, line: 1}, nil
}

func (r *rowReader) next() (*row, error) {
	fields, err := r.reader.Read()
	if err != nil {
		return nil, err
	}
	r.line++
	return &row{columns: r.columns, fields: fields}, nil
}

func (r *row) get(column string) string {
	idx, ok := r.columns[column]
	if !ok || idx >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[idx])
}

func (r *row) first(columns ...string) string {
	for _, column := range columns {
		if value := r.get(column); value != "" {
			return value
		}
	}
	return ""
}
