package cmd

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/augusta-labs/incentive-matcher/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the correspondences of a run as CSV",
	Run: func(cmd *cobra.Command, _ []string) {
		export(cmd)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("run", "", "run id to export (default is the latest run)")
	exportCmd.Flags().StringP("output", "o", "correspondences.csv", "output CSV file")
}

func export(cmd *cobra.Command) {
	ctx := context.Background()

	logger := newLogger()
	config := mustConfig(logger)

	st := openStore(logger, config)
	defer st.Close()

	runID := cmd.Flag("run").Value.String()
	if runID == "" {
		var err error
		runID, err = st.LatestRunID(ctx)
		if errors.Is(err, store.ErrNotFound) {
			logger.Info("exiting", zap.String("reason", "no correspondences found"))
			return
		}
		if err != nil {
			logger.Fatal("resolving the latest run", zap.Error(err))
		}
	}

	rows, err := st.CorrespondencesByRun(ctx, runID)
	if err != nil {
		logger.Fatal("loading correspondences", zap.Error(err), zap.String("run_id", runID))
	}

	if len(rows) == 0 {
		logger.Info("exiting",
			zap.String("reason", "run has no correspondences"),
			zap.String("run_id", runID),
		)
		return
	}

	filename := cmd.Flag("output").Value.String()
	if err := writeCorrespondencesCSV(filename, rows); err != nil {
		logger.Fatal("writing export file", zap.Error(err), zap.String("filename", filename))
	}

	logger.Info("exported correspondences",
		zap.String("filename", filename),
		zap.String("run_id", runID),
		zap.Int("count", len(rows)),
	)
}

func writeCorrespondencesCSV(filename string, rows []store.Correspondence) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"incentive_id", "incentive_title", "company_id", "company_name", "score", "rationale", "created_at"}); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			strconv.FormatUint(uint64(row.IncentiveID), 10),
			row.Incentive.Title,
			strconv.FormatUint(uint64(row.CompanyID), 10),
			row.Company.Name,
			strconv.FormatFloat(row.Score, 'f', 2, 64),
			row.Rationale,
			row.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
