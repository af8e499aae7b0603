package cmd

import (
	"context"

	"github.com/augusta-labs/incentive-matcher/internal/loader"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Initialize the database schema and optionally import CSV data",
	Run: func(cmd *cobra.Command, _ []string) {
		setup(cmd)
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)

	setupCmd.Flags().String("companies", "", "CSV file with companies to import (replaces existing rows)")
	setupCmd.Flags().String("incentives", "", "CSV file with incentives to import (replaces existing rows)")
}

func setup(cmd *cobra.Command) {
	ctx := context.Background()

	logger := newLogger()
	config := mustConfig(logger)

	logger.Info("starting the database setup", zap.String("version", version))

	st := openStore(logger, config)
	defer st.Close()

	if err := st.Migrate(); err != nil {
		logger.Fatal("initializing the schema", zap.Error(err))
	}
	logger.Info("schema is up to date")

	files := loader.New(logger)

	if path := cmd.Flag("companies").Value.String(); path != "" {
		companies, err := files.Companies(path)
		if err != nil {
			logger.Fatal("reading companies file", zap.Error(err), zap.String("file", path))
		}

		count, err := st.ReplaceCompanies(ctx, companies)
		if err != nil {
			logger.Fatal("importing companies", zap.Error(err))
		}
		logger.Info("imported companies", zap.Int("count", count), zap.String("file", path))
	}

	if path := cmd.Flag("incentives").Value.String(); path != "" {
		incentives, err := files.Incentives(path)
		if err != nil {
			logger.Fatal("reading incentives file", zap.Error(err), zap.String("file", path))
		}

		count, err := st.ReplaceIncentives(ctx, incentives)
		if err != nil {
			logger.Fatal("importing incentives", zap.Error(err))
		}
		logger.Info("imported incentives", zap.Int("count", count), zap.String("file", path))
	}

	companies, err := st.CountCompanies(ctx)
	if err != nil {
		logger.Fatal("counting companies", zap.Error(err))
	}
	incentives, err := st.CountIncentives(ctx)
	if err != nil {
		logger.Fatal("counting incentives", zap.Error(err))
	}

	logger.Info("database setup completed",
		zap.Int64("companies", companies),
		zap.Int64("incentives", incentives),
	)
}
