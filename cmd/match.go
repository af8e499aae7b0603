package cmd

import (
	"context"
	"fmt"

	"github.com/augusta-labs/incentive-matcher/internal/ai/gemini"
	"github.com/augusta-labs/incentive-matcher/internal/matching"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Run the correspondence finder over all companies and incentives",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before judging pairs")
	matchCmd.Flags().Float64P("threshold", "t", 0, "minimum score for a correspondence to be persisted (overrides ai.minimum-score)")
	matchCmd.Flags().String("results", "", "also write the run summary to this JSON file")
}

func match(cmd *cobra.Command) {
	ctx := context.Background()

	logger := newLogger()
	config := mustConfig(logger)

	logger.Info("starting the correspondence finder", zap.String("version", version))

	st := openStore(logger, config)
	defer st.Close()

	companies, err := st.CountCompanies(ctx)
	if err != nil {
		logger.Fatal("counting companies", zap.Error(err))
	}
	incentives, err := st.CountIncentives(ctx)
	if err != nil {
		logger.Fatal("counting incentives", zap.Error(err))
	}

	if companies == 0 || incentives == 0 {
		logger.Info("exiting",
			zap.String("reason", "no companies or incentives loaded"),
			zap.String("hint", "run 'incentive-matcher setup' with --companies and --incentives first"),
		)
		return
	}

	threshold := config.AI.MinimumScore
	if cmd.Flag("threshold").Changed {
		threshold, err = cmd.Flags().GetFloat64("threshold")
		if err != nil {
			logger.Fatal("reading threshold flag", zap.Error(err))
		}
	}
	if threshold < 0 {
		threshold = 0
	}

	if cmd.Flag("auto-approve").Value.String() == "false" {
		prompt := promptui.Select{
			Label: fmt.Sprintf("Judge candidate pairs across %d incentives and %d companies. Proceed?", incentives, companies),
			Items: []string{PromptYes, PromptNo},
		}

		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if action == PromptNo {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	generator, err := newGenerator(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal(
			"building the AI judge",
			zap.Error(err),
			zap.String("hint", "set ai.gemini.api-key, ai.gemini.api-key-file or GEMINI_API_KEY_FILE"),
		)
	}

	judge := gemini.NewJudge(generator, logger, config.AI.Gemini.MaxLogLength)

	finder := matching.New(st, judge, &matching.Config{
		Threshold:    threshold,
		CompanyLimit: config.Matching.CompanyLimit,
	}, logger)

	summary, err := finder.Run(ctx)
	if err != nil {
		logger.Fatal("correspondence run failed", zap.Error(err))
	}

	resultsFile := cmd.Flag("results").Value.String()
	if resultsFile == "" {
		resultsFile = config.Matching.ResultsFile
	}
	if resultsFile != "" {
		if err := summary.WriteFile(resultsFile); err != nil {
			// The run itself succeeded and is persisted; losing the summary
			// file is not worth a non-zero exit.
			logger.Warn("writing results file", zap.Error(err), zap.String("filename", resultsFile))
		} else {
			logger.Info("run summary written", zap.String("filename", resultsFile))
		}
	}

	logger.Info("done",
		zap.String("run_id", summary.RunID),
		zap.Int("pairs_judged", summary.PairsJudged),
		zap.Int("matched", summary.Matched),
		zap.Int("pairs_skipped", summary.PairsSkipped),
	)
}
