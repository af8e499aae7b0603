package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/augusta-labs/incentive-matcher/internal/ai/gemini"
	"github.com/augusta-labs/incentive-matcher/internal/chat"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const apologyMessage = "Sorry, I could not reach the AI service. Please try again."

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat about the stored companies, incentives and correspondences",
	Run: func(_ *cobra.Command, _ []string) {
		runChat()
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat() {
	ctx := context.Background()

	logger := newLogger()
	config := mustConfig(logger)

	st := openStore(logger, config)
	defer st.Close()

	generator, err := newGenerator(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal(
			"building the AI assistant",
			zap.Error(err),
			zap.String("hint", "set ai.gemini.api-key, ai.gemini.api-key-file or GEMINI_API_KEY_FILE"),
		)
	}

	assistant := gemini.NewAssistant(generator, config.Chat.HistoryLimit, logger, config.AI.Gemini.MaxLogLength)
	session := chat.New(st, assistant, config.Chat.ContextLimit, logger)

	fmt.Println("Ask me about the stored companies, incentives and their correspondences.")
	fmt.Println("Type 'quit' or 'exit' to end the conversation.")

	input := promptui.Prompt{Label: "You"}

	for {
		question, err := input.Run()
		if err != nil {
			// ^C or ^D ends the session.
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				fmt.Println("Goodbye!")
				return
			}
			logger.Fatal("reading input", zap.Error(err))
		}

		question = strings.TrimSpace(question)
		if question == "" {
			continue
		}

		switch strings.ToLower(question) {
		case "quit", "exit", "bye", "q":
			fmt.Println("Goodbye!")
			return
		}

		answer, err := session.Ask(ctx, question)
		if err != nil {
			logger.Debug("assistant request failed", zap.Error(err))
			fmt.Printf("Bot: %s\n", apologyMessage)
			continue
		}

		fmt.Printf("Bot: %s\n", answer)
	}
}
