package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/askrepo/askrepo/chat_history"
	history_contracts "github.com/askrepo/askrepo/chat_history/contracts"
	"github.com/askrepo/askrepo/constants/lipgloss"
	"github.com/askrepo/askrepo/doc_rag"
	doc_contracts "github.com/askrepo/askrepo/doc_rag/contracts"
	provider_models "github.com/askrepo/askrepo/providers/models"
	"github.com/askrepo/askrepo/utils"
	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Start an interactive Q&A session over a documentation chunk store.",
	Long: `The 'docs' subcommand answers questions over a pre-ingested documentation set.
Each query is embedded, the most similar chunks are retrieved, and a single
answer is generated over them. The prompt mode shapes the answer: 'search'
answers strictly from the knowledge base, 'ask' may fall back to general
knowledge, 'teach' explains the topic like a tutor.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}

		chunksPath, _ := cmd.Flags().GetString("chunks")
		if chunksPath == "" {
			fmt.Println(lipgloss.Red.Render("The --chunks flag is required."))
			return
		}
		mode, _ := cmd.Flags().GetString("mode")

		handleDocsCommand(rootDependencies, chunksPath, mode)
	},
}

func init() {
	docsCmd.Flags().String("chunks", "", "Path to the JSONL chunk store produced by ingestion.")
	docsCmd.Flags().String("mode", string(doc_contracts.ModeAsk), "Answer mode: search, ask, or teach.")
	rootCmd.AddCommand(docsCmd)
}

func parseAnswerMode(raw string) (doc_contracts.AnswerMode, bool) {
	switch doc_contracts.AnswerMode(strings.ToLower(strings.TrimSpace(raw))) {
	case doc_contracts.ModeSearch:
		return doc_contracts.ModeSearch, true
	case doc_contracts.ModeAsk:
		return doc_contracts.ModeAsk, true
	case doc_contracts.ModeTeach:
		return doc_contracts.ModeTeach, true
	default:
		return doc_contracts.ModeAsk, false
	}
}

func handleDocsCommand(rootDependencies *RootDependencies, chunksPath string, rawMode string) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go utils.GracefulShutdown(ctx, func() {
		rootDependencies.TokenManagement.ClearToken()
	})

	mode, ok := parseAnswerMode(rawMode)
	if !ok {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Unknown mode %q, using %q.", rawMode, mode)))
	}

	spinnerLoad, _ := newSpinner().Start("Loading chunk store...")
	rag, err := doc_rag.NewDocRAG(chunksPath, rootDependencies.ChatProvider, rootDependencies.Config.BotName, rootDependencies.Config.Agent.TopK)
	spinnerLoad.Stop()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	history := chat_history.NewChatHistory(rootDependencies.Config.Agent.HistoryLength, chat_history.DefaultAnswerCap)

	fmt.Println(lipgloss.BoxStyle.Render(fmt.Sprintf("askrepo docs — %d chunks loaded, mode %s\n/help  Session commands", rag.Len(), mode)))

	reader := bufio.NewReader(os.Stdin)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		userInput, err := utils.InputPromptWithContext(ctx, reader)
		if err != nil {
			// A closed stdin ends the session like Ctrl+C does.
			if err == context.Canceled || err == io.EOF {
				fmt.Println(lipgloss.Yellow.Render("\nExiting..."))
				return
			}
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			continue
		}
		if userInput == "" {
			continue
		}

		if strings.HasPrefix(userInput, "/") {
			switch {
			case userInput == "/help":
				helps := strings.Join([]string{
					"/mode <m>       Switch answer mode (search, ask, teach)",
					"/clear-history  Clear the conversation history",
					"/token          Token usage for this session",
					"/exit           Leave the session",
				}, "\n")
				fmt.Println(lipgloss.BoxStyle.Render(helps))
			case strings.HasPrefix(userInput, "/mode"):
				raw := strings.TrimSpace(strings.TrimPrefix(userInput, "/mode"))
				if next, ok := parseAnswerMode(raw); ok {
					mode = next
					fmt.Println(lipgloss.Green.Render(fmt.Sprintf("Mode set to %s.", mode)))
				} else {
					fmt.Println(lipgloss.Yellow.Render("Usage: /mode search|ask|teach"))
				}
			case userInput == "/clear-history":
				history.Clear()
				fmt.Println(lipgloss.Green.Render("Conversation history cleared."))
			case userInput == "/token":
				rootDependencies.TokenManagement.DisplayTokens(rootDependencies.Config.AIProviderConfig.ChatModel)
			case userInput == "/exit", userInput == "/quit":
				return
			default:
				fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Unknown command %s, see /help", userInput)))
			}
			continue
		}

		messages := renderDocsHistory(history)
		spinnerThink, _ := newSpinner().Start("Thinking...")

		var answerBuilder strings.Builder
		firstChunk := true
		failed := false
		for chunk := range rag.Answer(ctx, userInput, mode, messages) {
			if chunk.Err != nil {
				spinnerThink.Stop()
				fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", chunk.Err)))
				failed = true
				break
			}
			if chunk.Content != "" {
				if firstChunk {
					spinnerThink.Stop()
					fmt.Print("\n")
					firstChunk = false
				}
				answerBuilder.WriteString(chunk.Content)
				language := utils.DetectLanguageFromCodeBlock(chunk.Content)
				if err := utils.RenderAndPrintMarkdownWithContext(ctx, chunk.Content, language, rootDependencies.Config.Theme); err != nil && err != context.Canceled {
					fmt.Print(chunk.Content)
				}
			}
			if chunk.Done {
				break
			}
		}
		if firstChunk {
			spinnerThink.Stop()
		}
		if failed {
			continue
		}

		fmt.Print("\n")
		history.Append(userInput, answerBuilder.String())
	}
}

func renderDocsHistory(history history_contracts.IChatHistory) []provider_models.ChatMessage {
	entries := history.Render()
	messages := make([]provider_models.ChatMessage, 0, len(entries)*2)
	for _, entry := range entries {
		messages = append(messages, provider_models.ChatMessage{Role: "user", Content: entry.Query})
		messages = append(messages, provider_models.ChatMessage{Role: "assistant", Content: entry.Answer})
	}
	return messages
}
