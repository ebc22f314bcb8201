package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/askrepo/askrepo/agent"
	agent_contracts "github.com/askrepo/askrepo/agent/contracts"
	"github.com/askrepo/askrepo/chat_history"
	history_contracts "github.com/askrepo/askrepo/chat_history/contracts"
	"github.com/askrepo/askrepo/code_index"
	index_contracts "github.com/askrepo/askrepo/code_index/contracts"
	"github.com/askrepo/askrepo/constants/lipgloss"
	"github.com/askrepo/askrepo/file_memory"
	memory_contracts "github.com/askrepo/askrepo/file_memory/contracts"
	"github.com/askrepo/askrepo/repo_fetcher"
	"github.com/askrepo/askrepo/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var codeCmd = &cobra.Command{
	Use:   "code [source]",
	Short: "Start an interactive Q&A session over a codebase.",
	Long: `The 'code' subcommand starts a conversational session over a codebase. The
source can be a local directory, a .zip archive, or a GitHub repository URL;
it is materialized into a session directory, indexed once, and then every
natural-language question is answered by iteratively selecting and reading
the relevant files. Type /help inside the session for the available commands.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}

		source := ""
		if len(args) > 0 {
			source = args[0]
		}
		keep, _ := cmd.Flags().GetBool("keep")

		handleCodeCommand(rootDependencies, source, keep)
	},
}

func init() {
	codeCmd.Flags().Bool("keep", false, "Keep the materialized session directory after exit.")
	rootCmd.AddCommand(codeCmd)
}

// codeSession bundles the per-session state the REPL operates on.
type codeSession struct {
	deps    *RootDependencies
	root    string
	index   index_contracts.ICodeIndex
	memory  memory_contracts.IFileMemory
	history history_contracts.IChatHistory
	agent   agent_contracts.IAgent
}

func newSpinner() *pterm.SpinnerPrinter {
	return pterm.DefaultSpinner.
		WithStyle(pterm.NewStyle(pterm.FgLightBlue)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).
		WithRemoveWhenDone(true)
}

func handleCodeCommand(rootDependencies *RootDependencies, source string, keep bool) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go utils.GracefulShutdown(ctx, func() {
		rootDependencies.TokenManagement.ClearToken()
	})

	session, cleanup, err := prepareCodeSession(ctx, rootDependencies, source, keep)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}
	defer cleanup()

	fmt.Println(lipgloss.BoxStyle.Render(fmt.Sprintf("askrepo — %d files indexed\n/help  Session commands", session.index.Len())))

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
			if exit := session.runSlashCommand(ctx, userInput); exit {
				return
			}
			continue
		}

		session.runQuery(ctx, userInput)
	}
}

func prepareCodeSession(ctx context.Context, rootDependencies *RootDependencies, source string, keep bool) (*codeSession, func(), error) {
	cleanup := func() {}
	codebaseRoot := rootDependencies.Cwd

	if source != "" {
		sessionDir, err := os.MkdirTemp("", "askrepo-session-")
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to create session directory: %w", err)
		}
		if !keep {
			cleanup = func() { os.RemoveAll(sessionDir) }
		}

		spinnerFetch, _ := newSpinner().Start("Preparing codebase...")
		codebaseRoot, err = repo_fetcher.NewFetcher().Prepare(ctx, source, sessionDir)
		spinnerFetch.Stop()
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
	}

	agentConfig := rootDependencies.Config.Agent
	fileReader := file_memory.NewOSFileReader(codebaseRoot)

	buildOptions := code_index.DefaultBuilderOptions
	buildOptions.PreviewChars = agentConfig.PreviewChars
	buildOptions.PrefixBytes = agentConfig.IndexPrefixBytes
	if agentConfig.EnableCache {
		snapshotCache, err := code_index.NewSnapshotCache("")
		if err != nil {
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Snapshot cache unavailable: %v", err)))
		} else {
			buildOptions.SnapshotCache = snapshotCache
		}
	}

	spinnerIndex, _ := newSpinner().Start("Indexing codebase...")
	index, err := code_index.Build(codebaseRoot, fileReader, buildOptions)
	spinnerIndex.Stop()
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	memory := file_memory.NewFileMemory(fileReader, file_memory.TruncationPolicy{
		MaxChars:  agentConfig.MaxFileChars,
		HeadChars: agentConfig.HeadChars,
		TailChars: agentConfig.TailChars,
	})
	history := chat_history.NewChatHistory(agentConfig.HistoryLength, chat_history.DefaultAnswerCap)

	session := &codeSession{
		deps:    rootDependencies,
		root:    codebaseRoot,
		index:   index,
		memory:  memory,
		history: history,
		agent:   agent.NewController(index, memory, rootDependencies.Engine, history, agentConfig.MaxIterations),
	}
	return session, cleanup, nil
}

// runQuery drives one natural-language question through the agent and
// renders the streamed answer.
func (s *codeSession) runQuery(ctx context.Context, userInput string) {
	spinnerThink, _ := newSpinner().Start("Thinking...")

	firstChunk := true
	onChunk := func(content string) {
		if firstChunk {
			spinnerThink.Stop()
			fmt.Print("\n")
			firstChunk = false
		}
		language := utils.DetectLanguageFromCodeBlock(content)
		if err := utils.RenderAndPrintMarkdownWithContext(ctx, content, language, s.deps.Config.Theme); err != nil && err != context.Canceled {
			fmt.Print(content)
		}
	}

	result, err := s.agent.Run(ctx, userInput, onChunk)
	if firstChunk {
		spinnerThink.Stop()
	}

	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Could not complete analysis: %v", err)))
		if result != nil && len(result.AnalyzedFiles) > 0 {
			fmt.Println(lipgloss.Gray.Render(fmt.Sprintf("Analyzed before the failure: %s", strings.Join(result.AnalyzedFiles, ", "))))
		}
		return
	}

	fmt.Print("\n")
	if len(result.AnalyzedFiles) > 0 {
		fmt.Println(lipgloss.Gray.Render(fmt.Sprintf("Analyzed: %s", strings.Join(result.AnalyzedFiles, ", "))))
	}
	if len(result.FailedPaths) > 0 {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Unreadable: %s", strings.Join(result.FailedPaths, ", "))))
	}

	s.history.Append(userInput, result.Answer)
}

func (s *codeSession) runSlashCommand(ctx context.Context, command string) bool {
	fields := strings.Fields(command)
	name := fields[0]
	arg := ""
	if len(fields) > 1 {
		arg = strings.Join(fields[1:], " ")
	}

	switch name {
	case "/help":
		helps := strings.Join([]string{
			"/ls [path]      List indexed files, optionally under a path",
			"/read <file>    Show a file's cached content",
			"/search <term>  Find indexed files matching a term",
			"/tree           Show the indexed directory tree",
			"/memory         Show loaded files and cache stats",
			"/clear          Wipe the file cache",
			"/clear-history  Clear the conversation history",
			"/token          Token usage for this session",
			"/clear-token    Reset token counters",
			"/exit           Leave the session",
		}, "\n")
		fmt.Println(lipgloss.BoxStyle.Render(helps))
	case "/ls":
		s.listFiles(arg)
	case "/read":
		if arg == "" {
			fmt.Println(lipgloss.Yellow.Render("Usage: /read <file>"))
			return false
		}
		s.readFile(ctx, arg)
	case "/search":
		if arg == "" {
			fmt.Println(lipgloss.Yellow.Render("Usage: /search <term>"))
			return false
		}
		s.searchFiles(arg)
	case "/tree":
		s.printTree()
	case "/memory":
		s.printMemory()
	case "/clear":
		s.memory.Wipe()
		fmt.Println(lipgloss.Green.Render("File cache cleared."))
	case "/clear-history":
		s.history.Clear()
		fmt.Println(lipgloss.Green.Render("Conversation history cleared."))
	case "/token":
		s.deps.TokenManagement.DisplayTokens(s.deps.Config.AIProviderConfig.ChatModel)
	case "/clear-token":
		s.deps.TokenManagement.ClearToken()
		fmt.Println(lipgloss.Green.Render("Token counters reset."))
	case "/exit", "/quit":
		return true
	default:
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Unknown command %s, see /help", name)))
	}
	return false
}

func (s *codeSession) listFiles(prefix string) {
	records := s.index.ListDirectory(prefix)
	if len(records) == 0 {
		fmt.Println(lipgloss.Yellow.Render("No indexed files match."))
		return
	}
	for _, record := range records {
		fmt.Printf("%s %s\n", record.Path, lipgloss.Gray.Render(fmt.Sprintf("(%d lines)", record.LineCount)))
	}
}

func (s *codeSession) readFile(ctx context.Context, path string) {
	if _, found := s.index.Lookup(path); !found {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("%s is not in the index.", path)))
		return
	}

	entry, err := s.memory.Get(path)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	language := utils.GetSupportedLanguage(path)
	if language == "" {
		language = "markdown"
	}
	if err := utils.RenderAndPrintMarkdownWithContext(ctx, entry.Content, language, s.deps.Config.Theme); err != nil && err != context.Canceled {
		fmt.Print(entry.Content)
	}
	if entry.Truncated {
		fmt.Println(lipgloss.Gray.Render("(content truncated)"))
	}
}

func (s *codeSession) searchFiles(term string) {
	lowered := strings.ToLower(term)
	found := 0
	for _, record := range s.index.Records() {
		haystack := strings.ToLower(record.Path + " " + record.Outline + " " + record.Preview)
		if strings.Contains(haystack, lowered) {
			fmt.Printf("%s %s\n", record.Path, lipgloss.Gray.Render(fmt.Sprintf("(%d lines)", record.LineCount)))
			found++
		}
	}
	if found == 0 {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("No files matching %q.", term)))
	}
}

func (s *codeSession) printTree() {
	for _, record := range s.index.Records() {
		depth := strings.Count(record.Path, "/")
		fmt.Printf("%s%s\n", strings.Repeat("  ", depth), filepath.Base(record.Path))
	}
}

func (s *codeSession) printMemory() {
	paths := s.memory.Snapshot()
	if len(paths) == 0 {
		fmt.Println(lipgloss.Gray.Render("No files loaded yet."))
		return
	}
	for _, path := range paths {
		fmt.Println(path)
	}
	hits, misses := s.memory.Stats()
	fmt.Println(lipgloss.Gray.Render(fmt.Sprintf("%d files cached, %d hits, %d misses", len(paths), hits, misses)))
}
