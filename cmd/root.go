package cmd

import (
	"fmt"
	"os"

	"github.com/askrepo/askrepo/config"
	"github.com/askrepo/askrepo/constants/lipgloss"
	"github.com/askrepo/askrepo/providers"
	provider_contracts "github.com/askrepo/askrepo/providers/contracts"
	"github.com/askrepo/askrepo/reasoning"
	reasoning_contracts "github.com/askrepo/askrepo/reasoning/contracts"
	"github.com/askrepo/askrepo/token_management"
	token_contracts "github.com/askrepo/askrepo/token_management/contracts"
	"github.com/spf13/cobra"
)

// RootDependencies holds the wiring shared by every subcommand.
type RootDependencies struct {
	Config          *config.Config
	Cwd             string
	TokenManagement token_contracts.ITokenManagement
	ChatProvider    provider_contracts.IChatAIProvider
	HelperProvider  provider_contracts.IChatAIProvider
	Engine          reasoning_contracts.IReasoningEngine
}

var rootCmd = &cobra.Command{
	Use:   "askrepo",
	Short: "askrepo is a conversational assistant for exploring codebases and documentation.",
	Long: `askrepo answers natural-language questions about a codebase or a pre-ingested
documentation set. It classifies each question, iteratively selects and loads
the relevant files, and generates an answer grounded in their content.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Println(config.DefaultConfig.Version)
			return
		}
		_ = cmd.Help()
	},
}

// handleRootCommand loads the configuration and assembles the providers and
// the reasoning engine.
func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Println(lipgloss.Red.Render("Error getting current directory"))
		return nil
	}

	rootDependencies := &RootDependencies{Cwd: cwd}
	rootDependencies.Config = config.LoadConfigs(cmd.Root(), cwd)
	rootDependencies.TokenManagement = token_management.NewTokenManager()

	providerConfig := rootDependencies.Config.AIProviderConfig

	rootDependencies.ChatProvider, err = providers.ChatProviderFactory(
		providerConfig,
		providerConfig.ChatModel,
		providerConfig.ChatCtxWindow,
		rootDependencies.TokenManagement,
	)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return nil
	}

	rootDependencies.HelperProvider, err = providers.ChatProviderFactory(
		providerConfig,
		providerConfig.HelperModel,
		providerConfig.HelperCtxWindow,
		rootDependencies.TokenManagement,
	)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return nil
	}

	rootDependencies.Engine = reasoning.NewReasoningEngine(
		rootDependencies.HelperProvider,
		rootDependencies.ChatProvider,
		rootDependencies.Config.BotName,
	)

	return rootDependencies
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd)
}
