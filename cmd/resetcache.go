package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/askrepo/askrepo/code_index"
	"github.com/askrepo/askrepo/constants/lipgloss"
	"github.com/spf13/cobra"
)

// resetCacheCmd represents the reset-cache command
var resetCacheCmd = &cobra.Command{
	Use:   "reset-cache",
	Short: "Clear the on-disk index snapshot cache.",
	Long: `The 'reset-cache' command removes the stored index snapshots from the
'.askrepo-cache' directory. Snapshots are rebuilt automatically on the next
session; clearing them only costs one re-index per codebase.`,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		stats, _ := cmd.Flags().GetBool("stats")
		handleResetCacheCommand(force, stats)
	},
}

func init() {
	resetCacheCmd.Flags().BoolP("force", "f", false, "Clear without confirmation")
	resetCacheCmd.Flags().BoolP("stats", "s", false, "Show cache statistics instead of clearing")

	rootCmd.AddCommand(resetCacheCmd)
}

func handleResetCacheCommand(force bool, showStats bool) {
	snapshotCache, err := code_index.NewSnapshotCache("")
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	if showStats {
		cacheStats, err := snapshotCache.Stats()
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			return
		}
		fmt.Println(lipgloss.Info.Render("Snapshot cache statistics:"))
		fmt.Printf("  Directory: %s\n", cacheStats["cache_dir"])
		fmt.Printf("  Snapshots: %d\n", cacheStats["snapshots"])
		if size, ok := cacheStats["total_bytes"].(int64); ok {
			fmt.Printf("  Total Size: %.2f KB\n", float64(size)/1024)
		}
		if newest, ok := cacheStats["newest_entry"].(string); ok {
			fmt.Printf("  Newest Entry: %s\n", newest)
		}
		return
	}

	if !force {
		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Clear all index snapshots? (y/N): ")
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println(lipgloss.Yellow.Render("Cache reset cancelled."))
			return
		}
	}

	removed, err := snapshotCache.Clear()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error clearing cache: %v", err)))
		return
	}

	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("Removed %d snapshot(s).", removed)))
}
