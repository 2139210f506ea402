package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var intentsCmd = &cobra.Command{
	Use:   "intents",
	Short: "Manage intents",
	Long:  `Intents are canonical questions with trigger keywords and canned responses.`,
}

var intentsReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload intents from the intents directory",
	Args:  cobra.NoArgs,
	RunE:  runIntentsReload,
}

var intentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active intents",
	Args:  cobra.NoArgs,
	RunE:  runIntentsList,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the search index",
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the TF-IDF index from stored chunks",
	Args:  cobra.NoArgs,
	RunE:  runIndexRebuild,
}

var embeddingsCmd = &cobra.Command{
	Use:   "embeddings",
	Short: "Inspect vector search",
}

var embeddingsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the embedding backend and cached intent vectors",
	Args:  cobra.NoArgs,
	RunE:  runEmbeddingsStatus,
}

func init() {
	intentsCmd.AddCommand(intentsReloadCmd)
	intentsCmd.AddCommand(intentsListCmd)
	indexCmd.AddCommand(indexRebuildCmd)
	embeddingsCmd.AddCommand(embeddingsStatusCmd)
	rootCmd.AddCommand(intentsCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(embeddingsCmd)
}

func runIntentsReload(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errKnowledgeNotConfigured
	}

	n, err := knowledgeService.ReloadIntents(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to reload intents: %w", err)
	}

	cmd.Printf("Loaded %d intents\n", n)
	return nil
}

func runIntentsList(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errKnowledgeNotConfigured
	}

	intents := knowledgeService.Intents()
	if len(intents) == 0 {
		cmd.Println("No intents loaded.")
		return nil
	}

	for _, intent := range intents {
		cmd.Printf("  %s\n", intent.Name)
		if len(intent.Keywords) > 0 {
			cmd.Printf("    Keywords: %s\n", strings.Join(intent.Keywords, ", "))
		}
		cmd.Printf("    Response: %s\n", truncate(intent.Response(), 100))
	}
	cmd.Println()
	cmd.Printf("Total: %d intents\n", len(intents))
	return nil
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errKnowledgeNotConfigured
	}

	if err := knowledgeService.RebuildIndex(cmd.Context()); err != nil {
		return fmt.Errorf("failed to rebuild index: %w", err)
	}

	status, err := knowledgeService.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	cmd.Printf("Indexed %d chunks from %d documents\n", status.Chunks, status.Documents)
	return nil
}

func runEmbeddingsStatus(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errKnowledgeNotConfigured
	}

	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			cmd.Printf("Provider: %s\n", settings.Embedding.Provider)
			if settings.Embedding.Model != "" {
				cmd.Printf("Model:    %s\n", settings.Embedding.Model)
			}
			cmd.Printf("Enabled:  %t\n", settings.Knowledge.VectorEnabled)
		}
	}

	status, err := knowledgeService.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	state := "unavailable"
	if status.Vector.Ready {
		state = "ready"
	}
	cmd.Printf("Vectors:  %s\n", state)
	cmd.Printf("Cached:   %d of %d intents\n", status.Vector.Count, status.Intents)
	if status.Vector.ModelID != "" {
		cmd.Printf("Cache model: %s\n", status.Vector.ModelID)
	}
	return nil
}
