package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search document passages",
	Long: `Ranks document chunks against the query with TF-IDF and prints the
best passages.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 uses knowledge.search_limit)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errKnowledgeNotConfigured
	}

	query := strings.Join(args, " ")
	hits, err := knowledgeService.Search(cmd.Context(), query, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, hits)
	}
	return outputSearchTable(cmd, hits)
}

type searchHitJSON struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

func outputSearchJSON(cmd *cobra.Command, hits []domain.ChunkHit) error {
	out := make([]searchHitJSON, len(hits))
	for i, hit := range hits {
		out[i] = searchHitJSON{
			DocumentID: hit.Chunk.DocumentID,
			Title:      hit.DocumentTitle,
			ChunkIndex: hit.Chunk.Index,
			Content:    hit.Chunk.Content,
			Score:      hit.Score,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, hits []domain.ChunkHit) error {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, hit := range hits {
		title := hit.DocumentTitle
		if title == "" {
			title = hit.Chunk.DocumentID
		}
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, title, hit.Score)
		cmd.Printf("      %s\n", truncate(hit.Chunk.Content, 160))
		cmd.Println()
	}
	return nil
}

// truncate shortens s to at most n runes, adding an ellipsis when cut.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
