package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the knowledge base",
	Long: `Resolves a question against intents and documents and prints the best
answer. When no candidate reaches the confidence threshold the best score
is shown instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the resolution as JSON")
	rootCmd.AddCommand(askCmd)
}

type resolutionJSON struct {
	Found      bool    `json:"found"`
	Answer     string  `json:"answer,omitempty"`
	Score      float64 `json:"score"`
	Source     string  `json:"source"`
	MatchID    string  `json:"match_id,omitempty"`
	MatchTitle string  `json:"match_title,omitempty"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errKnowledgeNotConfigured
	}

	query := strings.Join(args, " ")
	res, err := knowledgeService.Resolve(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(resolutionJSON{
			Found:      res.Found,
			Answer:     res.Answer,
			Score:      res.Score,
			Source:     res.Source.String(),
			MatchID:    res.MatchID,
			MatchTitle: res.MatchTitle,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal resolution: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printResolution(cmd, res)
	return nil
}

func printResolution(cmd *cobra.Command, res domain.Resolution) {
	if !res.Found {
		cmd.Printf("No confident answer (best score %.2f).\n", res.Score)
		return
	}
	cmd.Println(res.Answer)
	cmd.Println()
	cmd.Printf("  matched %s %q (%.2f)\n", res.Source, res.MatchTitle, res.Score)
}
