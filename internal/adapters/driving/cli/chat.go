package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/siteassist/internal/adapters/driving/tui"
)

var (
	chatPlain       bool
	chatSearchLimit int
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant",
	Long: `Opens the interactive assistant. On a terminal this starts the full
screen interface with chat, passage search and document browsing. With
--plain, or when input is piped, each line read is answered in turn.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "line mode without the full screen interface")
	chatCmd.Flags().IntVarP(&chatSearchLimit, "limit", "n", 0, "passages shown by search (0 uses the configured default)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errKnowledgeNotConfigured
	}

	stop := startIntentWatch(cmd.Context())
	defer stop()

	if !chatPlain && isTerminal(cmd) {
		return runChatTUI(cmd)
	}
	return runChatLines(cmd)
}

func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runChatTUI(cmd *cobra.Command) error {
	app, err := tui.NewApp(&tui.Ports{
		Knowledge:   knowledgeService,
		SearchLimit: chatSearchLimit,
	})
	if err != nil {
		return err
	}
	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running interface: %w", err)
	}
	return nil
}

func runChatLines(cmd *cobra.Command) error {
	ctx := cmd.Context()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	cmd.Println("Ask a question. Type /quit to leave.")
	for {
		cmd.Print("you> ")
		if !scanner.Scan() {
			cmd.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}

		res, err := knowledgeService.Resolve(ctx, line)
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			continue
		}
		printResolution(cmd, res)
		cmd.Println()
	}
	return scanner.Err()
}
