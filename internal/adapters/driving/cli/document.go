package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc"},
	Short:   "Manage knowledge documents",
	Long:    `Add, list, view or delete the documents questions are answered from.`,
}

var documentAddCmd = &cobra.Command{
	Use:   "add [file|-]",
	Short: "Ingest a document",
	Long: `Reads a file (or stdin when given "-"), normalises it by content type,
splits it into chunks and rebuilds the search index.

The content type is taken from --type or inferred from the file extension:
.html/.htm are HTML, .md/.markdown are markdown and anything else is plain text.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentAdd,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show document info and chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentShow,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print document content",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var (
	docTitle    string
	docType     string
	docCategory string
	docKeywords []string
	docURL      string
)

func init() {
	documentAddCmd.Flags().StringVar(&docTitle, "title", "", "document title (derived from content when empty)")
	documentAddCmd.Flags().StringVar(&docType, "type", "", "content type: plain, markdown, html or a MIME type")
	documentAddCmd.Flags().StringVar(&docCategory, "category", "", "document category")
	documentAddCmd.Flags().StringSliceVar(&docKeywords, "keywords", nil, "comma-separated keywords")
	documentAddCmd.Flags().StringVar(&docURL, "url", "", "page the document was taken from")

	documentCmd.AddCommand(documentAddCmd)
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentShowCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentAdd(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errKnowledgeNotConfigured
	}

	path := args[0]
	content, err := readDocumentInput(cmd, path)
	if err != nil {
		return err
	}

	contentType, err := resolveContentType(docType, path)
	if err != nil {
		return err
	}

	doc, err := knowledgeService.AddDocument(cmd.Context(), domain.DocumentInput{
		Title:       docTitle,
		Content:     content,
		ContentType: contentType,
		Category:    docCategory,
		Keywords:    docKeywords,
		URL:         docURL,
	})
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}

	cmd.Printf("Added document %s\n", doc.ID)
	cmd.Printf("  Title: %s\n", doc.Title)
	return nil
}

func readDocumentInput(cmd *cobra.Command, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// resolveContentType maps the --type flag, or the file extension when the
// flag is empty, to a content type.
func resolveContentType(flag, path string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "":
	case "plain", "text", "txt":
		return domain.ContentTypePlain, nil
	case "markdown", "md":
		return domain.ContentTypeMarkdown, nil
	case "html", "htm":
		return domain.ContentTypeHTML, nil
	default:
		if strings.Contains(flag, "/") {
			return flag, nil
		}
		return "", fmt.Errorf("%w: unknown content type %q", domain.ErrInvalidInput, flag)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return domain.ContentTypeHTML, nil
	case ".md", ".markdown":
		return domain.ContentTypeMarkdown, nil
	default:
		return domain.ContentTypePlain, nil
	}
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errKnowledgeNotConfigured
	}

	docs, err := knowledgeService.ListDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents. Add one with 'siteassist doc add <file>'.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Title: %s\n", docs[i].Title)
		if docs[i].Category != "" {
			cmd.Printf("    Category: %s\n", docs[i].Category)
		}
		if docs[i].URL != "" {
			cmd.Printf("    URL: %s\n", docs[i].URL)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentShow(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errKnowledgeNotConfigured
	}

	doc, chunks, err := knowledgeService.GetDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("ID:       %s\n", doc.ID)
	cmd.Printf("Title:    %s\n", doc.Title)
	if doc.Category != "" {
		cmd.Printf("Category: %s\n", doc.Category)
	}
	if len(doc.Keywords) > 0 {
		cmd.Printf("Keywords: %s\n", strings.Join(doc.Keywords, ", "))
	}
	if doc.URL != "" {
		cmd.Printf("URL:      %s\n", doc.URL)
	}
	if !doc.CreatedAt.IsZero() {
		cmd.Printf("Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	cmd.Printf("Chunks:   %d\n", len(chunks))
	cmd.Println()
	for _, chunk := range chunks {
		cmd.Printf("  [%d] %s\n", chunk.Index, truncate(chunk.Content, 100))
	}
	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errKnowledgeNotConfigured
	}

	doc, _, err := knowledgeService.GetDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Println(doc.Content)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errKnowledgeNotConfigured
	}

	if err := knowledgeService.DeleteDocument(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted document %s\n", args[0])
	return nil
}
