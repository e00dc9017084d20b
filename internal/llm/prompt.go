package llm

import (
	"fmt"

	"github.com/diffguard/diffguard/internal/core"
)

// PromptData is the type-safe payload for rendering the per-file review prompt.
type PromptData struct {
	Title       string
	Description string
	Guidelines  string
	FilePath    string
	FileContent string
	DiffText    string
}

// PromptBuilder renders the review prompt for one changed file.
type PromptBuilder struct {
	mgr        *PromptManager
	guidelines string
}

// NewPromptBuilder creates a PromptBuilder with the configuration-supplied
// guideline block that is appended to every prompt.
func NewPromptBuilder(mgr *PromptManager, guidelines string) *PromptBuilder {
	return &PromptBuilder{mgr: mgr, guidelines: guidelines}
}

// Build renders the prompt for a single file. diffText is the line-numbered
// rendering of the file's hunks; fileContent is the base-revision content of
// the file, empty when unavailable.
func (b *PromptBuilder) Build(pr *core.PRContext, filePath, diffText, fileContent string) (string, error) {
	prompt, err := b.mgr.Render(CodeReviewPrompt, DefaultProvider, PromptData{
		Title:       pr.Title,
		Description: pr.Description,
		Guidelines:  b.guidelines,
		FilePath:    filePath,
		FileContent: fileContent,
		DiffText:    diffText,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build review prompt for %s: %w", filePath, err)
	}
	return prompt, nil
}
