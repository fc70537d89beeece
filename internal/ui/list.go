package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/gistlabs/gistctl/internal/models"
	"github.com/gistlabs/gistctl/internal/shared"
)

var (
	_ list.Item = ideaItem{}
)

// ideaItem wraps [models.Idea] to implement [list.Item].
type ideaItem struct {
	idea models.Idea
}

func (i ideaItem) FilterValue() string { return i.idea.Title }
func (i ideaItem) Title() string {
	return fmt.Sprintf("%d. %s", i.idea.Rank, i.idea.Title)
}
func (i ideaItem) Description() string {
	parts := []string{}
	if i.idea.Strength != "" {
		parts = append(parts, i.idea.Strength)
	}
	parts = append(parts, fmt.Sprintf("viral %.2f", i.idea.ViralPotential))
	if len(i.idea.TimeRanges) > 0 {
		tr := i.idea.TimeRanges[0]
		parts = append(parts, fmt.Sprintf("%s-%s", shared.FormatDuration(tr.Start), shared.FormatDuration(tr.End)))
	}
	return strings.Join(parts, " • ")
}
