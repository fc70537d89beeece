// package formatter provides functions to export extracted ideas and
// timeline data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gistlabs/gistctl/internal/models"
	"github.com/gistlabs/gistctl/internal/shared"
)

// ExportToCSV converts ranked ideas to CSV format with columns: Rank, Title, Strength, Viral Potential, Description, Time Ranges
func ExportToCSV(ideas []models.Idea) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Rank", "Title", "Strength", "Viral Potential", "Description", "Time Ranges"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, idea := range ideas {
		record := []string{
			strconv.Itoa(idea.Rank),
			idea.Title,
			idea.Strength,
			strconv.FormatFloat(idea.ViralPotential, 'f', 2, 64),
			idea.Description,
			formatTimeRanges(idea.TimeRanges),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts ranked ideas to Markdown format with an optional video title heading
func ExportToMarkdown(title string, ideas []models.Idea) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Extracted Ideas"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Ideas**: %d\n\n", len(ideas)))

	for _, idea := range ideas {
		buf.WriteString(fmt.Sprintf("## %d. %s\n\n", idea.Rank, idea.Title))
		if idea.Description != "" {
			buf.WriteString(fmt.Sprintf("%s\n\n", idea.Description))
		}
		if idea.Strength != "" {
			buf.WriteString(fmt.Sprintf("**Strength**: %s\n", idea.Strength))
		}
		buf.WriteString(fmt.Sprintf("**Viral potential**: %.2f\n", idea.ViralPotential))
		if len(idea.TimeRanges) > 0 {
			buf.WriteString(fmt.Sprintf("**Source**: %s\n", formatTimeRanges(idea.TimeRanges)))
		}
		if len(idea.Highlights) > 0 {
			buf.WriteString("\n")
			for _, h := range idea.Highlights {
				buf.WriteString(fmt.Sprintf("- %s\n", h))
			}
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts ranked ideas to plain text format
func ExportToText(title string, ideas []models.Idea) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		buf.WriteString(fmt.Sprintf("Video: %s\n", title))
	}
	buf.WriteString(fmt.Sprintf("Ideas: %d\n\n", len(ideas)))

	for _, idea := range ideas {
		buf.WriteString(fmt.Sprintf("%d. %s", idea.Rank, idea.Title))
		if len(idea.TimeRanges) > 0 {
			buf.WriteString(fmt.Sprintf(" [%s]", formatTimeRanges(idea.TimeRanges)))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// TimelineToText renders playback metadata and its labeled segments as plain text
func TimelineToText(timeline *models.Timeline) ([]byte, error) {
	if timeline == nil {
		return nil, fmt.Errorf("no timeline data")
	}

	var buf bytes.Buffer

	if timeline.Title != "" {
		buf.WriteString(fmt.Sprintf("Video: %s\n", timeline.Title))
	}
	buf.WriteString(fmt.Sprintf("Duration: %s\n", shared.FormatDuration(timeline.Duration)))
	if timeline.VideoURL != "" {
		buf.WriteString(fmt.Sprintf("Stream: %s\n", timeline.VideoURL))
	}

	if len(timeline.Segments) > 0 {
		buf.WriteString("\nSegments:\n")
		for _, seg := range timeline.Segments {
			buf.WriteString(fmt.Sprintf("  %s - %s  %s", shared.FormatDuration(seg.Start), shared.FormatDuration(seg.End), seg.Label))
			if len(seg.IdeaIDs) > 0 {
				buf.WriteString(fmt.Sprintf(" (%s)", strings.Join(seg.IdeaIDs, ", ")))
			}
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}

func formatTimeRanges(ranges []models.TimeRange) string {
	parts := make([]string, 0, len(ranges))
	for _, tr := range ranges {
		parts = append(parts, fmt.Sprintf("%s-%s", shared.FormatDuration(tr.Start), shared.FormatDuration(tr.End)))
	}
	return strings.Join(parts, "; ")
}

// ToMetadataJSON generates a JSON representation of the ranked ideas
func ToMetadataJSON(ideas []models.Idea) ([]byte, error) {
	return shared.MarshalJSON(ideas, true)
}

// WriteCSVExport writes ideas to {base}_ideas.csv with an accompanying {base}_ideas.json metadata file.
//
// Defaults to "export" as the base filename.
func WriteCSVExport(ideas []models.Idea, baseFilepath string) (string, error) {
	if baseFilepath == "" {
		baseFilepath = "export"
	}

	csvData, err := ExportToCSV(ideas)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	csvFile := baseFilepath + "_ideas.csv"
	if err := os.WriteFile(csvFile, csvData, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(ideas)
	if err != nil {
		return "", fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	if err := os.WriteFile(baseFilepath+"_ideas.json", metadataJSON, 0644); err != nil {
		return "", fmt.Errorf("failed to write metadata file: %w", err)
	}

	return csvFile, nil
}

// WriteMarkdownExport writes ideas to a Markdown file, defaulting to ideas.md.
func WriteMarkdownExport(title string, ideas []models.Idea, filepath string) (string, error) {
	if filepath == "" {
		filepath = "ideas.md"
	}

	mdData, err := ExportToMarkdown(title, ideas)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	if err := os.WriteFile(filepath, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return filepath, nil
}

// WriteTextExport writes ideas to a plain text file, defaulting to ideas.txt.
func WriteTextExport(title string, ideas []models.Idea, filepath string) (string, error) {
	if filepath == "" {
		filepath = "ideas.txt"
	}

	textData, err := ExportToText(title, ideas)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}
