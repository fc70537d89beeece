package formatter

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/gistlabs/gistctl/internal/models"
	th "github.com/gistlabs/gistctl/internal/testing"
)

func sampleIdeas() []models.Idea {
	return []models.Idea{
		{
			ID:             "idea-1",
			Rank:           1,
			Title:          "Opening hook",
			Description:    "The first two minutes set up the whole argument",
			Strength:       "strong",
			ViralPotential: 0.82,
			Highlights:     []string{"great pacing", "quotable line"},
			TimeRanges:     []models.TimeRange{{Start: 0, End: 120}},
		},
		{
			ID:             "idea-2",
			Rank:           2,
			Title:          "Q&A highlight",
			Strength:       "medium",
			ViralPotential: 0.55,
			TimeRanges:     []models.TimeRange{{Start: 1830, End: 1910}},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleIdeas())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Rank,Title,Strength,Viral Potential,Description,Time Ranges") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "Opening hook") {
			t.Error("CSV missing first idea title")
		}
		if !strings.Contains(output, "0.82") {
			t.Error("CSV missing viral potential")
		}
		if !strings.Contains(output, "0:00-2:00") {
			t.Errorf("CSV missing formatted time range, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown("Conference Talk", sampleIdeas())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "# Conference Talk") {
			t.Error("Markdown missing title heading")
		}
		if !strings.Contains(output, "## 1. Opening hook") {
			t.Error("Markdown missing ranked idea heading")
		}
		if !strings.Contains(output, "**Viral potential**: 0.82") {
			t.Error("Markdown missing viral potential")
		}
		if !strings.Contains(output, "- great pacing") {
			t.Error("Markdown missing highlights")
		}
		if !strings.Contains(output, "30:30-31:50") {
			t.Errorf("Markdown missing second idea's time range, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown default title", func(t *testing.T) {
		data, err := ExportToMarkdown("", sampleIdeas())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		if !strings.Contains(string(data), "# Extracted Ideas") {
			t.Error("Markdown missing fallback heading")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText("Conference Talk", sampleIdeas())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Video: Conference Talk") {
			t.Error("text missing title")
		}
		if !strings.Contains(output, "Ideas: 2") {
			t.Error("text missing idea count")
		}
		if !strings.Contains(output, "1. Opening hook [0:00-2:00]") {
			t.Errorf("text missing ranked line, got: %s", output)
		}
	})
}

func TestTimelineToText(t *testing.T) {
	timeline := &models.Timeline{
		VideoURL: "http://cdn/vid-1.mp4",
		Duration: 3725,
		Title:    "Conference Talk",
		Segments: []models.TimelineSegment{
			{Start: 0, End: 120, Label: "Intro", IdeaIDs: []string{"idea-1"}},
			{Start: 120, End: 600, Label: "Main argument"},
		},
	}

	data, err := TimelineToText(timeline)
	if err != nil {
		t.Fatalf("TimelineToText failed: %v", err)
	}

	output := string(data)

	if !strings.Contains(output, "Duration: 1:02:05") {
		t.Errorf("missing formatted duration, got: %s", output)
	}
	if !strings.Contains(output, "0:00 - 2:00  Intro (idea-1)") {
		t.Errorf("missing first segment, got: %s", output)
	}
	if !strings.Contains(output, "2:00 - 10:00  Main argument") {
		t.Errorf("missing second segment, got: %s", output)
	}

	if _, err := TimelineToText(nil); err == nil {
		t.Error("expected an error for a nil timeline")
	}
}

func TestWriteExports(t *testing.T) {
	dir := t.TempDir()

	t.Run("WriteCSVExport", func(t *testing.T) {
		base := filepath.Join(dir, "talk")
		csvFile, err := WriteCSVExport(sampleIdeas(), base)
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}

		th.AssertFileExists(t, csvFile)
		th.AssertFileExists(t, base+"_ideas.json")

		content := th.MustReadFile(t, csvFile)
		if !strings.Contains(content, "Opening hook") {
			t.Error("CSV file missing idea data")
		}
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		path, err := WriteMarkdownExport("Conference Talk", sampleIdeas(), filepath.Join(dir, "talk.md"))
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.Contains(content, "# Conference Talk") {
			t.Error("Markdown file missing heading")
		}
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		path, err := WriteTextExport("Conference Talk", sampleIdeas(), filepath.Join(dir, "talk.txt"))
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}

		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.Contains(content, "Ideas: 2") {
			t.Error("text file missing idea count")
		}
	})
}
