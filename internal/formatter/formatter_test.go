package formatter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/johntango/milonga/internal/models"
	"github.com/johntango/milonga/internal/shared"
)

func fixturePlan() models.Plan {
	return models.Plan{
		Tandas: []models.Tanda{
			{
				Style: "tango",
				Role:  "classic",
				Tracks: []models.Track{
					{ID: "tango/disarli/bahia.mp3", Title: "Bahía Blanca", Artist: "Carlos Di Sarli", Key: "8A", BPM: 118, Duration: 170},
					{ID: "tango/disarli/recodo.mp3", Title: "El Recodo", Artist: "Carlos Di Sarli", Key: "8B", BPM: 120, Duration: 165},
				},
				Seconds: 335,
			},
			{
				Style: "vals",
				Role:  "rich",
				Tracks: []models.Track{
					{ID: "vals/disarli/acuarelas.mp3", Title: "Acuarelas", Artist: "Carlos Di Sarli", Key: "5A", Duration: 160},
					models.Placeholder(),
				},
				Seconds: 160,
			},
		},
		Cortinas: []models.Cortina{
			{ID: "cortinas/jazz.mp3", Title: "Take Five", Artist: "Dave Brubeck", Duration: 30},
		},
		Warnings:     []string{"oracle filled 1 of 2 positions"},
		TotalSeconds: 525,
	}
}

func TestTimeline(t *testing.T) {
	output := Timeline(fixturePlan())

	if !strings.Contains(output, "1. tango / classic [5:35]") {
		t.Errorf("timeline missing first tanda heading, got: %s", output)
	}
	if !strings.Contains(output, "- Carlos Di Sarli - Bahía Blanca [2:50]") {
		t.Errorf("timeline missing first track")
	}
	if !strings.Contains(output, "~ cortina: Take Five [0:30]") {
		t.Errorf("timeline missing cortina line")
	}
	if !strings.Contains(output, "2. vals / rich [2:40]") {
		t.Errorf("timeline missing second tanda heading")
	}
	if !strings.Contains(output, "- (unresolved)") {
		t.Errorf("timeline missing placeholder marker")
	}
	if strings.Count(output, "~ cortina:") != 1 {
		t.Errorf("expected exactly one cortina line, got: %s", output)
	}
}

func TestSummary(t *testing.T) {
	output := Summary(fixturePlan())

	if !strings.Contains(output, "2 tandas, 1 cortinas, 8:45 total") {
		t.Errorf("summary missing counts, got: %s", output)
	}
	if !strings.Contains(output, "1 unresolved positions") {
		t.Errorf("summary missing unresolved count")
	}
	if !strings.Contains(output, "oracle filled 1 of 2 positions") {
		t.Errorf("summary missing warning")
	}

	t.Run("recomputes total when unset", func(t *testing.T) {
		plan := fixturePlan()
		plan.TotalSeconds = 0
		if !strings.Contains(Summary(plan), "8:45 total") {
			t.Errorf("summary should fall back to recomputed duration")
		}
	})
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(fixturePlan())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Position,Kind,Style,Role,Title,Artist,Key,BPM,Duration") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "1,track,tango,classic,Bahía Blanca,Carlos Di Sarli,8A,118,170") {
			t.Errorf("CSV missing first track row, got: %s", output)
		}
		if !strings.Contains(output, "3,cortina,,,Take Five,Dave Brubeck,,,30") {
			t.Errorf("CSV missing cortina row, got: %s", output)
		}
		// Placeholder rows keep the position sequence but carry no BPM.
		if !strings.Contains(output, "5,track,vals,rich,(unresolved)") {
			t.Errorf("CSV missing placeholder row, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(fixturePlan(), "Saturday Practica")
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "# Saturday Practica") {
			t.Errorf("Markdown missing title")
		}
		if !strings.Contains(output, "**Tandas**: 2") {
			t.Errorf("Markdown missing tanda count")
		}
		if !strings.Contains(output, "**Duration**: 8:45") {
			t.Errorf("Markdown missing duration")
		}
		if !strings.Contains(output, "## 1. Tango (classic)") {
			t.Errorf("Markdown missing tanda heading, got: %s", output)
		}
		if !strings.Contains(output, "1. Carlos Di Sarli - Bahía Blanca [2:50]") {
			t.Errorf("Markdown missing track line")
		}
		if !strings.Contains(output, "_Cortina: Take Five [0:30]_") {
			t.Errorf("Markdown missing cortina line")
		}
		if !strings.Contains(output, "2. _(unresolved)_") {
			t.Errorf("Markdown missing placeholder line")
		}
		if !strings.Contains(output, "## Warnings") {
			t.Errorf("Markdown missing warnings section")
		}
	})

	t.Run("ExportToMarkdown default title", func(t *testing.T) {
		data, err := ExportToMarkdown(fixturePlan(), "")
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		if !strings.Contains(string(data), "# Milonga plan") {
			t.Errorf("Markdown missing default title")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(fixturePlan())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "1. tango / classic") {
			t.Errorf("Text missing timeline")
		}
		if !strings.Contains(output, "2 tandas, 1 cortinas") {
			t.Errorf("Text missing summary")
		}
	})
}

func TestWriteExport(t *testing.T) {
	dir := t.TempDir()

	t.Run("writes the requested format", func(t *testing.T) {
		path := filepath.Join(dir, "plan.csv")
		written, err := WriteExport(fixturePlan(), "csv", path, "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if written != path {
			t.Errorf("expected path %s, got %s", path, written)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading export failed: %v", err)
		}
		if !strings.Contains(string(data), "Position,Kind") {
			t.Errorf("export file missing CSV content")
		}
	})

	t.Run("empty format defaults to text", func(t *testing.T) {
		path := filepath.Join(dir, "plan.txt")
		if _, err := WriteExport(fixturePlan(), "", path, ""); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		data, _ := os.ReadFile(path)
		if !strings.Contains(string(data), "2 tandas") {
			t.Errorf("text export missing summary")
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := WriteExport(fixturePlan(), "xml", filepath.Join(dir, "plan.xml"), "")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
