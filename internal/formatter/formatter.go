// package formatter renders assembled plans to display and export formats (timeline, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/johntango/milonga/internal/models"
	"github.com/johntango/milonga/internal/shared"
)

// Timeline renders the plan as a numbered run-through: one line per tanda
// with its tracks, interleaved with the cortinas that follow them.
func Timeline(plan models.Plan) string {
	var buf bytes.Buffer

	for i, tanda := range plan.Tandas {
		role := ""
		if tanda.Role != "" {
			role = fmt.Sprintf(" / %s", tanda.Role)
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s [%s]\n", i+1, tanda.Style, role, shared.FormatDuration(tanda.Seconds)))
		for _, track := range tanda.Tracks {
			if track.IsPlaceholder() {
				buf.WriteString("     - (unresolved)\n")
				continue
			}
			buf.WriteString(fmt.Sprintf("     - %s - %s [%s]\n", track.Artist, track.Title, shared.FormatDuration(track.Duration)))
		}
		if i < len(plan.Cortinas) {
			c := plan.Cortinas[i]
			buf.WriteString(fmt.Sprintf("   ~ cortina: %s [%s]\n", c.Title, shared.FormatDuration(c.Duration)))
		}
	}

	return buf.String()
}

// Summary renders a one-paragraph account of the plan: counts, total
// duration, and any warnings.
func Summary(plan models.Plan) string {
	total := plan.TotalSeconds
	if total == 0 {
		total = plan.Duration()
	}

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("%d tandas, %d cortinas, %s total",
		len(plan.Tandas), len(plan.Cortinas), shared.FormatDuration(total)))

	placeholders := 0
	for _, tanda := range plan.Tandas {
		placeholders += len(tanda.Tracks) - tanda.RealCount()
	}
	if placeholders > 0 {
		buf.WriteString(fmt.Sprintf(", %d unresolved positions", placeholders))
	}
	if len(plan.Warnings) > 0 {
		buf.WriteString("\nWarnings:\n")
		for _, w := range plan.Warnings {
			buf.WriteString(fmt.Sprintf("  - %s\n", w))
		}
	}
	return buf.String()
}

// ExportToCSV converts a plan to CSV format with columns: Position, Kind, Style, Role, Title, Artist, Key, BPM, Duration
func ExportToCSV(plan models.Plan) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Kind", "Style", "Role", "Title", "Artist", "Key", "BPM", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	position := 0
	for i, tanda := range plan.Tandas {
		for _, track := range tanda.Tracks {
			position++
			bpm := ""
			if track.BPM > 0 {
				bpm = strconv.FormatFloat(track.BPM, 'f', -1, 64)
			}
			record := []string{
				strconv.Itoa(position),
				"track",
				tanda.Style,
				tanda.Role,
				track.Title,
				track.Artist,
				track.Key,
				bpm,
				strconv.Itoa(track.Duration),
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		if i < len(plan.Cortinas) {
			position++
			c := plan.Cortinas[i]
			record := []string{
				strconv.Itoa(position),
				"cortina",
				"",
				"",
				c.Title,
				c.Artist,
				"",
				"",
				strconv.Itoa(c.Duration),
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a plan to Markdown format under the given title
func ExportToMarkdown(plan models.Plan, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Milonga plan"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))

	total := plan.TotalSeconds
	if total == 0 {
		total = plan.Duration()
	}
	buf.WriteString(fmt.Sprintf("**Tandas**: %d\n", len(plan.Tandas)))
	buf.WriteString(fmt.Sprintf("**Duration**: %s\n\n", shared.FormatDuration(total)))

	for i, tanda := range plan.Tandas {
		heading := capitalize(tanda.Style)
		if tanda.Role != "" {
			heading += fmt.Sprintf(" (%s)", tanda.Role)
		}
		buf.WriteString(fmt.Sprintf("## %d. %s\n\n", i+1, heading))
		for j, track := range tanda.Tracks {
			if track.IsPlaceholder() {
				buf.WriteString(fmt.Sprintf("%d. _(unresolved)_\n", j+1))
				continue
			}
			buf.WriteString(fmt.Sprintf("%d. %s - %s [%s]\n", j+1, track.Artist, track.Title, shared.FormatDuration(track.Duration)))
		}
		if i < len(plan.Cortinas) {
			buf.WriteString(fmt.Sprintf("\n_Cortina: %s [%s]_\n", plan.Cortinas[i].Title, shared.FormatDuration(plan.Cortinas[i].Duration)))
		}
		buf.WriteString("\n")
	}

	if len(plan.Warnings) > 0 {
		buf.WriteString("## Warnings\n\n")
		for _, w := range plan.Warnings {
			buf.WriteString(fmt.Sprintf("- %s\n", w))
		}
	}

	return buf.Bytes(), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ExportToText converts a plan to plain text format
func ExportToText(plan models.Plan) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(Timeline(plan))
	buf.WriteString("\n")
	buf.WriteString(Summary(plan))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// WriteExport writes a plan in the requested format ("csv", "markdown", or
// "text") to path and returns the path written.
func WriteExport(plan models.Plan, format, path, title string) (string, error) {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(format) {
	case "csv":
		data, err = ExportToCSV(plan)
	case "markdown", "md":
		data, err = ExportToMarkdown(plan, title)
	case "text", "txt", "":
		data, err = ExportToText(plan)
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}
