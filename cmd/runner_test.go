package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/johntango/milonga/internal/library"
	"github.com/johntango/milonga/internal/models"
	"github.com/johntango/milonga/internal/oracle"
	"github.com/johntango/milonga/internal/shared"
	tu "github.com/johntango/milonga/internal/testing"
	"github.com/urfave/cli/v3"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			mock := &tu.MockOracle{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Oracle:     mock,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.oracle != mock {
				t.Error("expected oracle to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
			t.Fatalf("writeJSON failed: %v", err)
		}
		if got := output.String(); got != "{\"key\":\"value\"}\n" {
			t.Errorf("unexpected output: %s", got)
		}

		output.Reset()
		if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
			t.Fatalf("writeJSON pretty failed: %v", err)
		}
		if !strings.Contains(output.String(), "  \"key\": \"value\"") {
			t.Errorf("expected indented output, got: %s", output.String())
		}
	})

	t.Run("writeJSON with failing writer", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

		if err := runner.writeJSON(map[string]string{"key": "value"}, false); err == nil {
			t.Error("expected write error")
		}
	})

	t.Run("writeJSON with writer that fails on newline", func(t *testing.T) {
		output := &bytes.Buffer{}
		limited := tu.NewLimitedWriter(1, 0, output)
		runner := NewRunner(RunnerOpts{Output: &limited})

		if err := runner.writeJSON(map[string]string{"key": "value"}, false); err == nil {
			t.Error("expected write error on newline")
		}
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("count: %d\n", 3); err != nil {
			t.Fatalf("writePlain failed: %v", err)
		}
		if output.String() != "count: 3\n" {
			t.Errorf("unexpected output: %s", output.String())
		}
	})
}

// writeTestLibrary writes a small library JSON and returns its path.
func writeTestLibrary(t *testing.T, dir string) string {
	t.Helper()

	tracks := []models.Track{
		{ID: "tango/disarli/one.mp3", Title: "Bahía Blanca", Artist: "Carlos Di Sarli", Year: 1943, Styles: []string{"tango"}, Duration: 170, Key: "8A", BPM: 118},
		{ID: "tango/disarli/two.mp3", Title: "El Recodo", Artist: "Carlos Di Sarli", Year: 1944, Styles: []string{"tango"}, Duration: 165, Key: "8B", BPM: 120},
		{ID: "tango/disarli/three.mp3", Title: "A La Gran Muñeca", Artist: "Carlos Di Sarli", Year: 1945, Styles: []string{"tango"}, Duration: 175, Key: "9A", BPM: 122},
		{ID: "tango/disarli/four.mp3", Title: "Organito de la Tarde", Artist: "Carlos Di Sarli", Year: 1944, Styles: []string{"tango"}, Duration: 168, Key: "8A", BPM: 119},
		{ID: "cortinas/jazz.mp3", Title: "Take Five", Artist: "Dave Brubeck", Styles: []string{"cortina"}, Duration: 30},
	}

	path := filepath.Join(dir, "library.json")
	if err := library.Write(path, tracks); err != nil {
		t.Fatalf("failed to write library fixture: %v", err)
	}
	return path
}

// testApp builds the CLI rooted at a runner wired for a temp workspace.
func testApp(t *testing.T, mock *tu.MockOracle) (*cli.Command, *bytes.Buffer) {
	t.Helper()

	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Library.Path = writeTestLibrary(t, dir)
	config.Database.Path = filepath.Join(dir, "milonga.db")
	config.Plan.Minutes = 30
	config.Plan.CortinaSeconds = 45

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		Oracle: mock,
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: output,
	})
	t.Cleanup(func() {
		if runner.db != nil {
			runner.db.Close()
		}
	})

	app := &cli.Command{
		Name:     "milonga",
		Commands: runner.register(),
	}
	return app, output
}

func fillOracle() *tu.MockOracle {
	return &tu.MockOracle{
		OriginResponses: [][]string{{"Carlos Di Sarli"}},
		TrackFn: func(req oracle.TrackRequest) (*oracle.TrackResponse, error) {
			ids := make([]string, 0, req.Size)
			for _, c := range req.Candidates {
				ids = append(ids, c.ID)
				if len(ids) == req.Size {
					break
				}
			}
			return &oracle.TrackResponse{TrackIDs: ids}, nil
		},
	}
}

func TestPlanCommand(t *testing.T) {
	t.Run("streams NDJSON events", func(t *testing.T) {
		app, output := testApp(t, fillOracle())

		err := app.Run(context.Background(), []string{"milonga", "plan", "--minutes", "30", "--style", "tango", "--json"})
		if err != nil {
			t.Fatalf("plan failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(output.String()), "\n")
		if len(lines) < 2 {
			t.Fatalf("expected multiple event lines, got: %s", output.String())
		}

		var first, last struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
			t.Fatalf("first line is not JSON: %v", err)
		}
		if err := json.Unmarshal([]byte(lines[len(lines)-1]), &last); err != nil {
			t.Fatalf("last line is not JSON: %v", err)
		}
		if first.Type != "start" {
			t.Errorf("expected start event first, got %s", first.Type)
		}
		if last.Type != "done" {
			t.Errorf("expected done event last, got %s", last.Type)
		}
	})

	t.Run("renders human output", func(t *testing.T) {
		app, output := testApp(t, fillOracle())

		err := app.Run(context.Background(), []string{"milonga", "plan", "--minutes", "30", "--style", "tango"})
		if err != nil {
			t.Fatalf("plan failed: %v", err)
		}

		got := output.String()
		if !strings.Contains(got, "Planning 1 tandas over 30 minutes") {
			t.Errorf("missing start line, got: %s", got)
		}
		if !strings.Contains(got, "Plan Complete") {
			t.Errorf("missing completion header")
		}
		if !strings.Contains(got, "Carlos Di Sarli") {
			t.Errorf("missing timeline content")
		}
	})

	t.Run("saves and lists plans", func(t *testing.T) {
		app, output := testApp(t, fillOracle())

		err := app.Run(context.Background(), []string{"milonga", "plan", "--minutes", "30", "--style", "tango", "--save", "test evening"})
		if err != nil {
			t.Fatalf("plan --save failed: %v", err)
		}
		if !strings.Contains(output.String(), "Saved as #1 test evening") {
			t.Errorf("missing save confirmation, got: %s", output.String())
		}

		output.Reset()
		if err := app.Run(context.Background(), []string{"milonga", "plans", "list"}); err != nil {
			t.Fatalf("plans list failed: %v", err)
		}
		if !strings.Contains(output.String(), "test evening") {
			t.Errorf("saved plan missing from listing, got: %s", output.String())
		}

		output.Reset()
		if err := app.Run(context.Background(), []string{"milonga", "plans", "show", "1"}); err != nil {
			t.Fatalf("plans show failed: %v", err)
		}
		if !strings.Contains(output.String(), "#1 test evening") {
			t.Errorf("plans show missing header, got: %s", output.String())
		}
	})

	t.Run("exports to file", func(t *testing.T) {
		app, output := testApp(t, fillOracle())
		exportPath := filepath.Join(t.TempDir(), "plan.md")

		err := app.Run(context.Background(), []string{"milonga", "plan", "--minutes", "30", "--style", "tango", "--export", exportPath, "--format", "markdown"})
		if err != nil {
			t.Fatalf("plan --export failed: %v", err)
		}
		if !strings.Contains(output.String(), "Exported to "+exportPath) {
			t.Errorf("missing export confirmation")
		}

		tu.AssertFileExists(t, exportPath)
		data, err := os.ReadFile(exportPath)
		if err != nil {
			t.Fatalf("export file missing: %v", err)
		}
		if !strings.Contains(string(data), "## 1. Tango") {
			t.Errorf("export file missing tanda heading, got: %s", data)
		}
	})
}

func TestReplaceCommand(t *testing.T) {
	mock := &tu.MockOracle{
		ReplaceResponse: &oracle.ReplacementResponse{Primary: "tango/disarli/two.mp3"},
	}
	app, output := testApp(t, mock)

	err := app.Run(context.Background(), []string{
		"milonga", "replace",
		"--style", "tango",
		"--avoid", "tango/disarli/one.mp3",
		"--top", "2",
	})
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	got := output.String()
	if !strings.Contains(got, "El Recodo") {
		t.Errorf("missing replacement pick, got: %s", got)
	}
	if strings.Contains(got, "Bahía Blanca") {
		t.Errorf("avoided track came back: %s", got)
	}
}

func TestLibraryCommands(t *testing.T) {
	t.Run("styles", func(t *testing.T) {
		app, output := testApp(t, &tu.MockOracle{})

		if err := app.Run(context.Background(), []string{"milonga", "library", "styles"}); err != nil {
			t.Fatalf("library styles failed: %v", err)
		}
		got := output.String()
		if !strings.Contains(got, "Library: 5 tracks") {
			t.Errorf("missing header, got: %s", got)
		}
		if !strings.Contains(got, "tango") || !strings.Contains(got, "cortina") {
			t.Errorf("missing style rows, got: %s", got)
		}
	})

	t.Run("reload unchanged", func(t *testing.T) {
		app, output := testApp(t, &tu.MockOracle{})

		if err := app.Run(context.Background(), []string{"milonga", "library", "reload"}); err != nil {
			t.Fatalf("library reload failed: %v", err)
		}
		if !strings.Contains(output.String(), "Library unchanged") {
			t.Errorf("expected unchanged message, got: %s", output.String())
		}
	})
}
