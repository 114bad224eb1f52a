package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/johntango/milonga/internal/shared"
)

// stubRoundTripper replays a fixed HTTP response.
type stubRoundTripper struct {
	response *http.Response
	err      error
}

func (s *stubRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return s.response, s.err
}

// chatBody builds the service envelope wrapping a JSON content payload.
func chatBody(t *testing.T, content any) io.ReadCloser {
	t.Helper()
	inner, err := json.Marshal(content)
	if err != nil {
		t.Fatal(err)
	}
	envelope := map[string]any{
		"message": map[string]string{"role": "assistant", "content": string(inner)},
	}
	outer, err := json.Marshal(envelope)
	if err != nil {
		t.Fatal(err)
	}
	return io.NopCloser(bytes.NewReader(outer))
}

func testClient(rt http.RoundTripper) *Client {
	c := NewClient(shared.OracleConfig{BaseURL: "http://oracle.test", Model: "test-model"}, nil)
	c.SetHTTPClient(&http.Client{Transport: rt})
	return c
}

func TestSuggestTracks(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Body: chatBody(t, map[string]any{
			"track_ids": []string{"a", "b"},
			"notes":     "smooth arc",
		}),
	}
	client := testClient(&stubRoundTripper{response: resp})

	got, err := client.SuggestTracks(context.Background(), TrackRequest{Style: "tango", Size: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.TrackIDs) != 2 || got.TrackIDs[0] != "a" {
		t.Errorf("unexpected track ids: %v", got.TrackIDs)
	}
	if got.Notes != "smooth arc" {
		t.Errorf("unexpected notes: %q", got.Notes)
	}
}

func TestSuggestTracksMissingField(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Body:       chatBody(t, map[string]any{"notes": "no ids"}),
	}
	client := testClient(&stubRoundTripper{response: resp})

	_, err := client.SuggestTracks(context.Background(), TrackRequest{Style: "tango", Size: 4})
	if !errors.Is(err, shared.ErrOracleContract) {
		t.Errorf("expected contract violation, got %v", err)
	}
}

func TestSuggestTracksMalformedContent(t *testing.T) {
	envelope := map[string]any{
		"message": map[string]string{"role": "assistant", "content": "not json at all"},
	}
	outer, _ := json.Marshal(envelope)
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(outer)),
	}
	client := testClient(&stubRoundTripper{response: resp})

	_, err := client.SuggestTracks(context.Background(), TrackRequest{Style: "tango", Size: 4})
	if !errors.Is(err, shared.ErrOracleContract) {
		t.Errorf("expected contract violation for malformed content, got %v", err)
	}
}

func TestSuggestTracksServiceError(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusBadGateway,
		Body:       io.NopCloser(bytes.NewReader([]byte("{}"))),
	}
	client := testClient(&stubRoundTripper{response: resp})

	_, err := client.SuggestTracks(context.Background(), TrackRequest{Style: "tango", Size: 4})
	if !errors.Is(err, shared.ErrOracleUnavailable) {
		t.Errorf("expected unavailable error, got %v", err)
	}
}

func TestSuggestOrigins(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Body:       chatBody(t, map[string]any{"origins": []string{"di sarli", "troilo"}}),
	}
	client := testClient(&stubRoundTripper{response: resp})

	origins, err := client.SuggestOrigins(context.Background(), OriginRequest{Style: "tango"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(origins) != 2 || origins[0] != "di sarli" {
		t.Errorf("unexpected origins: %v", origins)
	}
}

func TestSuggestReplacementEmpty(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Body:       chatBody(t, map[string]any{}),
	}
	client := testClient(&stubRoundTripper{response: resp})

	_, err := client.SuggestReplacement(context.Background(), ReplacementRequest{Style: "tango", TopK: 3})
	if !errors.Is(err, shared.ErrOracleContract) {
		t.Errorf("expected contract violation for empty replacement, got %v", err)
	}
}

func TestPromptsCarryContract(t *testing.T) {
	req := TrackRequest{
		Style:            "tango",
		Size:             4,
		RemainingSeconds: 1800,
		Origin:           "carlos di sarli",
		PrevKey:          "8A",
		Candidates:       []Candidate{{ID: "x", Title: "X", Artist: "Y", Duration: 160}},
		UsedIDs:          []string{"used-1"},
	}

	prompt := trackUserPrompt(req)
	for _, want := range []string{"tango", "carlos di sarli", "8A", "used-1", `"x"`} {
		if !bytes.Contains([]byte(prompt), []byte(want)) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
