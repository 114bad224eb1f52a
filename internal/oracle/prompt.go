package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

const trackSystemPrompt = `You are a milonga DJ assistant selecting tracks for one tanda.

Rules:
Use ONLY ids from the candidate list; any other id is discarded.
Never pick an id from the used list.
Prefer harmonic keys near the previous key and a consistent tempo arc.
Keep the total duration within the remaining seconds.
Return ONLY a JSON object: {"track_ids": ["id", ...], "notes": "short reason"}.
The track_ids array must contain exactly the requested number of ids when possible, ordered for playback.`

const originSystemPrompt = `You are a milonga DJ assistant choosing which orchestra should play the next tanda.

Rules:
Rank ONLY names from the options list.
Favor variety: avoid the recently played origins unless nothing else has enough tracks.
Favor origins whose available count comfortably covers a full tanda.
Return ONLY a JSON object: {"origins": ["name", ...]} ranked best first.`

const replacementSystemPrompt = `You are a milonga DJ assistant replacing a single track inside a tanda.

Rules:
Use ONLY ids from the candidate list.
The replacement must sit smoothly between the given neighbor keys.
Return ONLY a JSON object: {"primary": "id", "alternates": ["id", ...]}.`

func trackUserPrompt(req TrackRequest) string {
	var b strings.Builder

	origin := req.Origin
	if origin == "" {
		origin = "any"
	}
	fmt.Fprintf(&b, "Fill a %s tanda: %d tracks, origin %s, %d seconds remaining.\n",
		req.Style, req.Size, origin, req.RemainingSeconds)
	if req.Role != "" {
		fmt.Fprintf(&b, "Era role: %s.\n", req.Role)
	}
	if req.PrevKey != "" {
		fmt.Fprintf(&b, "Previous tanda ended in key %s.\n", req.PrevKey)
	}
	if len(req.UsedIDs) > 0 {
		fmt.Fprintf(&b, "Already used ids (never pick these): %s\n", asJSON(req.UsedIDs))
	}
	fmt.Fprintf(&b, "Candidates: %s\n", asJSON(req.Candidates))

	return b.String()
}

func originUserPrompt(req OriginRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Choose origins for the next %s tanda.\n", req.Style)
	if req.PrevKey != "" {
		fmt.Fprintf(&b, "Previous tanda ended in key %s.\n", req.PrevKey)
	}
	if len(req.Recent) > 0 {
		fmt.Fprintf(&b, "Recently played origins: %s\n", asJSON(req.Recent))
	}
	fmt.Fprintf(&b, "Options: %s\n", asJSON(req.Options))

	return b.String()
}

func replacementUserPrompt(req ReplacementRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Replace one %s track. Return the best pick plus up to %d alternates.\n",
		req.Style, req.TopK)
	if req.PrevKey != "" {
		fmt.Fprintf(&b, "Preceding neighbor key: %s.\n", req.PrevKey)
	}
	if req.NextKey != "" {
		fmt.Fprintf(&b, "Following neighbor key: %s.\n", req.NextKey)
	}
	fmt.Fprintf(&b, "Candidates: %s\n", asJSON(req.Candidates))

	return b.String()
}

func asJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}
