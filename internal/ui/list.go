package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/johntango/milonga/internal/models"
	"github.com/johntango/milonga/internal/shared"
)

var (
	_ list.Item = planItem{}
	_ list.Item = tandaItem{}
	_ list.Item = trackItem{}
)

// planItem wraps [models.SavedPlan] to implement [list.Item].
type planItem struct {
	plan *models.SavedPlan
}

func (i planItem) FilterValue() string { return i.plan.Name() }
func (i planItem) Title() string {
	return fmt.Sprintf("#%d %s", i.plan.Sequence(), i.plan.Name())
}
func (i planItem) Description() string {
	p := i.plan.Plan()
	total := p.TotalSeconds
	if total == 0 {
		total = p.Duration()
	}
	return fmt.Sprintf("%d tandas • %s", len(p.Tandas), shared.FormatDuration(total))
}

// tandaItem wraps [models.Tanda] to implement [list.Item].
type tandaItem struct {
	position int
	tanda    models.Tanda
}

func (i tandaItem) FilterValue() string { return i.tanda.Style }
func (i tandaItem) Title() string {
	title := fmt.Sprintf("%d. %s", i.position+1, i.tanda.Style)
	if i.tanda.Role != "" {
		title = fmt.Sprintf("%s / %s", title, i.tanda.Role)
	}
	return title
}
func (i tandaItem) Description() string {
	return fmt.Sprintf("%d tracks • %s", len(i.tanda.Tracks), shared.FormatDuration(i.tanda.Seconds))
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string {
	if i.track.IsPlaceholder() {
		return "(unresolved)"
	}
	return i.track.Title
}
func (i trackItem) Description() string {
	if i.track.IsPlaceholder() {
		return "no matching track"
	}
	desc := i.track.Artist
	if i.track.Key != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Key)
	}
	return fmt.Sprintf("%s • %s", desc, shared.FormatDuration(i.track.Duration))
}
