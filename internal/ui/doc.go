// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow around assembled plans:
//  1. [PlanListView] : Browse saved plans
//  2. [TandaListView] : Inspect a plan's tandas
//  3. [TrackListView] : Inspect one tanda's tracks
//  4. [GenerateView] : Watch a live generation run
//  5. [ResultView] : Review the finished plan
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Generation events flow through a channel from the assembler, providing
// non-blocking status reporting while a plan is built.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, g, r, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
