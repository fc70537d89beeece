// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for video processing:
//  1. [TrackingView] : Live pipeline progress with stage, percent, and status message
//  2. [IdeasView] : Browse the ranked ideas once processing completes
//  3. [ErrorView] : Display the failure and offer a retry
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// State updates flow through a channel from the tracker engine, so both the websocket and polling channels drive the same render path.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
