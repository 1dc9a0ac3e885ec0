// Package ui implements the terminal interface for an export using bubbletea's Elm architecture.
//
// The [Model] moves through three views:
//  1. [ReviewView] : browse the parsed track list and confirm
//  2. [ExportView] : follow progress updates from the [tasks.Exporter]
//  3. [ResultView] : the playlist link and the tracks that were not found
//
// Progress updates flow through a channel owned by the model. The exporter never blocks on it.
package ui
