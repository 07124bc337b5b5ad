// Package repository keeps the process-lifetime history of the analyzer:
// activity updates, team stat changes, analyses and the last stats seen per
// team.
package repository

import (
	"context"

	"github.com/okian/mlbedge/internal/domain/model"
)

// Counts summarises what the store holds.
type Counts struct {
	Updates     int `json:"updates"`
	StatChanges int `json:"stat_changes"`
	Analyses    int `json:"analyses"`
	Teams       int `json:"teams"`
}

// Store provides read/write access to the history. List methods return
// newest first; a zero limit means everything retained.
type Store interface {
	AddUpdate(ctx context.Context, u model.UpdateEntry) error
	AddStatChanges(ctx context.Context, changes []model.StatChange) error
	SaveAnalysis(ctx context.Context, a model.AnalysisResult) error

	// Analysis returns ErrNotFound for unknown or evicted IDs.
	Analysis(ctx context.Context, id string) (model.AnalysisResult, error)

	Updates(ctx context.Context, limit int) ([]model.UpdateEntry, error)
	StatChanges(ctx context.Context, limit int) ([]model.StatChange, error)
	Analyses(ctx context.Context, limit int) ([]model.AnalysisResult, error)

	// SwapTeamStats stores current and returns the previous snapshot for the
	// same team, if any.
	SwapTeamStats(ctx context.Context, current model.TeamSeasonStats) (model.TeamSeasonStats, bool)

	Count(ctx context.Context) Counts
}
