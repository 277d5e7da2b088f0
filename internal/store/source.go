// Package store provides read-only access to the citizen record
// collection. No mutation API exists here; record writes belong to the
// external registration service.
package store

import (
	"context"

	"github.com/civicpulse/civicpulse/internal/model"
)

// Source is the read-only record accessor consumed by the pipeline.
type Source interface {
	// All returns every citizen record.
	All(ctx context.Context) ([]model.CitizenRecord, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// Answered returns the records with a completed survey.
func Answered(records []model.CitizenRecord) []model.CitizenRecord {
	var out []model.CitizenRecord
	for _, rec := range records {
		if rec.Answered() {
			out = append(out, rec)
		}
	}
	return out
}

// Sent returns the records whose survey message was sent.
func Sent(records []model.CitizenRecord) []model.CitizenRecord {
	var out []model.CitizenRecord
	for _, rec := range records {
		if rec.Sent() {
			out = append(out, rec)
		}
	}
	return out
}

// Clicked returns the records whose survey link was opened.
func Clicked(records []model.CitizenRecord) []model.CitizenRecord {
	var out []model.CitizenRecord
	for _, rec := range records {
		if rec.Clicked() {
			out = append(out, rec)
		}
	}
	return out
}

// ByNeighborhood returns the records registered in the given
// neighborhood (exact match on the stored value).
func ByNeighborhood(records []model.CitizenRecord, neighborhood string) []model.CitizenRecord {
	var out []model.CitizenRecord
	for _, rec := range records {
		if rec.Neighborhood == neighborhood {
			out = append(out, rec)
		}
	}
	return out
}
