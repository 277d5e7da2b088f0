package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/civicpulse/civicpulse/internal/model"
)

func timePtr(t time.Time) *time.Time { return &t }

func fixtureRecords() []model.CitizenRecord {
	now := time.Now()
	return []model.CitizenRecord{
		{ID: "1", Name: "João da Silva", Neighborhood: "Centro",
			SentAt: timePtr(now), ClickedAt: timePtr(now),
			Survey: &model.SurveyResponse{Satisfaction: model.SatisfactionHigh, AnsweredAt: timePtr(now)}},
		{ID: "2", Name: "Maria Oliveira", Neighborhood: "Jardim",
			SentAt: timePtr(now)},
		{ID: "3", Name: "Ana Clara Souza", Neighborhood: "Centro"},
	}
}

func TestMemorySource_LoadsJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citizens.json")
	payload := `[
		{"id": "1", "name": "João da Silva", "neighborhood": "Centro"},
		{"id": "2", "name": "Maria Oliveira", "neighborhood": "Jardim",
		 "survey": {"satisfaction": "Satisfeito", "answered_at": "2026-07-01T10:00:00Z"}}
	]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := NewMemorySource(path)
	if err != nil {
		t.Fatalf("NewMemorySource: %v", err)
	}
	defer func() { _ = src.Close(context.Background()) }()

	records, err := src.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].Name != "João da Silva" {
		t.Errorf("name = %q", records[0].Name)
	}
	if !records[1].Answered() {
		t.Error("second record must count as answered")
	}
}

func TestMemorySource_Errors(t *testing.T) {
	if _, err := NewMemorySource(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file must error")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewMemorySource(path); err == nil {
		t.Error("malformed file must error")
	}
}

func TestMemorySource_AllReturnsCopy(t *testing.T) {
	src := NewMemorySourceFromRecords(fixtureRecords())

	first, err := src.All(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	first[0].Name = "mutated"

	second, err := src.All(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if second[0].Name != "João da Silva" {
		t.Error("mutating a returned slice must not affect the source")
	}
}

func TestHelperSlices(t *testing.T) {
	records := fixtureRecords()

	if got := len(Answered(records)); got != 1 {
		t.Errorf("answered = %d, want 1", got)
	}
	if got := len(Sent(records)); got != 2 {
		t.Errorf("sent = %d, want 2", got)
	}
	if got := len(Clicked(records)); got != 1 {
		t.Errorf("clicked = %d, want 1", got)
	}
	if got := len(ByNeighborhood(records, "Centro")); got != 2 {
		t.Errorf("centro = %d, want 2", got)
	}
	if got := len(ByNeighborhood(records, "Vila Nova")); got != 0 {
		t.Errorf("vila nova = %d, want 0", got)
	}
}

func TestNewSource_UnknownBackend(t *testing.T) {
	_, err := NewSource(context.Background(), model.StoreConfig{Backend: "redis"})
	if err == nil {
		t.Fatal("unknown backend must error")
	}
}
