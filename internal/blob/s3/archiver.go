package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/driesv/contrascan/internal/domain"
	"github.com/driesv/contrascan/internal/screener"
)

// RunRecord is everything worth keeping from one scan run. Archival is
// write-only: the scanner never reads a record back, so each run stays
// stateless.
type RunRecord struct {
	RunID         string
	Timestamp     time.Time
	ActiveMarkets int
	Stats         screener.Stats
	Candidates    []domain.Candidate
	Report        string
}

// RunArchiver serialises one RunRecord per run to JSON and uploads it to
// object storage under runs/<date>/<run-id>.json.
type RunArchiver struct {
	writer domain.BlobWriter
}

// NewRunArchiver creates a RunArchiver that uploads via the given writer.
func NewRunArchiver(writer domain.BlobWriter) *RunArchiver {
	return &RunArchiver{writer: writer}
}

// ArchiveRun uploads the record and returns the object key it was stored
// under.
func (a *RunArchiver) ArchiveRun(ctx context.Context, rec RunRecord) (string, error) {
	doc := archivedRun{
		RunID:         rec.RunID,
		Timestamp:     rec.Timestamp.UTC(),
		ActiveMarkets: rec.ActiveMarkets,
		Stats: archivedStats{
			Considered:     rec.Stats.Considered,
			NoSides:        rec.Stats.NoSides,
			NoMidpoint:     rec.Stats.NoMidpoint,
			BelowLiquidity: rec.Stats.BelowLiquidity,
			BelowVolume:    rec.Stats.BelowVolume,
			MidRange:       rec.Stats.MidRange,
			Candidates:     rec.Stats.Candidates,
		},
		Report: rec.Report,
	}
	for _, c := range rec.Candidates {
		doc.Candidates = append(doc.Candidates, archivedCandidate{
			ConditionID:    c.ConditionID,
			Slug:           c.Slug,
			Side:           string(c.Side),
			EntryPrice:     c.EntryPrice,
			PayoffMultiple: c.PayoffMultiple,
			Liquidity:      c.Liquidity,
			Volume:         c.Volume,
			YesMid:         c.YesMid,
			NoMid:          c.NoMid,
		})
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("s3blob: marshal run record: %w", err)
	}

	key := fmt.Sprintf("runs/%s/%s.json",
		rec.Timestamp.UTC().Format("2006-01-02"), rec.RunID)

	if err := a.writer.Put(ctx, key, bytes.NewReader(payload), "application/json"); err != nil {
		return "", fmt.Errorf("s3blob: archive run %s: %w", rec.RunID, err)
	}
	return key, nil
}

// ---------------------------------------------------------------------------
// Archive document DTOs. The domain types stay tag-free; the wire shape of
// the archive is pinned here instead.
// ---------------------------------------------------------------------------

type archivedRun struct {
	RunID         string              `json:"run_id"`
	Timestamp     time.Time           `json:"timestamp"`
	ActiveMarkets int                 `json:"active_markets"`
	Stats         archivedStats       `json:"stats"`
	Candidates    []archivedCandidate `json:"candidates,omitempty"`
	Report        string              `json:"report"`
}

type archivedStats struct {
	Considered     int `json:"considered"`
	NoSides        int `json:"no_sides"`
	NoMidpoint     int `json:"no_midpoint"`
	BelowLiquidity int `json:"below_liquidity"`
	BelowVolume    int `json:"below_volume"`
	MidRange       int `json:"mid_range"`
	Candidates     int `json:"candidates"`
}

type archivedCandidate struct {
	ConditionID    string  `json:"condition_id"`
	Slug           string  `json:"slug,omitempty"`
	Side           string  `json:"side"`
	EntryPrice     float64 `json:"entry_price"`
	PayoffMultiple float64 `json:"payoff_multiple"`
	Liquidity      float64 `json:"liquidity"`
	Volume         float64 `json:"volume"`
	YesMid         float64 `json:"yes_mid"`
	NoMid          float64 `json:"no_mid"`
}
