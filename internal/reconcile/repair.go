package reconcile

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aidanlsb/brag/internal/index"
	"github.com/aidanlsb/brag/internal/model"
	"github.com/aidanlsb/brag/internal/sections"
)

// RepairReport describes what Repair found and changed.
type RepairReport struct {
	// Adopted are bullets that had no record and were given a fresh id.
	Adopted []model.Entry `json:"adopted"`

	// Orphans are records whose text matches no bullet. Their Position is -1.
	Orphans []model.Entry `json:"orphans"`

	// Pruned is set when orphans were removed from the index.
	Pruned bool `json:"pruned"`
}

// Repair brings the index back in line with the document. Unindexed bullets
// are adopted. Orphan records are reported, and retired when prune is set.
// The document itself is never modified.
func (e *Engine) Repair(t Target, prune bool) (RepairReport, error) {
	doc, set, err := e.load(t)
	if err != nil {
		return RepairReport{}, err
	}
	report := RepairReport{Adopted: []model.Entry{}, Orphans: []model.Entry{}}
	now := e.now()

	for _, desc := range sections.All() {
		records := set.InSection(desc.Path)
		matched := make(map[string]bool)

		h, err := doc.LocateSection(desc.Path)
		switch {
		case errors.Is(err, model.ErrSectionNotFound):
			e.logger().Debug("section missing, its records are orphans", zap.String("section", desc.Path))
		case err != nil:
			return RepairReport{}, err
		default:
			bullets, err := doc.ListBullets(h)
			if err != nil {
				return RepairReport{}, err
			}
			ids := matchIDs(bullets, records)
			for i, b := range bullets {
				if ids[i] != "" {
					matched[ids[i]] = true
					continue
				}
				id, err := e.freshID(set)
				if err != nil {
					return RepairReport{}, err
				}
				set.Upsert(id, desc.Path, b.Text, now, now)
				report.Adopted = append(report.Adopted, entryFor(id, desc.Path, b.Text, b.Position, now, now))
			}
		}

		for _, r := range records {
			if !matched[r.ID] {
				report.Orphans = append(report.Orphans, entryFor(r.ID, r.SectionPath, r.Text, -1, r.CreatedAt, r.UpdatedAt))
			}
		}
	}

	if prune {
		for _, o := range report.Orphans {
			set.Remove(o.ID)
		}
		report.Pruned = len(report.Orphans) > 0
	}

	if len(report.Adopted) > 0 || report.Pruned {
		if err := e.saveRepaired(t, set, now); err != nil {
			return RepairReport{}, err
		}
	}
	e.logger().Info("repaired index",
		zap.Int("adopted", len(report.Adopted)),
		zap.Int("orphans", len(report.Orphans)),
		zap.Bool("pruned", report.Pruned))
	return report, nil
}

func (e *Engine) saveRepaired(t Target, set *index.RecordSet, now time.Time) error {
	set.Touch(now)
	if err := index.Save(t.IndexPath, set); err != nil {
		return fmt.Errorf("save repaired index: %w", err)
	}
	return nil
}
