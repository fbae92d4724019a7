package brag

import (
	"go.uber.org/zap"

	"github.com/aidanlsb/brag/internal/audit"
	"github.com/aidanlsb/brag/internal/model"
	"github.com/aidanlsb/brag/internal/reconcile"
)

// EnsureResult reports whether a document was created.
type EnsureResult struct {
	Document string           `json:"document"`
	Path     string           `json:"path"`
	Status   reconcile.Status `json:"status"`
	Warnings []model.Warning  `json:"-"`
}

// Outline is every section of a document with its entries.
type Outline struct {
	Document string                 `json:"document"`
	Path     string                 `json:"path"`
	Sections []model.SectionEntries `json:"sections"`
}

// Section is one section of a document.
type Section struct {
	Document string `json:"document"`
	model.SectionEntries
}

// EntryResult is the outcome of add, update, or delete.
type EntryResult struct {
	Document string `json:"document"`
	reconcile.Result
}

// RepairResult is the outcome of a repair.
type RepairResult struct {
	Document string `json:"document"`
	reconcile.RepairReport
}

// AddRequest describes a new entry. A nil Position appends.
type AddRequest struct {
	SectionPath string
	Text        string
	Position    *int
}

// EnsureDocument creates the document from the workspace template if it
// does not exist. Calling it again leaves the document byte-for-byte equal.
func (s *Service) EnsureDocument(ref DocumentRef) (EnsureResult, error) {
	d, err := s.resolve(ref)
	if err != nil {
		return EnsureResult{}, err
	}
	if err := requireTemplate(d); err != nil {
		return EnsureResult{}, err
	}
	var res reconcile.EnsureResult
	err = s.withDocument(d, false, func() error {
		res, err = s.engine.EnsureExists(d.target)
		return err
	})
	if err != nil {
		return EnsureResult{}, err
	}
	if res.Status == reconcile.StatusCreated {
		s.record(d, func(h *audit.Logger) error { return h.LogCreate(d.Name) })
	}
	return EnsureResult{Document: d.Name, Path: d.Path, Status: res.Status, Warnings: res.Warnings}, nil
}

// GetOutline returns all sections of the document.
func (s *Service) GetOutline(ref DocumentRef) (Outline, error) {
	d, err := s.resolve(ref)
	if err != nil {
		return Outline{}, err
	}
	var sections []model.SectionEntries
	err = s.withDocument(d, true, func() error {
		sections, err = s.engine.ReadOutline(d.target)
		return err
	})
	if err != nil {
		return Outline{}, err
	}
	return Outline{Document: d.Name, Path: d.Path, Sections: sections}, nil
}

// GetSection returns one section of the document.
func (s *Service) GetSection(ref DocumentRef, sectionPath string) (Section, error) {
	d, err := s.resolve(ref)
	if err != nil {
		return Section{}, err
	}
	var se model.SectionEntries
	err = s.withDocument(d, true, func() error {
		se, err = s.engine.ReadSection(d.target, sectionPath)
		return err
	})
	if err != nil {
		return Section{}, err
	}
	return Section{Document: d.Name, SectionEntries: se}, nil
}

// AddEntry appends or inserts a new entry.
func (s *Service) AddEntry(ref DocumentRef, req AddRequest) (EntryResult, error) {
	d, err := s.resolve(ref)
	if err != nil {
		return EntryResult{}, err
	}
	var res reconcile.Result
	err = s.withDocument(d, true, func() error {
		res, err = s.engine.AddEntry(d.target, req.SectionPath, req.Text, req.Position)
		return err
	})
	if err != nil {
		return EntryResult{}, err
	}
	e := res.Entry
	s.record(d, func(h *audit.Logger) error { return h.LogAdd(d.Name, e.ID, e.SectionPath, e.Text) })
	return EntryResult{Document: d.Name, Result: res}, nil
}

// UpdateEntry changes the text of the selected entry.
func (s *Service) UpdateEntry(ref DocumentRef, sel reconcile.Selector, newText string) (EntryResult, error) {
	d, err := s.resolve(ref)
	if err != nil {
		return EntryResult{}, err
	}
	var res reconcile.Result
	err = s.withDocument(d, true, func() error {
		res, err = s.engine.UpdateEntry(d.target, sel, newText)
		return err
	})
	if err != nil {
		return EntryResult{}, err
	}
	e := res.Entry
	s.record(d, func(h *audit.Logger) error {
		return h.LogUpdate(d.Name, e.ID, e.SectionPath, res.OldText, e.Text, res.Adopted)
	})
	return EntryResult{Document: d.Name, Result: res}, nil
}

// DeleteEntry removes the selected entry and retires its id.
func (s *Service) DeleteEntry(ref DocumentRef, sel reconcile.Selector) (EntryResult, error) {
	d, err := s.resolve(ref)
	if err != nil {
		return EntryResult{}, err
	}
	var res reconcile.Result
	err = s.withDocument(d, true, func() error {
		res, err = s.engine.DeleteEntry(d.target, sel)
		return err
	})
	if err != nil {
		return EntryResult{}, err
	}
	e := res.Entry
	s.record(d, func(h *audit.Logger) error { return h.LogDelete(d.Name, e.ID, e.SectionPath, e.Text) })
	return EntryResult{Document: d.Name, Result: res}, nil
}

// Repair adopts unindexed bullets and reports, or with prune removes,
// index records that match no bullet.
func (s *Service) Repair(ref DocumentRef, prune bool) (RepairResult, error) {
	d, err := s.resolve(ref)
	if err != nil {
		return RepairResult{}, err
	}
	var report reconcile.RepairReport
	err = s.withDocument(d, true, func() error {
		report, err = s.engine.Repair(d.target, prune)
		return err
	})
	if err != nil {
		return RepairResult{}, err
	}

	if len(report.Adopted) > 0 || report.Pruned {
		adopted := make([]string, 0, len(report.Adopted))
		for _, e := range report.Adopted {
			adopted = append(adopted, e.ID)
		}
		var pruned []string
		if report.Pruned {
			for _, e := range report.Orphans {
				pruned = append(pruned, e.ID)
			}
		}
		s.record(d, func(h *audit.Logger) error { return h.LogRepair(d.Name, adopted, pruned) })
	}
	return RepairResult{Document: d.Name, RepairReport: report}, nil
}

// History returns recorded changes of the document, newest first.
func (s *Service) History(ref DocumentRef, f audit.Filter) ([]audit.Entry, error) {
	d, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	h := s.history(d)
	if h == nil {
		s.logger.Debug("history disabled", zap.String("document", d.Name))
		return []audit.Entry{}, nil
	}
	entries, err := h.Recent(d.Name, f)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	return entries, nil
}
