// Package brag is the operation boundary for brag documents. It resolves a
// person's name and year to files in a workspace, serializes access per
// document, and records successful changes in the workspace history.
package brag

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aidanlsb/brag/internal/audit"
	"github.com/aidanlsb/brag/internal/filelock"
	"github.com/aidanlsb/brag/internal/model"
	"github.com/aidanlsb/brag/internal/paths"
	"github.com/aidanlsb/brag/internal/reconcile"
)

// DocumentRef names a brag document. An empty WorkspaceRoot selects the
// service's default workspace.
type DocumentRef struct {
	FullName      string `json:"full_name"`
	Year          int    `json:"year"`
	WorkspaceRoot string `json:"workspace_root,omitempty"`
}

// Options configures a Service.
type Options struct {
	// WorkspaceRoot is used when a DocumentRef does not name one.
	WorkspaceRoot string

	// TemplatePath overrides the workspace template location.
	TemplatePath string

	// LockTimeout bounds the wait for another process holding a document.
	LockTimeout time.Duration

	// History receives successful changes. Nil disables history.
	History *audit.Logger

	Engine *reconcile.Engine
	Logger *zap.Logger
}

// Service performs brag document operations.
type Service struct {
	opts   Options
	engine *reconcile.Engine
	logger *zap.Logger
	// histories are per-workspace history loggers, keyed by root, used when a
	// ref overrides the default workspace.
	histories map[string]*audit.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns a service.
func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := opts.Engine
	if engine == nil {
		engine = reconcile.New(logger.Named("reconcile"))
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = filelock.DefaultTimeout
	}
	opts.WorkspaceRoot = paths.ExpandHome(opts.WorkspaceRoot)
	return &Service{
		opts:      opts,
		engine:    engine,
		logger:    logger,
		histories: make(map[string]*audit.Logger),
		locks:     make(map[string]*sync.Mutex),
	}
}

// Close releases the history databases.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	if s.opts.History != nil {
		errs = append(errs, s.opts.History.Close())
	}
	for _, h := range s.histories {
		errs = append(errs, h.Close())
	}
	return errors.Join(errs...)
}

// document is a resolved ref.
type document struct {
	paths.Document
	root   string
	target reconcile.Target
}

func (s *Service) resolve(ref DocumentRef) (document, error) {
	root := ref.WorkspaceRoot
	if root == "" {
		root = s.opts.WorkspaceRoot
	}
	root = paths.ExpandHome(root)
	p, err := paths.Resolve(root, ref.FullName, ref.Year, s.opts.TemplatePath)
	if err != nil {
		return document{}, err
	}
	name, _ := paths.ValidateFullName(ref.FullName)
	return document{
		Document: p,
		root:     root,
		target: reconcile.Target{
			DocumentPath: p.Path,
			IndexPath:    p.Index,
			TemplatePath: p.Template,
			FullName:     name,
			Year:         ref.Year,
		},
	}, nil
}

// pathMutex returns the in-process mutex for a document.
func (s *Service) pathMutex(path string) *sync.Mutex {
	key := paths.Canonical(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	return m
}

// withDocument runs fn while holding both the in-process and the
// cross-process lock of the document.
func (s *Service) withDocument(d document, mustExist bool, fn func() error) error {
	if mustExist {
		if err := requireDocument(d); err != nil {
			return err
		}
	}

	m := s.pathMutex(d.Path)
	m.Lock()
	defer m.Unlock()

	lock, err := filelock.Acquire(d.Lock, s.opts.LockTimeout)
	if err != nil {
		if errors.Is(err, filelock.ErrTimeout) {
			return model.Wrap(model.KindLocked, err, "%s is being modified by another process", d.Name)
		}
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			s.logger.Warn("release lock", zap.String("lock", d.Lock), zap.Error(err))
		}
	}()
	return fn()
}

func requireDocument(d document) error {
	_, err := os.Stat(d.Path)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return model.Errorf(model.KindDocumentNotFound, "%s does not exist; create the document first", d.Name)
	}
	return fmt.Errorf("stat document: %w", err)
}

// requireTemplate fails with TEMPLATE_MISSING when d would have to be created
// and there is no template to create it from. Nothing is written in that case.
func requireTemplate(d document) error {
	if _, err := os.Stat(d.Path); err == nil {
		return nil
	}
	_, err := os.Stat(d.Template)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return model.Errorf(model.KindTemplateMissing, "template not found at %s", d.Template)
	}
	return fmt.Errorf("stat template: %w", err)
}

// history returns the logger for the workspace of d, or nil.
func (s *Service) history(d document) *audit.Logger {
	if s.opts.History == nil || !s.opts.History.Enabled() {
		return nil
	}
	if d.root == s.opts.WorkspaceRoot {
		return s.opts.History
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[d.root]
	if !ok {
		h = audit.New(d.root, true)
		s.histories[d.root] = h
	}
	return h
}

// record writes to history. Failures are logged only.
func (s *Service) record(d document, write func(h *audit.Logger) error) {
	h := s.history(d)
	if h == nil {
		return
	}
	if err := write(h); err != nil {
		s.logger.Warn("history write failed", zap.String("document", d.Name), zap.Error(err))
	}
}
