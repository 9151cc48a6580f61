package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"pidcore/internal/blob"
	"pidcore/internal/codec"
	"pidcore/internal/validation"
	"pidcore/pkg/domain"
)

var (
	// ErrNoRepository is returned by Save and Open when no repository is configured.
	ErrNoRepository = errors.New("no diagram repository configured")
	// ErrNoBlobStore is returned by Export and Import when no blob store is configured.
	ErrNoBlobStore = errors.New("no blob store configured")
)

// Blob metadata keys written by Export.
const (
	MetaDiagramID     = "diagram-id"
	MetaSchemaVersion = "schema-version"
)

// Service ties a DiagramStore to validation, persistence and document
// interchange.
type Service struct {
	store   *DiagramStore
	repo    domain.DiagramRepository
	blobs   blob.Store
	engine  *domain.RulesEngine
	vopts   domain.ValidationOptions
	logger  *slog.Logger
	metrics MetricsRecorder
	tracer  Tracer

	mu        sync.Mutex
	last      domain.ValidationResult
	lastVer   uint64
	validated bool
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	logger       *slog.Logger
	metrics      MetricsRecorder
	tracer       Tracer
	repo         domain.DiagramRepository
	blobs        blob.Store
	engine       *domain.RulesEngine
	vopts        domain.ValidationOptions
	storeOpts    []StoreOption
	autoValidate bool
}

// WithLogger sets the structured logger shared by the service and its store.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(c *serviceConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder shared by the service and its store.
func WithMetrics(metrics MetricsRecorder) ServiceOption {
	return func(c *serviceConfig) {
		if metrics != nil {
			c.metrics = metrics
		}
	}
}

// WithTracer sets the tracer used around persistence, interchange and validation.
func WithTracer(tracer Tracer) ServiceOption {
	return func(c *serviceConfig) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithRepository sets the repository used by Save and Open.
func WithRepository(repo domain.DiagramRepository) ServiceOption {
	return func(c *serviceConfig) { c.repo = repo }
}

// WithBlobStore sets the document store used by Export and Import.
func WithBlobStore(store blob.Store) ServiceOption {
	return func(c *serviceConfig) { c.blobs = store }
}

// WithRulesEngine replaces the default rule set.
func WithRulesEngine(engine *domain.RulesEngine) ServiceOption {
	return func(c *serviceConfig) {
		if engine != nil {
			c.engine = engine
		}
	}
}

// WithValidationOptions sets the rule selection and filtering used by Validate.
func WithValidationOptions(opts domain.ValidationOptions) ServiceOption {
	return func(c *serviceConfig) { c.vopts = opts }
}

// WithStoreOptions forwards options to the underlying DiagramStore.
func WithStoreOptions(opts ...StoreOption) ServiceOption {
	return func(c *serviceConfig) { c.storeOpts = append(c.storeOpts, opts...) }
}

// WithAutoValidate controls whether structural changes re-run validation
// immediately. It is enabled by default.
func WithAutoValidate(enabled bool) ServiceOption {
	return func(c *serviceConfig) { c.autoValidate = enabled }
}

// NewService constructs a service around a fresh DiagramStore.
func NewService(opts ...ServiceOption) *Service {
	cfg := serviceConfig{
		logger:       discardLogger(),
		metrics:      noopMetrics{},
		tracer:       noopTracer{},
		autoValidate: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.engine == nil {
		cfg.engine = validation.NewDefaultRulesEngine()
	}
	storeOpts := append([]StoreOption{WithStoreLogger(cfg.logger), WithStoreMetrics(cfg.metrics)}, cfg.storeOpts...)
	svc := &Service{
		store:   NewDiagramStore(storeOpts...),
		repo:    cfg.repo,
		blobs:   cfg.blobs,
		engine:  cfg.engine,
		vopts:   cfg.vopts,
		logger:  cfg.logger,
		metrics: cfg.metrics,
		tracer:  cfg.tracer,
	}
	if cfg.autoValidate {
		svc.store.OnChange(func(ev ChangeEvent) {
			if !ev.Structural {
				return
			}
			if _, err := svc.Validate(context.Background()); err != nil {
				svc.logger.Warn("validation failed", "op", ev.Op, "error", err)
			}
		})
	}
	return svc
}

// NewServiceFromConfig opens the configured repository and blob store and
// builds a service over them. Close releases the repository.
func NewServiceFromConfig(ctx context.Context, cfg Config, opts ...ServiceOption) (*Service, error) {
	repo, err := OpenRepository(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	blobs, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	base := []ServiceOption{
		WithRepository(repo),
		WithBlobStore(blobs),
		WithStoreOptions(WithHistoryLimit(cfg.HistoryLimit)),
	}
	return NewService(append(base, opts...)...), nil
}

// Store returns the underlying diagram store.
func (s *Service) Store() *DiagramStore {
	return s.store
}

// Close releases the repository, if any.
func (s *Service) Close() error {
	if s.repo == nil {
		return nil
	}
	return s.repo.Close()
}

// run wraps a service operation with a trace span and a metrics observation.
func (s *Service) run(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, operation)
	err := fn(ctx)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
	if err != nil {
		s.logger.Warn("operation failed", "op", operation, "error", err)
	}
	return err
}

// Save writes the current diagram to the repository and clears the dirty
// flag unless the diagram changed while saving.
func (s *Service) Save(ctx context.Context) error {
	return s.run(ctx, "save", func(ctx context.Context) error {
		if s.repo == nil {
			return ErrNoRepository
		}
		d, _, version := s.store.snapshot()
		if err := s.repo.Save(ctx, d); err != nil {
			return fmt.Errorf("save diagram %s: %w", d.ID, err)
		}
		s.store.markSaved(version)
		s.logger.Info("diagram saved", "diagram_id", d.ID, "elements", d.Len())
		return nil
	})
}

// Open loads a diagram from the repository and installs it. On error the
// current diagram is untouched.
func (s *Service) Open(ctx context.Context, id string) error {
	return s.run(ctx, "open", func(ctx context.Context) error {
		if s.repo == nil {
			return ErrNoRepository
		}
		d, err := s.repo.Load(ctx, id)
		if err != nil {
			return fmt.Errorf("load diagram %s: %w", id, err)
		}
		s.store.SetDiagram(d)
		return nil
	})
}

// List returns the repository listing.
func (s *Service) List(ctx context.Context) ([]domain.DiagramSummary, error) {
	var out []domain.DiagramSummary
	err := s.run(ctx, "list", func(ctx context.Context) error {
		if s.repo == nil {
			return ErrNoRepository
		}
		var err error
		out, err = s.repo.List(ctx)
		return err
	})
	return out, err
}

// Export encodes the current diagram with the codec for format and stores
// it at key, replacing any previous document. An empty key is derived from
// the diagram title.
func (s *Service) Export(ctx context.Context, key string, format codec.Format) (blob.Info, error) {
	var info blob.Info
	err := s.run(ctx, "export", func(ctx context.Context) error {
		if s.blobs == nil {
			return ErrNoBlobStore
		}
		c, err := codec.ForFormat(string(format))
		if err != nil {
			return err
		}
		d, _, _ := s.store.snapshot()
		if key == "" {
			key = codec.FileName(d, c)
		}
		var buf bytes.Buffer
		if err := c.Encode(&buf, d); err != nil {
			return fmt.Errorf("encode %s: %w", c.Format(), err)
		}
		info, err = s.blobs.Put(ctx, key, &buf, blob.PutOptions{
			ContentType: c.ContentType(),
			Metadata:    map[string]string{MetaDiagramID: d.ID, MetaSchemaVersion: d.Version},
			Overwrite:   true,
		})
		if err != nil {
			return fmt.Errorf("store %s: %w", key, err)
		}
		s.logger.Info("diagram exported", "diagram_id", d.ID, "key", info.Key, "format", c.Format(), "bytes", info.Size)
		return nil
	})
	return info, err
}

// Import reads the document at key, picking the codec from its extension,
// and installs it. On error the current diagram is untouched.
func (s *Service) Import(ctx context.Context, key string) (domain.Diagram, error) {
	var d domain.Diagram
	err := s.run(ctx, "import", func(ctx context.Context) error {
		if s.blobs == nil {
			return ErrNoBlobStore
		}
		c, err := codec.ForPath(key)
		if err != nil {
			return err
		}
		_, rc, err := s.blobs.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", key, err)
		}
		defer func() { _ = rc.Close() }()
		d, err = s.importFrom(rc, c)
		return err
	})
	return d, err
}

// ImportFrom decodes a document from r with c and installs it. On error the
// current diagram is untouched.
func (s *Service) ImportFrom(r io.Reader, c codec.Codec) (domain.Diagram, error) {
	var d domain.Diagram
	err := s.run(context.Background(), "import", func(context.Context) error {
		var err error
		d, err = s.importFrom(r, c)
		return err
	})
	return d, err
}

func (s *Service) importFrom(r io.Reader, c codec.Codec) (domain.Diagram, error) {
	d, err := c.Decode(r)
	if err != nil {
		return domain.Diagram{}, fmt.Errorf("decode %s: %w", c.Format(), err)
	}
	s.store.SetDiagram(d)
	return d, nil
}

// Validate runs the configured rules against the current diagram. Results
// are cached per store version.
func (s *Service) Validate(ctx context.Context) (domain.ValidationResult, error) {
	_, idx, version := s.store.snapshot()
	s.mu.Lock()
	if s.validated && s.lastVer == version {
		res := s.last
		s.mu.Unlock()
		return res, nil
	}
	s.mu.Unlock()

	var res domain.ValidationResult
	err := s.run(ctx, "validate", func(ctx context.Context) error {
		var err error
		res, err = s.engine.Validate(ctx, idx, s.vopts)
		return err
	})
	if err != nil {
		return domain.ValidationResult{}, err
	}
	recordValidation(s.metrics, res)
	s.logger.Debug("diagram validated", "version", version, "valid", res.Valid,
		"errors", res.Summary.Errors, "warnings", res.Summary.Warnings)

	s.mu.Lock()
	if !s.validated || version >= s.lastVer {
		s.last, s.lastVer, s.validated = res, version, true
	}
	s.mu.Unlock()
	return res, nil
}

// Validation returns the most recent validation result and whether it
// matches the current diagram.
func (s *Service) Validation() (domain.ValidationResult, bool) {
	version := s.store.Version()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.validated && s.lastVer == version
}
