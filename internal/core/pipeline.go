package core

import (
	"context"
	"log/slog"

	"github.com/JonMunkholm/signup-etl/internal/logging"
)

// Pipeline runs one file through read, transform and load.
type Pipeline struct {
	transformer *Transformer
	loader      *Loader
	log         *slog.Logger
}

// NewPipeline wires a Transformer and a Loader for store around one logger.
func NewPipeline(store Store, logger *slog.Logger) *Pipeline {
	logger = logging.OrDefault(logger)
	return &Pipeline{
		transformer: NewTransformer(logger),
		loader:      NewLoader(store, logger),
		log:         logger,
	}
}

// Process reads path and returns its valid records. A source failure is
// logged and returned; no records accompany it.
func (p *Pipeline) Process(path string) ([]UserRecord, error) {
	rows, err := ReadSource(path)
	if err != nil {
		p.log.Error("error reading file", "file", path, "error", err)
		return nil, err
	}
	return p.transformer.Transform(rows), nil
}

// Run processes path and saves the result. Any returned error is fatal for
// the run; use Kind to tell the causes apart.
func (p *Pipeline) Run(ctx context.Context, path string) error {
	p.log.Info("starting data processing", "file", path)

	records, err := p.Process(path)
	if err != nil {
		p.log.Error("application error", "kind", Kind(err).String(), "error", err)
		return err
	}

	p.log.Info("starting database save", "count", len(records))
	if err := p.loader.Load(ctx, records); err != nil {
		p.log.Error("application error", "kind", Kind(err).String(), "error", err)
		return err
	}

	p.log.Info("process completed successfully", "count", len(records))
	return nil
}

// LoaderState reports the state the loader finished in.
func (p *Pipeline) LoaderState() LoaderState {
	return p.loader.State()
}
