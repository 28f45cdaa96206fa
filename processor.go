package iso8583

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Processor unpacks and packs many messages concurrently with one shared
// packager, bounding the number of goroutines with a semaphore.
type Processor struct {
	packager     Packager
	concurrency  int
	logger       *zap.Logger
	errorHandler func(error)
}

// ProcessorOption defines a function signature for configuring a Processor.
type ProcessorOption func(*Processor)

// WithConcurrency sets the maximum number of concurrent goroutines. Values
// below 1 mean 1.
func WithConcurrency(n int) ProcessorOption {
	return func(p *Processor) {
		if n < 1 {
			n = 1
		}
		p.concurrency = n
	}
}

// WithLogger sets the logger of the default error handler.
func WithLogger(logger *zap.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithErrorHandler sets a callback invoked for every failed message in
// batch or stream processing.
func WithErrorHandler(handler func(error)) ProcessorOption {
	return func(p *Processor) {
		p.errorHandler = handler
	}
}

// NewProcessor creates a new Processor with the given packager and options.
func NewProcessor(packager Packager, opts ...ProcessorOption) *Processor {
	p := &Processor{
		packager:    packager,
		concurrency: 4,
		logger:      zap.L(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.errorHandler == nil {
		logger := p.logger.Named("processor")
		p.errorHandler = func(err error) {
			logger.Warn("message failed", zap.Error(err))
		}
	}
	return p
}

// Process unpacks a single raw message. On failure the partially decoded
// set is returned with the error.
func (p *Processor) Process(data []byte) (*FieldSet, error) {
	fs := p.packager.NewFieldSet()
	if _, err := p.packager.Unpack(fs, data); err != nil {
		return fs, err
	}
	return fs, nil
}

// ProcessBatch unpacks raw messages concurrently. results[i] belongs to
// batch[i]; failed messages keep their partial set. Every failure is
// reported, combined with multierr.
func (p *Processor) ProcessBatch(ctx context.Context, batch [][]byte) ([]*FieldSet, error) {
	results := make([]*FieldSet, len(batch))
	err := p.run(ctx, len(batch), func(i int) error {
		fs, err := p.Process(batch[i])
		results[i] = fs
		return err
	})
	return results, err
}

// PackBatch packs field sets concurrently. out[i] is nil when sets[i] failed.
func (p *Processor) PackBatch(ctx context.Context, sets []*FieldSet) ([][]byte, error) {
	out := make([][]byte, len(sets))
	err := p.run(ctx, len(sets), func(i int) error {
		b, err := p.packager.Pack(sets[i])
		out[i] = b
		return err
	})
	return out, err
}

func (p *Processor) run(ctx context.Context, n int, job func(i int) error) error {
	errs := make([]error, n)
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.concurrency)

	var ctxErr error
loop:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break loop
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-semaphore }()
			if err := job(idx); err != nil {
				errs[idx] = fmt.Errorf("message %d: %w", idx, err)
				p.errorHandler(errs[idx])
			}
		}(i)
	}
	wg.Wait()

	return multierr.Append(multierr.Combine(errs...), ctxErr)
}

// ProcessStream unpacks messages from input and sends the decoded sets to
// output until input is closed or ctx is cancelled. Failed messages go to
// the error handler only.
func (p *Processor) ProcessStream(ctx context.Context, input <-chan []byte, output chan<- *FieldSet) error {
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.concurrency)

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()

		case data, ok := <-input:
			if !ok {
				wg.Wait()
				return nil
			}

			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				wg.Wait()
				return ctx.Err()
			}
			wg.Add(1)

			go func(msgData []byte) {
				defer wg.Done()
				defer func() { <-semaphore }()

				fs, err := p.Process(msgData)
				if err != nil {
					p.errorHandler(err)
					return
				}

				select {
				case output <- fs:
				case <-ctx.Done():
				}
			}(data)
		}
	}
}
