package chain

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"loom/internal/logging"
)

// Step is one stage of a sequence. Its output is stored under
// OutputKey in the values passed to later steps.
type Step struct {
	Name      string
	Runnable  Runnable
	OutputKey string
}

// Sequential runs steps in order, threading outputs forward through
// the shared values map.
type Sequential struct {
	steps  []Step
	logger *zap.Logger
}

// NewSequential builds a sequence. Every step needs a Runnable, and
// all but the last need an OutputKey for the next step to read.
func NewSequential(steps ...Step) (*Sequential, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("sequence needs at least one step")
	}
	for i, step := range steps {
		if step.Runnable == nil {
			return nil, fmt.Errorf("step %d (%s) has no runnable", i, step.Name)
		}
		if step.OutputKey == "" && i < len(steps)-1 {
			return nil, fmt.Errorf("step %d (%s) needs an output key", i, step.Name)
		}
	}
	return &Sequential{
		steps:  steps,
		logger: logging.For(logging.CategoryChain),
	}, nil
}

// Invoke runs every step and returns the final step's output. The
// input map is not modified.
func (s *Sequential) Invoke(ctx context.Context, values map[string]string) (string, error) {
	scratch := make(map[string]string, len(values)+len(s.steps))
	for k, v := range values {
		scratch[k] = v
	}

	var out string
	for i, step := range s.steps {
		var err error
		out, err = step.Runnable.Invoke(ctx, scratch)
		if err != nil {
			return "", fmt.Errorf("step %d (%s): %w", i, step.Name, err)
		}
		if step.OutputKey != "" {
			scratch[step.OutputKey] = out
		}
		s.logger.Debug("sequence step done",
			zap.Int("step", i),
			zap.String("name", step.Name))
	}
	return out, nil
}
