package filter

import (
	"fmt"

	"github.com/robert-malhotra/h5dict/internal/message"
)

// Pipeline is a resolved filter pipeline. A nil pipeline passes data through.
type Pipeline struct {
	stages []message.Filter
	impls  []Filter
}

// NewPipeline resolves every filter in fp. Unknown filters are kept and only
// fail when a chunk actually needs them.
func NewPipeline(fp *message.FilterPipeline, elemSize int) *Pipeline {
	if fp == nil || len(fp.Filters) == 0 {
		return nil
	}
	p := &Pipeline{stages: fp.Filters, impls: make([]Filter, len(fp.Filters))}
	for i, f := range fp.Filters {
		p.impls[i], _ = lookup(f, elemSize)
	}
	return p
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.stages)
}

// Decode reverses the pipeline on one chunk. Bit i of mask marks stage i as
// skipped when the chunk was written.
func (p *Pipeline) Decode(data []byte, mask uint32) ([]byte, error) {
	if p == nil {
		return data, nil
	}
	for i := len(p.stages) - 1; i >= 0; i-- {
		if mask&(1<<uint(i)) != 0 {
			continue
		}
		impl := p.impls[i]
		if impl == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, Name(p.stages[i].ID))
		}
		out, err := impl.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", Name(impl.ID()), err)
		}
		data = out
	}
	return data, nil
}

// Encode runs the pipeline forward on one chunk.
func (p *Pipeline) Encode(data []byte) ([]byte, error) {
	if p == nil {
		return data, nil
	}
	for i, impl := range p.impls {
		if impl == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, Name(p.stages[i].ID))
		}
		out, err := impl.Encode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", Name(impl.ID()), err)
		}
		data = out
	}
	return data, nil
}
