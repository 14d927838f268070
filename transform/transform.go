package transform

import (
	"context"

	"github.com/aws-samples/amazon-healthlake-dicom-extension/pkg/document"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/tagset"
)

// Transform rewrites an assembled study document. Implementations must not
// mutate the input document; they return the document to carry forward.
type Transform interface {
	// Name identifies the transform in logs and errors.
	Name() string

	// Apply produces the replacement document. The tag sets of every
	// accepted instance are available for transforms that need raw
	// attribute values.
	Apply(ctx context.Context, doc document.Document, sets []*tagset.TagSet) (document.Document, error)
}

// Func adapts a function to the Transform interface.
type Func struct {
	name string
	fn   func(ctx context.Context, doc document.Document, sets []*tagset.TagSet) (document.Document, error)
}

// NewFunc wraps fn as a named Transform.
func NewFunc(name string, fn func(ctx context.Context, doc document.Document, sets []*tagset.TagSet) (document.Document, error)) *Func {
	return &Func{name: name, fn: fn}
}

// Name returns the transform name.
func (f *Func) Name() string { return f.name }

// Apply invokes the wrapped function.
func (f *Func) Apply(ctx context.Context, doc document.Document, sets []*tagset.TagSet) (document.Document, error) {
	return f.fn(ctx, doc, sets)
}

// Chain applies transforms in registration order.
type Chain struct {
	transforms []Transform
}

// NewChain builds a chain from the given transforms. Nil entries are
// skipped.
func NewChain(transforms ...Transform) *Chain {
	c := &Chain{}
	for _, tr := range transforms {
		if tr != nil {
			c.transforms = append(c.transforms, tr)
		}
	}
	return c
}

// Append adds a transform to the end of the chain.
func (c *Chain) Append(tr Transform) *Chain {
	if tr != nil {
		c.transforms = append(c.transforms, tr)
	}
	return c
}

// Len reports the number of transforms in the chain.
func (c *Chain) Len() int { return len(c.transforms) }

// Apply runs every transform in order. The first failure stops the chain
// and is returned; the document produced so far is discarded.
func (c *Chain) Apply(ctx context.Context, doc document.Document, sets []*tagset.TagSet) (document.Document, error) {
	for _, tr := range c.transforms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := tr.Apply(ctx, doc, sets)
		if err != nil {
			return nil, err
		}
		doc = next
	}
	return doc, nil
}
