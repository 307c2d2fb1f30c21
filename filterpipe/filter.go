// Package filterpipe implements spec.md section 6's VariantFilter contract:
// "filter(v) -> Option<VariantCall>; filters are chained, first returning
// None drops the variant."
package filterpipe

import "github.com/grailbio/kestrel/variant"

// Filter is one stage of a variant filter chain. It returns the (possibly
// modified) call to keep, and ok=false to drop it.
type Filter interface {
	Filter(v variant.Call) (variant.Call, bool)
}

// FilterFunc adapts a plain function to the Filter interface.
type FilterFunc func(v variant.Call) (variant.Call, bool)

// Filter calls f.
func (f FilterFunc) Filter(v variant.Call) (variant.Call, bool) { return f(v) }

// Chain runs an ordered list of filters over a Call, short-circuiting on
// the first filter that drops it, per spec.md section 6's "filters are
// chained, first returning None drops the variant."
type Chain []Filter

// Apply runs the chain over v, returning ok=false as soon as any stage
// drops it.
func (c Chain) Apply(v variant.Call) (variant.Call, bool) {
	for _, f := range c {
		var ok bool
		v, ok = f.Filter(v)
		if !ok {
			return variant.Call{}, false
		}
	}
	return v, true
}

// ApplyAll runs the chain over every call in vs, returning the surviving
// calls in order.
func (c Chain) ApplyAll(vs []variant.Call) []variant.Call {
	out := make([]variant.Call, 0, len(vs))
	for _, v := range vs {
		if kept, ok := c.Apply(v); ok {
			out = append(out, kept)
		}
	}
	return out
}
