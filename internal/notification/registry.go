package notification

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Registry is the immutable catalogue of variants keyed by UID. It is safe
// for concurrent readers.
type Registry struct {
	variants map[string]Variant
	order    []string
}

// NewRegistry validates and registers variants. Every problem is reported in
// one aggregated error: empty or duplicate UIDs and malformed matrices.
func NewRegistry(variants ...Variant) (*Registry, error) {
	r := &Registry{variants: make(map[string]Variant, len(variants))}

	var result *multierror.Error
	for i, v := range variants {
		uid := v.UID()
		if uid == "" {
			result = multierror.Append(result, fmt.Errorf("variant #%d (%T): empty uid", i, v))
			continue
		}
		if _, dup := r.variants[uid]; dup {
			result = multierror.Append(result, fmt.Errorf("variant %q: duplicate uid", uid))
			continue
		}
		if err := v.Policy().Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("variant %q: %w", uid, err))
			continue
		}
		r.variants[uid] = v
		r.order = append(r.order, uid)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustNewRegistry is NewRegistry for package-level setup; it panics on error.
func MustNewRegistry(variants ...Variant) *Registry {
	r, err := NewRegistry(variants...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the variant registered under uid.
func (r *Registry) Lookup(uid string) (Variant, bool) {
	v, ok := r.variants[uid]
	return v, ok
}

// All returns the variants in registration order.
func (r *Registry) All() []Variant {
	out := make([]Variant, 0, len(r.order))
	for _, uid := range r.order {
		out = append(out, r.variants[uid])
	}
	return out
}

// Len returns the number of registered variants.
func (r *Registry) Len() int {
	return len(r.order)
}
