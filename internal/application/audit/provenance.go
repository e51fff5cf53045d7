package audit

import "context"

// Provenance identifies where a request came from.
type Provenance struct {
	IP        string
	UserAgent string
}

type provenanceKey struct{}

// WithProvenance attaches p to ctx; every entry recorded under ctx carries it.
func WithProvenance(ctx context.Context, p Provenance) context.Context {
	return context.WithValue(ctx, provenanceKey{}, p)
}

func ProvenanceFrom(ctx context.Context) (Provenance, bool) {
	p, ok := ctx.Value(provenanceKey{}).(Provenance)
	return p, ok
}
