package search

import (
	"fmt"

	"github.com/kailas-cloud/facedex/internal/domain/search/mode"
)

// Default calibration. The raw-score bands are empirical: text-to-image
// cosine similarities land in a much lower band than image-to-image ones.
// Tuned against the CLIP ViT-L/14 encoder and the production corpus;
// recalibrate when either changes.
const (
	DefaultTextLo   = 0.10
	DefaultTextHi   = 0.28
	DefaultEntityLo = 0.70
	DefaultEntityHi = 0.95
	DefaultMinPct   = 60.0
	DefaultMaxPct   = 100.0
)

// Bounds is the empirical raw-score band for one query mode.
type Bounds struct {
	Lo float64
	Hi float64
}

// Normalizer maps raw cosine similarity into a bounded user-facing
// percentage, calibrated separately per query mode. Pure and stateless.
type Normalizer struct {
	text   Bounds
	entity Bounds
	minPct float64
	maxPct float64
}

// NewNormalizer validates the calibration and creates a Normalizer.
func NewNormalizer(text, entity Bounds, minPct, maxPct float64) (*Normalizer, error) {
	for name, b := range map[string]Bounds{"text": text, "entity": entity} {
		if b.Hi <= b.Lo {
			return nil, fmt.Errorf("%s bounds: hi (%v) must exceed lo (%v)", name, b.Hi, b.Lo)
		}
	}
	if maxPct <= minPct {
		return nil, fmt.Errorf("max_pct (%v) must exceed min_pct (%v)", maxPct, minPct)
	}
	return &Normalizer{text: text, entity: entity, minPct: minPct, maxPct: maxPct}, nil
}

// DefaultNormalizer returns a Normalizer with the default calibration.
func DefaultNormalizer() *Normalizer {
	n, err := NewNormalizer(
		Bounds{Lo: DefaultTextLo, Hi: DefaultTextHi},
		Bounds{Lo: DefaultEntityLo, Hi: DefaultEntityHi},
		DefaultMinPct, DefaultMaxPct,
	)
	if err != nil {
		panic(err) // default constants are statically valid
	}
	return n
}

// Normalize rescales raw into [minPct, maxPct] using the band for m.
// Out-of-band input clamps to the nearest edge.
func (n *Normalizer) Normalize(raw float64, m mode.Mode) float64 {
	b := n.text
	if m == mode.Entity {
		b = n.entity
	}
	pct := (raw-b.Lo)/(b.Hi-b.Lo)*(n.maxPct-n.minPct) + n.minPct
	if pct < n.minPct {
		return n.minPct
	}
	if pct > n.maxPct {
		return n.maxPct
	}
	return pct
}
