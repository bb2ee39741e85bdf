// Package encode turns text into per-rune one-hot input vectors
package encode

import (
	"fmt"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Stage is one text normalization pass
type Stage int

const (
	// StageNFKC applies compatibility composition (ligatures, full-width forms)
	StageNFKC Stage = iota
	// StageStripAccents drops combining marks after canonical decomposition
	StageStripAccents
	// StageLower lowercases with root-locale rules
	StageLower
)

// Normalizer applies its stages in order before encoding
type Normalizer struct {
	stages []Stage
}

// NewNormalizer creates a normalizer running stages in the given order
func NewNormalizer(stages ...Stage) Normalizer {
	return Normalizer{stages: append([]Stage(nil), stages...)}
}

// transformer builds a fresh chain; casers carry state and are not shared
func (n Normalizer) transformer() transform.Transformer {
	chain := make([]transform.Transformer, 0, len(n.stages))
	for _, st := range n.stages {
		switch st {
		case StageNFKC:
			chain = append(chain, norm.NFKC)
		case StageStripAccents:
			chain = append(chain, norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
		case StageLower:
			chain = append(chain, cases.Lower(language.Und))
		}
	}
	return transform.Chain(chain...)
}

// Normalize returns text after every stage. Input that fails to transform
// is returned unchanged.
func (n Normalizer) Normalize(text string) string {
	if len(n.stages) == 0 {
		return text
	}
	out, _, err := transform.String(n.transformer(), text)
	if err != nil {
		return text
	}
	return out
}

// OneHot maps each rune to a one-hot vector of fixed width.
// Rune r sets index r mod Width.
type OneHot struct {
	Width      int
	Normalizer Normalizer
}

// NewOneHot creates an encoder producing vectors of the given width.
// Text is NFKC-normalized and lowercased before encoding.
func NewOneHot(width int) (*OneHot, error) {
	if width <= 0 {
		return nil, fmt.Errorf("encode: invalid width %d", width)
	}
	return &OneHot{
		Width:      width,
		Normalizer: NewNormalizer(StageNFKC, StageLower),
	}, nil
}

// Index returns the active position for r
func (e *OneHot) Index(r rune) int {
	return int(r) % e.Width
}

// Encode returns one vector per rune of the normalized text
func (e *OneHot) Encode(text string) [][]float64 {
	text = e.Normalizer.Normalize(text)

	out := make([][]float64, 0, len(text))
	for _, r := range text {
		v := make([]float64, e.Width)
		v[e.Index(r)] = 1
		out = append(out, v)
	}
	return out
}
