// pkg/core/similar.go
package core

import (
	"fmt"
	"strings"
)

// SimilarBy selects the field used to find related boats.
type SimilarBy string

const (
	SimilarByType   SimilarBy = "Type"
	SimilarByLength SimilarBy = "Length"
	SimilarByPrice  SimilarBy = "Price"
)

// ParseSimilarBy accepts the field name in any case.
func ParseSimilarBy(s string) (SimilarBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "type":
		return SimilarByType, nil
	case "length":
		return SimilarByLength, nil
	case "price":
		return SimilarByPrice, nil
	}
	return "", fmt.Errorf("unknown similarity field %q", s)
}

// SimilarityBand bounds Length and Price matches to [v/SimilarityBand, v*SimilarityBand].
const SimilarityBand = 1.2
