package embed

import (
	"fmt"

	"github.com/devsnippets/devsnippets/internal/port"
)

// NewStrategy selects the embedding strategy by name. The provider is only
// required for the dense strategy.
func NewStrategy(name string, provider port.EmbedProvider) (port.EmbeddingStrategy, error) {
	switch name {
	case "dense":
		if provider == nil {
			return nil, fmt.Errorf("dense strategy requires an embed provider")
		}
		return NewDenseStrategy(provider), nil
	case "sparse":
		return NewSparseStrategy(), nil
	default:
		return nil, fmt.Errorf("%w: %q", port.ErrStrategyUnknown, name)
	}
}
