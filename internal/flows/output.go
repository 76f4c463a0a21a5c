package flows

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/hashicorp-forge/icflows/internal/config"
	"github.com/hashicorp-forge/icflows/pkg/integrations"
)

// WriteMatchSet writes the typed attributes of items to w in the given
// format.
func WriteMatchSet(w io.Writer, format string, items []integrations.Integration) error {
	attrs := make([]integrations.Attributes, 0, len(items))
	for _, it := range items {
		attrs = append(attrs, it.Attributes())
	}

	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(attrs)
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(attrs); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
