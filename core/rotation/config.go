package rotation

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadCycle loads a rotation cycle definition from a JSON or YAML file and
// validates it.
func LoadCycle(path string) (Cycle, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Cycle{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var c Cycle
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &c)
	case ".json":
		err = json.Unmarshal(b, &c)
	default:
		return Cycle{}, fmt.Errorf("unsupported cycle format: %s", ext)
	}
	if err != nil {
		return Cycle{}, err
	}
	return c, c.Validate()
}

// DecodeCycle reads from r to decode a Cycle.
func DecodeCycle(r io.Reader, format string) (Cycle, error) {
	var c Cycle
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&c); err != nil {
			return c, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&c); err != nil {
			return c, err
		}
	default:
		return c, fmt.Errorf("unsupported format: %s", format)
	}
	return c, c.Validate()
}
