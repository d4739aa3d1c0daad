package predictors

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/elien2016/p2pml/inference"
)

// fileFormat is the on-disk shape a model file must match: a kind tag
// selecting which Predictor to build, plus kind-specific parameters.
// Grounded on btml.py's load_model_from_path, which unpickles a model
// object from a path configured per-name; since Go has no pickle
// equivalent, the on-disk format here is plain JSON instead.
type fileFormat struct {
	Kind   string          `json:"kind"`
	Params json.RawMessage `json:"params"`
}

// LoadFile reads a model definition from path and returns the bound
// Predictor, selecting the concrete implementation by the file's "kind"
// field ("sum" or "linear").
func LoadFile(path string) (inference.Predictor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("predictors: %s: %w", path, err)
	}
	switch ff.Kind {
	case "sum", "":
		return SumModel{}, nil
	case "linear":
		var m LinearModel
		if err := json.Unmarshal(ff.Params, &m); err != nil {
			return nil, fmt.Errorf("predictors: %s: %w", path, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("predictors: %s: unknown kind %q", path, ff.Kind)
	}
}
