// Package predictors provides small, self-contained Predictor
// implementations and a file-based loader, standing in for the
// external ML frameworks and cloud model stores this protocol treats
// as opaque. Grounded on btml.py's load_model_from_path: a predictor is
// loaded from a file and bound into the node's registry by name.
package predictors

import "fmt"

// SumModel is a trivial Predictor used by the file loader's default
// format: given a JSON array of numbers, it
// returns a one-element array holding their sum.
type SumModel struct{}

// Predict implements inference.Predictor.
func (SumModel) Predict(x any) (any, error) {
	arr, ok := x.([]any)
	if !ok {
		return nil, fmt.Errorf("sum model expects a JSON array, got %T", x)
	}
	var total float64
	for _, v := range arr {
		n, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("sum model expects numeric elements, got %T", v)
		}
		total += n
	}
	return []float64{total}, nil
}

// LinearModel predicts a weighted sum plus a bias: given a JSON array
// x, returns [dot(Weights, x) + Bias]. A minimal stand-in for the
// scikit-learn linear models btml.py loads from a pickle file.
type LinearModel struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// Predict implements inference.Predictor.
func (m LinearModel) Predict(x any) (any, error) {
	arr, ok := x.([]any)
	if !ok {
		return nil, fmt.Errorf("linear model expects a JSON array, got %T", x)
	}
	if len(arr) != len(m.Weights) {
		return nil, fmt.Errorf("linear model expects %d inputs, got %d", len(m.Weights), len(arr))
	}
	total := m.Bias
	for i, v := range arr {
		n, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("linear model expects numeric elements, got %T", v)
		}
		total += m.Weights[i] * n
	}
	return []float64{total}, nil
}
