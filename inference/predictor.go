package inference

import (
	"encoding/json"
	"errors"
	"sync"
)

// Predictor is the opaque capability every loaded model exposes: given
// a JSON-decoded input value, produce a JSON-encodable output. Concrete
// predictors (tree ensembles, linear models, ...) are external
// collaborators — the core only ever calls Predict.
type Predictor interface {
	Predict(x any) (y any, err error)
}

// ErrModelNotFound is returned by Run when name is absent from
// LocalModels. The INFR handler checks for the model before calling Run
// and replies "Model not found" itself.
var ErrModelNotFound = errors.New("model not found")

// LocalModels maps model name to an opaque, locally loaded predictor.
// Entries are created by a loader and destroyed by Unload.
type LocalModels struct {
	mu    sync.RWMutex
	store map[string]Predictor
}

// NewLocalModels creates an empty predictor store.
func NewLocalModels() *LocalModels {
	return &LocalModels{store: make(map[string]Predictor)}
}

// Load binds name to p, replacing any prior binding.
func (m *LocalModels) Load(name string, p Predictor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[name] = p
}

// Unload removes name; a no-op if absent.
func (m *LocalModels) Unload(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, name)
}

// Get returns the predictor bound to name and whether it exists.
func (m *LocalModels) Get(name string) (Predictor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[name]
	return p, ok
}

// Run decodes input as JSON, calls Predict, and re-encodes the result —
// the body of the INFR handler, factored out so it can be exercised
// directly by tests and by other data-source collaborators without
// going through the wire.
func (m *LocalModels) Run(name string, input []byte) ([]byte, error) {
	p, ok := m.Get(name)
	if !ok {
		return nil, ErrModelNotFound
	}
	var x any
	if err := json.Unmarshal(input, &x); err != nil {
		return nil, err
	}
	y, err := p.Predict(x)
	if err != nil {
		return nil, err
	}
	return json.Marshal(y)
}
