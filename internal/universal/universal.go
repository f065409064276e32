package universal

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/DD-DeCaF/metabolic-ninja/pkg/pathway"
)

// Source names one of the bundled MetaNetX universal reaction databases.
type Source string

const (
	BiGG     Source = "metanetx_universal_model_bigg"
	BiGGRhea Source = "metanetx_universal_model_bigg_rhea"
	Rhea     Source = "metanetx_universal_model_rhea"
)

// SourceFor maps the prediction request flags to a universal database.
func SourceFor(bigg, rhea bool) (Source, error) {
	switch {
	case bigg && rhea:
		return BiGGRhea, nil
	case bigg:
		return BiGG, nil
	case rhea:
		return Rhea, nil
	}
	return "", errors.New("at least one of bigg and rhea must be enabled")
}

// Repository loads the universal databases from disk. The files hold tens of
// thousands of reactions each, so every database is parsed at most once per
// process and shared afterwards.
type Repository struct {
	dir string

	lock   sync.Mutex
	loaded map[Source]*pathway.Model
}

func NewRepository(dir string) *Repository {
	return &Repository{dir: dir, loaded: make(map[Source]*pathway.Model)}
}

func (r *Repository) Load(source Source) (*pathway.Model, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if model, ok := r.loaded[source]; ok {
		return model, nil
	}

	path := filepath.Join(r.dir, string(source)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading universal model %s: %w", source, err)
	}
	var model pathway.Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("error parsing universal model %s: %w", source, err)
	}
	slog.Debug("loaded universal model", "source", string(source),
		"reactions", len(model.Reactions), "metabolites", len(model.Metabolites))

	r.loaded[source] = &model
	return &model, nil
}

// LoadFor resolves the request flags and loads the matching database.
func (r *Repository) LoadFor(bigg, rhea bool) (*pathway.Model, error) {
	source, err := SourceFor(bigg, rhea)
	if err != nil {
		return nil, err
	}
	return r.Load(source)
}
