package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/verasls/activity-recognition/internal/activity"
	"github.com/verasls/activity-recognition/internal/monitoring"
	"github.com/verasls/activity-recognition/internal/security"
)

// Registry resolves (placement, model_type) pairs to classifiers backed
// by JSON artifacts in a directory. Artifacts are loaded lazily and
// cached for the life of the registry; handles are immutable, so the
// cache needs no invalidation.
type Registry struct {
	dir string

	mu    sync.Mutex
	cache map[string]activity.Classifier
}

// NewRegistry returns a registry over dir. Artifacts are expected at
// <dir>/<placement>_<model_type>.json.
func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir, cache: make(map[string]activity.Classifier)}
}

// ArtifactPath returns the artifact file path for a model key.
func (r *Registry) ArtifactPath(placement, modelType string) string {
	return filepath.Join(r.dir, placement+"_"+modelType+".json")
}

// Load returns the classifier for the given key, reading the artifact
// from disk on first use. A missing artifact fails with
// activity.ErrModelNotFound.
func (r *Registry) Load(placement, modelType string) (activity.Classifier, error) {
	key := placement + "_" + modelType

	r.mu.Lock()
	defer r.mu.Unlock()
	if clf, ok := r.cache[key]; ok {
		return clf, nil
	}

	path := r.ArtifactPath(placement, modelType)
	if err := security.ValidatePathWithinDirectory(path, r.dir); err != nil {
		return nil, fmt.Errorf("artifact path rejected: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no artifact at %s", activity.ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("reading artifact %s: %w", path, err)
	}

	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("parsing artifact %s: %w", path, err)
	}
	if art.Placement != placement || art.ModelType != modelType {
		return nil, fmt.Errorf("artifact %s is keyed %s/%s, expected %s/%s",
			path, art.Placement, art.ModelType, placement, modelType)
	}
	if err := art.validate(); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}

	clf := newClassifier(&art)
	r.cache[key] = clf
	monitoring.Logf("loaded model %s from %s", clf.Name(), path)
	return clf, nil
}
