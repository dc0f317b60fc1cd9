// Package model loads pre-trained classifier artifacts and exposes them
// through the activity.Classifier interface. Artifacts are JSON files
// produced by the offline training step; this package never trains.
package model

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/verasls/activity-recognition/internal/activity"
)

// ErrSchemaMismatch indicates an artifact trained against a feature
// schema different from the pipeline's canonical feature order.
var ErrSchemaMismatch = errors.New("feature schema mismatch")

// Artifact is the on-disk form of a trained classifier. Exactly one of
// SVM, KNN, or RF must be populated, matching ModelType.
type Artifact struct {
	Placement string   `json:"placement"`
	ModelType string   `json:"model_type"`
	Classes   []string `json:"classes"`
	Features  []string `json:"features"`

	Scaler *Scaler    `json:"scaler,omitempty"`
	SVM    *SVMParams `json:"svm,omitempty"`
	KNN    *KNNParams `json:"knn,omitempty"`
	RF     *RFParams  `json:"rf,omitempty"`
}

// Scaler standardizes feature vectors with the training-set mean and
// scale before inference.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *Scaler) transform(fv activity.FeatureVector) []float64 {
	out := make([]float64, len(fv))
	for i, v := range fv {
		sc := s.Scale[i]
		if sc == 0 {
			sc = 1
		}
		out[i] = (v - s.Mean[i]) / sc
	}
	return out
}

// SVMParams holds one-vs-rest linear decision functions, one row of
// weights and one bias per class. The predicted class is the argmax of
// the decision values.
type SVMParams struct {
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// KNNParams holds the training exemplars for k-nearest-neighbour
// voting. Labels index into Artifact.Classes.
type KNNParams struct {
	K         int         `json:"k"`
	Exemplars [][]float64 `json:"exemplars"`
	Labels    []int       `json:"labels"`
}

// RFParams holds a forest of decision trees combined by majority vote.
type RFParams struct {
	Trees []Tree `json:"trees"`
}

// Tree is a flattened binary decision tree. Node 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is one tree node. Internal nodes route on Feature <= Threshold
// (left) versus > Threshold (right). Leaves have Left == -1 and carry a
// class index in Leaf.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Leaf      int     `json:"leaf"`
}

// validate checks internal consistency of a decoded artifact.
func (a *Artifact) validate() error {
	if !activity.IsValidPlacement(a.Placement) {
		return fmt.Errorf("artifact placement %q not recognized", a.Placement)
	}
	if !activity.IsValidModelType(a.ModelType) {
		return fmt.Errorf("artifact model_type %q not recognized", a.ModelType)
	}
	if len(a.Classes) == 0 {
		return fmt.Errorf("artifact has no classes")
	}
	for _, c := range a.Classes {
		if !activity.IsValidActivity(activity.Activity(c)) {
			return fmt.Errorf("artifact class %q is not a known activity", c)
		}
	}
	want := activity.FeatureNames()
	if len(a.Features) != len(want) {
		return fmt.Errorf("%w: artifact has %d features, pipeline produces %d", ErrSchemaMismatch, len(a.Features), len(want))
	}
	for i, name := range want {
		if a.Features[i] != name {
			return fmt.Errorf("%w: feature %d is %q, pipeline produces %q", ErrSchemaMismatch, i, a.Features[i], name)
		}
	}
	if a.Scaler != nil && (len(a.Scaler.Mean) != len(want) || len(a.Scaler.Scale) != len(want)) {
		return fmt.Errorf("scaler dimensions do not match %d features", len(want))
	}

	switch a.ModelType {
	case activity.ModelSVM:
		if a.SVM == nil {
			return fmt.Errorf("svm artifact missing svm payload")
		}
		if len(a.SVM.Weights) != len(a.Classes) || len(a.SVM.Bias) != len(a.Classes) {
			return fmt.Errorf("svm payload needs one weight row and bias per class")
		}
		for _, row := range a.SVM.Weights {
			if len(row) != len(want) {
				return fmt.Errorf("svm weight row has %d entries, want %d", len(row), len(want))
			}
		}
	case activity.ModelKNN:
		if a.KNN == nil {
			return fmt.Errorf("knn artifact missing knn payload")
		}
		if a.KNN.K <= 0 || len(a.KNN.Exemplars) == 0 || len(a.KNN.Exemplars) != len(a.KNN.Labels) {
			return fmt.Errorf("knn payload needs k > 0 and matching exemplars and labels")
		}
		for _, ex := range a.KNN.Exemplars {
			if len(ex) != len(want) {
				return fmt.Errorf("knn exemplar has %d entries, want %d", len(ex), len(want))
			}
		}
		for _, l := range a.KNN.Labels {
			if l < 0 || l >= len(a.Classes) {
				return fmt.Errorf("knn label index %d out of range", l)
			}
		}
	case activity.ModelRF:
		if a.RF == nil || len(a.RF.Trees) == 0 {
			return fmt.Errorf("rf artifact missing trees")
		}
		for ti, tree := range a.RF.Trees {
			if len(tree.Nodes) == 0 {
				return fmt.Errorf("rf tree %d is empty", ti)
			}
			for ni, node := range tree.Nodes {
				if node.Left == -1 {
					if node.Leaf < 0 || node.Leaf >= len(a.Classes) {
						return fmt.Errorf("rf tree %d node %d leaf index %d out of range", ti, ni, node.Leaf)
					}
					continue
				}
				if node.Feature < 0 || node.Feature >= len(want) ||
					node.Left <= ni || node.Left >= len(tree.Nodes) ||
					node.Right <= ni || node.Right >= len(tree.Nodes) {
					return fmt.Errorf("rf tree %d node %d is malformed", ti, ni)
				}
			}
		}
	}
	return nil
}

// classifier adapts a validated artifact to activity.Classifier.
type classifier struct {
	art  *Artifact
	name string
}

func newClassifier(art *Artifact) *classifier {
	return &classifier{
		art:  art,
		name: art.Placement + "/" + art.ModelType,
	}
}

// Name identifies the artifact, e.g. "hip/rf".
func (c *classifier) Name() string { return c.name }

// Predict maps each feature vector to an activity label.
func (c *classifier) Predict(batch []activity.FeatureVector) ([]activity.Activity, error) {
	out := make([]activity.Activity, len(batch))
	for i, fv := range batch {
		if len(fv) != len(c.art.Features) {
			return nil, fmt.Errorf("%w: vector has %d features, model %s wants %d",
				ErrSchemaMismatch, len(fv), c.name, len(c.art.Features))
		}
		vec := []float64(fv)
		if c.art.Scaler != nil {
			vec = c.art.Scaler.transform(fv)
		}

		var idx int
		switch c.art.ModelType {
		case activity.ModelSVM:
			idx = c.art.SVM.decide(vec)
		case activity.ModelKNN:
			idx = c.art.KNN.decide(vec)
		case activity.ModelRF:
			idx = c.art.RF.decide(vec)
		}
		out[i] = activity.Activity(c.art.Classes[idx])
	}
	return out, nil
}

func (p *SVMParams) decide(vec []float64) int {
	best := 0
	bestScore := math.Inf(-1)
	for class, row := range p.Weights {
		score := p.Bias[class]
		for j, w := range row {
			score += w * vec[j]
		}
		if score > bestScore {
			bestScore = score
			best = class
		}
	}
	return best
}

func (p *KNNParams) decide(vec []float64) int {
	type neighbour struct {
		dist  float64
		label int
	}
	neighbours := make([]neighbour, len(p.Exemplars))
	for i, ex := range p.Exemplars {
		var d float64
		for j, v := range ex {
			diff := vec[j] - v
			d += diff * diff
		}
		neighbours[i] = neighbour{dist: d, label: p.Labels[i]}
	}
	sort.Slice(neighbours, func(i, j int) bool { return neighbours[i].dist < neighbours[j].dist })

	k := p.K
	if k > len(neighbours) {
		k = len(neighbours)
	}
	votes := map[int]int{}
	for _, nb := range neighbours[:k] {
		votes[nb.label]++
	}
	best, bestVotes := 0, -1
	for label, v := range votes {
		if v > bestVotes || (v == bestVotes && label < best) {
			best, bestVotes = label, v
		}
	}
	return best
}

func (p *RFParams) decide(vec []float64) int {
	votes := map[int]int{}
	for _, tree := range p.Trees {
		node := tree.Nodes[0]
		for node.Left != -1 {
			if vec[node.Feature] <= node.Threshold {
				node = tree.Nodes[node.Left]
			} else {
				node = tree.Nodes[node.Right]
			}
		}
		votes[node.Leaf]++
	}
	best, bestVotes := 0, -1
	for label, v := range votes {
		if v > bestVotes || (v == bestVotes && label < best) {
			best, bestVotes = label, v
		}
	}
	return best
}
