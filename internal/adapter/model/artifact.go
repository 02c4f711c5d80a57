package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
)

// Artifact kinds.
const (
	KindLinear = "linear"
	KindForest = "forest"
)

// Artifact is a trained regression model exported to JSON. Columns is the
// exact input contract the model was trained with.
type Artifact struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Columns []string `json:"columns"`

	// ClipMin bounds predictions from below; delivery time is never negative.
	ClipMin *float64 `json:"clip_min,omitempty"`

	Linear *LinearModel `json:"linear,omitempty"`
	Forest *ForestModel `json:"forest,omitempty"`
}

// LinearModel is intercept + Σ numeric[col]·x + Σ categorical[col][value].
// Unseen categorical values contribute nothing.
type LinearModel struct {
	Intercept   float64                       `json:"intercept"`
	Numeric     map[string]float64            `json:"numeric"`
	Categorical map[string]map[string]float64 `json:"categorical"`
}

// ForestModel averages the outputs of its regression trees.
type ForestModel struct {
	Trees []Tree `json:"trees"`
}

// Tree is a flat node list; node 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is a split when Feature is set, otherwise a leaf holding Value.
// Numeric splits go left when x <= Threshold; categorical splits go left when
// the value is one of Categories.
type Node struct {
	Feature    string   `json:"feature,omitempty"`
	Threshold  *float64 `json:"threshold,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Left       int      `json:"left,omitempty"`
	Right      int      `json:"right,omitempty"`
	Value      float64  `json:"value,omitempty"`
}

// LoadArtifact reads and validates an artifact file.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	return &a, nil
}

// Validate checks the artifact is internally consistent.
func (a *Artifact) Validate() error {
	if len(a.Columns) == 0 {
		return errors.New("no columns")
	}
	known := make(map[string]bool, len(a.Columns))
	for _, c := range a.Columns {
		known[c] = true
	}

	switch a.Kind {
	case KindLinear:
		if a.Linear == nil {
			return errors.New("linear artifact without linear section")
		}
		for col := range a.Linear.Numeric {
			if !known[col] {
				return fmt.Errorf("coefficient for unknown column %q", col)
			}
		}
		for col := range a.Linear.Categorical {
			if !known[col] {
				return fmt.Errorf("weights for unknown column %q", col)
			}
		}
	case KindForest:
		if a.Forest == nil || len(a.Forest.Trees) == 0 {
			return errors.New("forest artifact without trees")
		}
		for i, t := range a.Forest.Trees {
			if err := t.validate(known); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("unknown artifact kind %q", a.Kind)
	}
	return nil
}

func (t Tree) validate(known map[string]bool) error {
	if len(t.Nodes) == 0 {
		return errors.New("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Feature == "" {
			continue
		}
		if !known[n.Feature] {
			return fmt.Errorf("node %d splits on unknown column %q", i, n.Feature)
		}
		if n.Threshold == nil && len(n.Categories) == 0 {
			return fmt.Errorf("node %d has neither threshold nor categories", i)
		}
		// Children must come after their parent, which also rules out cycles.
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}

// SchemaDiff lists the columns the artifact expects but the row lacks, and
// the columns the row carries that the artifact was not trained on.
type SchemaDiff struct {
	Missing    []string
	Unexpected []string
}

// Empty reports whether the two column sets match.
func (d SchemaDiff) Empty() bool {
	return len(d.Missing) == 0 && len(d.Unexpected) == 0
}

// Diff compares the artifact's columns with the given ones, ignoring order.
func (a *Artifact) Diff(columns []string) SchemaDiff {
	var d SchemaDiff
	for _, c := range a.Columns {
		if !slices.Contains(columns, c) {
			d.Missing = append(d.Missing, c)
		}
	}
	for _, c := range columns {
		if !slices.Contains(a.Columns, c) {
			d.Unexpected = append(d.Unexpected, c)
		}
	}
	return d
}

// Predict evaluates the model on one row. The row must already match Columns.
func (a *Artifact) Predict(row map[string]any) float64 {
	var y float64
	switch a.Kind {
	case KindLinear:
		y = a.Linear.predict(row)
	case KindForest:
		y = a.Forest.predict(row)
	}
	if a.ClipMin != nil {
		y = math.Max(y, *a.ClipMin)
	}
	return y
}

func (m *LinearModel) predict(row map[string]any) float64 {
	y := m.Intercept
	for col, w := range m.Numeric {
		if x, ok := numeric(row[col]); ok {
			y += w * x
		}
	}
	for col, weights := range m.Categorical {
		if s, ok := row[col].(string); ok {
			y += weights[s]
		}
	}
	return y
}

func (m *ForestModel) predict(row map[string]any) float64 {
	var sum float64
	for _, t := range m.Trees {
		sum += t.predict(row)
	}
	return sum / float64(len(m.Trees))
}

func (t Tree) predict(row map[string]any) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature == "" {
			return n.Value
		}
		if n.goesLeft(row[n.Feature]) {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func (n Node) goesLeft(v any) bool {
	if len(n.Categories) > 0 {
		s, _ := v.(string)
		return slices.Contains(n.Categories, s)
	}
	x, ok := numeric(v)
	return ok && x <= *n.Threshold
}

func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
