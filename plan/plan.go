// Package plan is the in-memory description of a compiled delivery pipeline:
// ordered stages of ordered actions, plus the resource-creation intents each
// environment needs. A plan is inert data; nothing here talks to a provider.
package plan

import (
	"fmt"
	"sort"
)

// Pipeline is a compiled pipeline definition.
type Pipeline struct {
	Name          string            `json:"name" yaml:"name"`
	ID            string            `json:"id" yaml:"id"`
	Variant       string            `json:"variant" yaml:"variant"`
	Source        Stage             `json:"source" yaml:"source"`
	Notifications *Notifications    `json:"notifications,omitempty" yaml:"notifications,omitempty"`
	Shared        []Resource        `json:"shared,omitempty" yaml:"shared,omitempty"`
	Environments  []EnvironmentPlan `json:"environments" yaml:"environments"`
	Stages        []Stage           `json:"stages" yaml:"stages"`
}

// Notifications subscribes an external topic to pipeline state changes.
type Notifications struct {
	Topic  Ref      `json:"topic" yaml:"topic"`
	Events []string `json:"events" yaml:"events"`
}

// EnvironmentPlan groups everything one environment contributes.
type EnvironmentPlan struct {
	Name         string          `json:"name" yaml:"name"`
	StageName    string          `json:"stageName" yaml:"stageName"`
	Bundle       *ResourceBundle `json:"bundle,omitempty" yaml:"bundle,omitempty"`
	Parameters   []Resource      `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	BuildProject *Resource       `json:"buildProject,omitempty" yaml:"buildProject,omitempty"`
}

// Resources returns the environment's resource intents in creation order.
func (e EnvironmentPlan) Resources() []Resource {
	out := append([]Resource(nil), e.Parameters...)
	if e.BuildProject != nil {
		out = append(out, *e.BuildProject)
	}
	if e.Bundle != nil {
		out = append(out, e.Bundle.Resources()...)
	}
	return out
}

// ResourceBundle is the per-environment resource set of a CDN pipeline.
type ResourceBundle struct {
	Store          Resource  `json:"store" yaml:"store"`
	AccessIdentity Resource  `json:"accessIdentity" yaml:"accessIdentity"`
	Distribution   Resource  `json:"distribution" yaml:"distribution"`
	AliasRecord    *Resource `json:"aliasRecord,omitempty" yaml:"aliasRecord,omitempty"`
}

// Resources returns store, access identity, distribution and, when present,
// the alias record. This is the order they must be created in.
func (b ResourceBundle) Resources() []Resource {
	out := []Resource{b.Store, b.AccessIdentity, b.Distribution}
	if b.AliasRecord != nil {
		out = append(out, *b.AliasRecord)
	}
	return out
}

// Stage is an ordered, named group of actions.
type Stage struct {
	Name    string   `json:"name" yaml:"name"`
	Actions []Action `json:"actions" yaml:"actions"`
}

// CheckRunOrder verifies that run orders start at 1 and increase by one per
// action.
func (s Stage) CheckRunOrder() error {
	for i, a := range s.Actions {
		if a.RunOrder != i+1 {
			return fmt.Errorf("stage %s: action %s has run order %d, want %d", s.Name, a.Name, a.RunOrder, i+1)
		}
	}
	return nil
}

// Lookup returns the resource with the given logical ID.
func (p *Pipeline) Lookup(id string) (Resource, bool) {
	for _, r := range p.Shared {
		if r.ID == id {
			return r, true
		}
	}
	for _, env := range p.Environments {
		for _, r := range env.Resources() {
			if r.ID == id {
				return r, true
			}
		}
	}
	return Resource{}, false
}

// Counts returns the number of resource intents per kind, including shared
// resources.
func (p *Pipeline) Counts() map[ResourceKind]int {
	counts := make(map[ResourceKind]int)
	for _, r := range p.Shared {
		counts[r.Kind]++
	}
	for _, env := range p.Environments {
		for _, r := range env.Resources() {
			counts[r.Kind]++
		}
	}
	return counts
}

// ActionCount returns the number of actions across all environment stages.
func (p *Pipeline) ActionCount(kind ActionKind) int {
	n := 0
	for _, s := range p.Stages {
		for _, a := range s.Actions {
			if a.Kind == kind {
				n++
			}
		}
	}
	return n
}

// SortedKinds returns the keys of counts in a stable order.
func SortedKinds(counts map[ResourceKind]int) []ResourceKind {
	kinds := make([]ResourceKind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
