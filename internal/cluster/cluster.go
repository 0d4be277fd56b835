// Package cluster merges records that mention the same company into one canonical record.
package cluster

import (
	"sort"
	"strings"

	"funding_digest/internal/models"
)

// Group is the set of records sharing a cluster key, in input order.
type Group struct {
	Key     string
	Members []models.Record
}

// Engine groups records by cluster key and picks a canonical member by source priority.
type Engine struct {
	priority map[string]int
}

// New builds an engine from the source priority table, highest priority first.
// Source names are compared case-insensitively.
func New(sourcePriority []string) *Engine {
	priority := make(map[string]int, len(sourcePriority))
	for i, s := range sourcePriority {
		key := strings.ToLower(strings.TrimSpace(s))
		if _, ok := priority[key]; !ok {
			priority[key] = i
		}
	}
	return &Engine{priority: priority}
}

// Rank returns the priority of a source. Unlisted sources rank after every listed one.
func (e *Engine) Rank(source string) int {
	if r, ok := e.priority[strings.ToLower(strings.TrimSpace(source))]; ok {
		return r
	}
	return len(e.priority)
}

// Group partitions records by cluster key. Groups appear in order of their first member.
func (e *Engine) Group(records []models.Record) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, r := range records {
		i, ok := index[r.ClusterKey]
		if !ok {
			i = len(groups)
			index[r.ClusterKey] = i
			groups = append(groups, Group{Key: r.ClusterKey})
		}
		groups[i].Members = append(groups[i].Members, r)
	}
	return groups
}

// Canonical orders the group's members by source priority and returns the first,
// with Coverage set to the group size. Members with equal priority keep input order.
func (e *Engine) Canonical(g Group) models.Record {
	members := make([]models.Record, len(g.Members))
	copy(members, g.Members)
	sort.SliceStable(members, func(i, j int) bool {
		return e.Rank(members[i].Article.Source) < e.Rank(members[j].Article.Source)
	})
	canonical := members[0]
	canonical.Coverage = len(members)
	return canonical
}

// Cluster returns one canonical record per cluster key.
func (e *Engine) Cluster(records []models.Record) []models.Record {
	groups := e.Group(records)
	out := make([]models.Record, 0, len(groups))
	for _, g := range groups {
		out = append(out, e.Canonical(g))
	}
	return out
}
