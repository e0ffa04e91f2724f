package tasklist

import (
	"sort"
	"strconv"

	"github.com/mrz1836/deepplan/internal/domain"
)

// BuildDependencyGraph converts the semantic dependency map into
// position-indexed blocks/blockedBy edges using this run's semantic to
// position mapping.
//
// Only positions present in tasks receive edges; semantic IDs absent from
// the mapping are skipped. blocks is derived as the exact inverse of
// blockedBy. Edges within each array are sorted numerically so output is
// deterministic across runs.
//
// The mapping is rebuilt every run — edges baked into old on-disk records
// are overwritten at write time, never merged.
func BuildDependencyGraph(
	tasks []domain.Task,
	semanticDeps map[domain.SemanticID][]domain.SemanticID,
	semanticToPosition map[domain.SemanticID]domain.Position,
) domain.DependencyGraph {
	blocks := make(map[domain.Position][]string, len(tasks))
	blockedBy := make(map[domain.Position][]string, len(tasks))
	for _, t := range tasks {
		blocks[t.Position] = []string{}
		blockedBy[t.Position] = []string{}
	}

	for semanticID, deps := range semanticDeps {
		position, ok := semanticToPosition[semanticID]
		if !ok {
			continue
		}
		if _, present := blockedBy[position]; !present {
			continue
		}
		for _, depID := range deps {
			depPosition, depOK := semanticToPosition[depID]
			if !depOK {
				continue
			}
			blockedBy[position] = append(blockedBy[position], depPosition.String())
		}
	}

	for position, deps := range blockedBy {
		for _, depStr := range deps {
			dep, err := strconv.Atoi(depStr)
			if err != nil {
				continue
			}
			depPosition := domain.Position(dep)
			if _, present := blocks[depPosition]; present {
				blocks[depPosition] = append(blocks[depPosition], position.String())
			}
		}
	}

	graph := make(domain.DependencyGraph, len(tasks))
	for position := range blocks {
		sortPositionStrings(blocks[position])
		sortPositionStrings(blockedBy[position])
		graph[position] = domain.DependencyEdges{
			Blocks:    blocks[position],
			BlockedBy: blockedBy[position],
		}
	}
	return graph
}

// sortPositionStrings sorts position strings numerically in place.
func sortPositionStrings(positions []string) {
	sort.Slice(positions, func(i, j int) bool {
		a, _ := strconv.Atoi(positions[i])
		b, _ := strconv.Atoi(positions[j])
		return a < b
	})
}
