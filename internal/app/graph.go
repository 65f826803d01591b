package app

import (
	"fmt"

	"trip_planner/internal/domain"
)

// edge declares a stage and the stages whose output it reads.
type edge struct {
	stage domain.Stage
	after []domain.Stage
	state domain.PlanState
}

// pipeline is the planning dependency graph. Attractions and weather share a
// level and may run concurrently; everything else is strictly ordered.
var pipeline = []edge{
	{stage: domain.StageAttractions, state: domain.StateFetchingAttractionsAndWeather},
	{stage: domain.StageWeather, state: domain.StateFetchingAttractionsAndWeather},
	{stage: domain.StageHotel, after: []domain.Stage{domain.StageAttractions, domain.StageWeather}, state: domain.StateFetchingHotel},
	{stage: domain.StageCost, after: []domain.Stage{domain.StageHotel}, state: domain.StateCalculating},
	{stage: domain.StageCurrency, after: []domain.Stage{domain.StageCost}, state: domain.StateConverting},
	{stage: domain.StageItinerary, after: []domain.Stage{domain.StageCurrency}, state: domain.StateBuildingItinerary},
	{stage: domain.StageSummary, after: []domain.Stage{domain.StageItinerary}, state: domain.StateSummarizing},
}

type level struct {
	state  domain.PlanState
	stages []domain.Stage
}

// levels groups edges by longest-path depth. Stages within a level keep
// declaration order, which is also the order their diagnostics are merged in.
func levels(edges []edge) ([]level, error) {
	index := make(map[domain.Stage]int, len(edges))
	for i, e := range edges {
		if _, dup := index[e.stage]; dup {
			return nil, fmt.Errorf("stage %s declared twice", e.stage)
		}
		index[e.stage] = i
	}

	depth := make([]int, len(edges))
	const unvisited, visiting, done = 0, 1, 2
	mark := make([]int, len(edges))
	var visit func(i int) error
	visit = func(i int) error {
		switch mark[i] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("cycle through stage %s", edges[i].stage)
		}
		mark[i] = visiting
		d := 0
		for _, dep := range edges[i].after {
			j, ok := index[dep]
			if !ok {
				return fmt.Errorf("stage %s depends on unknown stage %s", edges[i].stage, dep)
			}
			if err := visit(j); err != nil {
				return err
			}
			if depth[j]+1 > d {
				d = depth[j] + 1
			}
		}
		depth[i] = d
		mark[i] = done
		return nil
	}
	for i := range edges {
		if err := visit(i); err != nil {
			return nil, err
		}
	}

	var out []level
	for i, e := range edges {
		for len(out) <= depth[i] {
			out = append(out, level{})
		}
		l := &out[depth[i]]
		if len(l.stages) == 0 {
			l.state = e.state
		}
		l.stages = append(l.stages, e.stage)
	}
	return out, nil
}

func mustLevels(edges []edge) []level {
	ls, err := levels(edges)
	if err != nil {
		panic(err)
	}
	return ls
}

var pipelineLevels = mustLevels(pipeline)
