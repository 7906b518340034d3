package planner

import (
	"github.com/rparkin1/wealthNavigator-sub000/internal/cpm"
	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
	"github.com/rparkin1/wealthNavigator-sub000/internal/graph"
	"github.com/rparkin1/wealthNavigator-sub000/internal/validator"
)

// DefaultSlackNoticeMonths is the slack above which a goal gets a
// "can start later" recommendation.
const DefaultSlackNoticeMonths = 12

// Options configures an optimisation run.
type Options struct {
	AsOf              goal.Date
	HorizonMonths     int
	ConditionalAsHard bool
	SlackNoticeMonths int
}

func (o Options) validatorOptions() validator.Options {
	return validator.Options{
		AsOf:              o.AsOf,
		HorizonMonths:     o.HorizonMonths,
		ConditionalAsHard: o.ConditionalAsHard,
	}
}

func (o Options) slackNotice() int {
	if o.SlackNoticeMonths <= 0 {
		return DefaultSlackNoticeMonths
	}
	return o.SlackNoticeMonths
}

// Plan is the optimised ordering of a goal snapshot.
type Plan struct {
	OptimizedSequence   []string   `json:"optimized_sequence"`
	ParallelGroups      [][]string `json:"parallel_groups"`
	CriticalPath        []string   `json:"critical_path"`
	TotalDurationMonths int        `json:"total_duration_months"`
	Recommendations     []string   `json:"recommendations"`

	Warnings []validator.Issue `json:"-"`
	Schedule *cpm.Schedule     `json:"-"`
	Graph    *graph.Graph      `json:"-"`
}
