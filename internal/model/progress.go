package model

import "math"

// TaskCounts holds the number of tasks in a project and how many are completed.
type TaskCounts struct {
	Total     int
	Completed int
}

type Progress struct {
	TotalTasks         int     `json:"totalTasks"`
	CompletedTasks     int     `json:"completedTasks"`
	ProgressPercentage float64 `json:"progressPercentage"`
}

// ComputeProgress returns completed/total*100 rounded to one decimal place (halves to even),
// or 0 for an empty project.
func ComputeProgress(c TaskCounts) Progress {
	p := Progress{TotalTasks: c.Total, CompletedTasks: c.Completed}
	if c.Total > 0 {
		p.ProgressPercentage = math.RoundToEven(float64(c.Completed)/float64(c.Total)*100*10) / 10
	}
	return p
}
