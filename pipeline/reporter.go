package pipeline

import (
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Timed stages, in run order.
const (
	MappingStage        = "Mapping"
	AssemblyStage       = "Assembly"
	GapfillingStage     = "Gap-filling"
	SimplificationStage = "Graph simplification"
)

var timedStages = []string{MappingStage, AssemblyStage, GapfillingStage, SimplificationStage}

// Reporter measures the wall-clock time between stage boundaries.
type Reporter struct {
	now       func() time.Time
	last      time.Time
	durations map[string]float64
}

func NewReporter(now func() time.Time) *Reporter {
	if now == nil {
		now = time.Now
	}
	return &Reporter{now: now, last: now(), durations: map[string]float64{}}
}

// Mark closes the interval of stage: it lasted from the previous boundary
// until now.
func (r *Reporter) Mark(stage string) {
	t := r.now()
	r.durations[stage] = Round(t.Sub(r.last).Seconds())
	r.last = t
}

// Duration returns the seconds taken by stage and whether it was reached.
func (r *Reporter) Duration(stage string) (float64, bool) {
	d, ok := r.durations[stage]
	return d, ok
}

// Round rounds seconds to one decimal.
func Round(seconds float64) float64 {
	return math.Round(seconds*10) / 10
}

// Lines is the runtime summary block. Stages never reached are reported as
// not run.
func (r *Reporter) Lines() []string {
	lines := []string{"Runtime :"}
	for _, stage := range timedStages {
		if d, ok := r.durations[stage]; ok {
			lines = append(lines, fmt.Sprintf("\t%s : %.1f", stage, d))
		} else {
			lines = append(lines, fmt.Sprintf("\t%s : not run", stage))
		}
	}
	return lines
}

func (r *Reporter) Log(logger *slog.Logger) {
	for _, line := range r.Lines() {
		logger.Info(line, "STAGE", "report")
	}
}
