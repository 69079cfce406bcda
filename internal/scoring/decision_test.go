package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func uniform(v float64) SimulationScores {
	return SimulationScores{Sales: v, Leadership: v, Operations: v, CustomerExperience: v}
}

func TestDecideExtremes(t *testing.T) {
	assert.Equal(t, Recommended, Decide(uniform(10), 10))
	assert.Equal(t, Reject, Decide(uniform(0), 0))
}

func TestDecideTable(t *testing.T) {
	tests := []struct {
		name  string
		sim   SimulationScores
		logic float64
		want  Decision
	}{
		{
			name:  "store leader scenario",
			sim:   SimulationScores{Sales: 8, Leadership: 8, Operations: 7, CustomerExperience: 9},
			logic: 7,
			want:  Recommended,
		},
		{
			name:  "high weighted but weak logic",
			sim:   uniform(10),
			logic: 5,
			want:  Consider,
		},
		{
			name:  "exactly on the consider line",
			sim:   uniform(5),
			logic: 5,
			want:  Consider,
		},
		{
			name:  "just below consider",
			sim:   uniform(4.9),
			logic: 5,
			want:  Reject,
		},
		{
			name:  "exactly on recommended line",
			sim:   uniform(7.5),
			logic: 7.5,
			want:  Recommended,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.sim, tt.logic))
		})
	}
}

func TestDecideMonotonic(t *testing.T) {
	steps := []float64{0, 1, 2.5, 4, 5, 6, 7, 7.5, 8, 9, 10}

	for _, base := range steps {
		for i := 1; i < len(steps); i++ {
			lo, hi := steps[i-1], steps[i]

			assert.LessOrEqual(t, Decide(uniform(base), lo).Rank(), Decide(uniform(base), hi).Rank(),
				"logic %v -> %v with sim %v", lo, hi, base)

			sLo := SimulationScores{Sales: lo, Leadership: base, Operations: base, CustomerExperience: base}
			sHi := SimulationScores{Sales: hi, Leadership: base, Operations: base, CustomerExperience: base}
			assert.LessOrEqual(t, Decide(sLo, base).Rank(), Decide(sHi, base).Rank(),
				"sales %v -> %v with rest %v", lo, hi, base)

			cLo := SimulationScores{Sales: base, Leadership: base, Operations: base, CustomerExperience: lo}
			cHi := SimulationScores{Sales: base, Leadership: base, Operations: base, CustomerExperience: hi}
			assert.LessOrEqual(t, Decide(cLo, base).Rank(), Decide(cHi, base).Rank())
		}
	}
}

func TestWeighted(t *testing.T) {
	got := Weighted(SimulationScores{Sales: 8, Leadership: 8, Operations: 7, CustomerExperience: 9}, 7)
	assert.InDelta(t, 7.6, got, 1e-9)
}
