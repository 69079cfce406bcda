package scoring

// Decision is the three-way hire recommendation stored with every submission.
type Decision string

const (
	Recommended Decision = "Recommended"
	Consider    Decision = "Consider"
	Reject      Decision = "Reject"
)

const (
	simulationWeight    = 0.6
	logicWeight         = 0.4
	recommendedWeighted = 7.5
	recommendedLogicMin = 6.0
	considerWeighted    = 5.0
)

// SimulationScores are the four role-play axes, each on a 0-10 scale.
type SimulationScores struct {
	Sales              float64 `json:"sales"`
	Leadership         float64 `json:"leadership"`
	Operations         float64 `json:"operations"`
	CustomerExperience float64 `json:"cx"`
}

func (s SimulationScores) Mean() float64 {
	return (s.Sales + s.Leadership + s.Operations + s.CustomerExperience) / 4
}

// Weighted blends the simulation mean and the logic score 60/40.
func Weighted(sim SimulationScores, logicScore float64) float64 {
	return sim.Mean()*simulationWeight + logicScore*logicWeight
}

// Decide maps raw scores to a Decision. Recommended additionally requires a logic score of
// at least 6 so a strong interview cannot carry a weak reasoning result.
func Decide(sim SimulationScores, logicScore float64) Decision {
	weighted := Weighted(sim, logicScore)
	switch {
	case weighted >= recommendedWeighted && logicScore >= recommendedLogicMin:
		return Recommended
	case weighted >= considerWeighted:
		return Consider
	default:
		return Reject
	}
}

// Rank orders decisions so callers can compare them.
func (d Decision) Rank() int {
	switch d {
	case Recommended:
		return 2
	case Consider:
		return 1
	default:
		return 0
	}
}
