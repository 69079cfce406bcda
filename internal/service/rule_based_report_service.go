package service

import (
	"context"
	"fmt"
	"math"
	"strings"
)

const RuleBasedProvider = "rule_based"

// RuleBasedReportService derives a report from scores and the role name alone. It does no
// I/O and never fails, so it always closes the report chain.
type RuleBasedReportService struct{}

func NewRuleBasedReportService() *RuleBasedReportService {
	return &RuleBasedReportService{}
}

func (s *RuleBasedReportService) Name() string { return RuleBasedProvider }

func (s *RuleBasedReportService) SynthesizeReport(ctx context.Context, in ReportInput) (FinalReport, error) {
	return s.Generate(in), nil
}

func (s *RuleBasedReportService) Generate(in ReportInput) FinalReport {
	o, c, e, a, es := 50, 50, 50, 50, 50
	logic := in.LogicScore

	switch {
	case logic >= 8:
		o += 15
		c += 10
	case logic >= 6:
		o += 8
		c += 5
	case logic < 4:
		o -= 10
		c -= 5
	}

	role := strings.ToLower(in.RoleLabel)
	if strings.Contains(role, "sales") {
		e += 20
		a += 5
	}
	if strings.Contains(role, "mechanic") {
		c += 20
		o -= 10
	}
	if strings.Contains(role, "leader") {
		e += 10
		c += 10
		es += 10
	}
	if strings.Contains(role, "service") || strings.Contains(role, "advisor") || strings.Contains(role, "customer") {
		a += 15
		e += 5
	}
	if strings.Contains(role, "admin") {
		c += 15
		e -= 10
	}

	sim := in.Scores
	if sim.Leadership >= 7 {
		es += 10
	}
	if sim.CustomerExperience >= 7 {
		a += 10
	}
	if sim.Sales >= 7 {
		e += 5
	}
	if sim.Operations >= 7 {
		c += 5
	}

	traits := Traits{
		Openness:           clampInt(o, 10, 95),
		Conscientiousness:  clampInt(c, 10, 95),
		Extraversion:       clampInt(e, 10, 95),
		Agreeableness:      clampInt(a, 10, 95),
		EmotionalStability: clampInt(es, 10, 95),
	}

	culture := (sim.Operations + sim.Leadership) / 2 * 10
	switch {
	case logic >= 8:
		culture += 10
	case logic >= 6:
		culture += 5
	}
	cultureFit := clampInt(int(math.Round(culture)), 40, 98)

	structured := clampFloat((sim.Sales+sim.CustomerExperience)/2, 1, 10)
	structured = math.Round(structured*10) / 10

	return FinalReport{
		Summary:               ruleBasedSummary(in, traits, cultureFit, structured),
		Traits:                traits,
		CultureFitScore:       cultureFit,
		StructuredAnswerScore: structured,
		Source:                RuleBasedProvider,
	}
}

func ruleBasedSummary(in ReportInput, t Traits, cultureFit int, structured float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Executive Summary (automated):**\n%s was assessed for %s. ", nameOr(in.Profile.Name), in.RoleLabel)
	fmt.Fprintf(&b, "This report was generated from test scores because no AI provider was reachable.\n\n")
	fmt.Fprintf(&b, "**Cognitive:** logic score %.1f/10, %s.\n", in.LogicScore, logicBand(in.LogicScore))
	fmt.Fprintf(&b, "**Role-play:** sales %.1f, leadership %.1f, operations %.1f, customer experience %.1f. Strongest area: %s.\n",
		in.Scores.Sales, in.Scores.Leadership, in.Scores.Operations, in.Scores.CustomerExperience, strongestArea(in))
	fmt.Fprintf(&b, "**Culture fit:** %d/100. **Structured answers:** %.1f/10.\n", cultureFit, structured)
	fmt.Fprintf(&b, "**Dominant trait:** %s.\n", dominantTrait(t))
	if strings.TrimSpace(in.Feedback) != "" {
		fmt.Fprintf(&b, "\n**Interviewer notes:** %s\n", in.Feedback)
	}
	return b.String()
}

func nameOr(name string) string {
	if strings.TrimSpace(name) == "" {
		return "The candidate"
	}
	return name
}

func logicBand(score float64) string {
	switch {
	case score >= 8:
		return "strong reasoning"
	case score >= 6:
		return "adequate reasoning"
	case score >= 4:
		return "below target reasoning"
	default:
		return "weak reasoning"
	}
}

func strongestArea(in ReportInput) string {
	areas := []struct {
		name  string
		score float64
	}{
		{"sales", in.Scores.Sales},
		{"leadership", in.Scores.Leadership},
		{"operations", in.Scores.Operations},
		{"customer experience", in.Scores.CustomerExperience},
	}
	best := areas[0]
	for _, a := range areas[1:] {
		if a.score > best.score {
			best = a
		}
	}
	return best.name
}

func dominantTrait(t Traits) string {
	traits := []struct {
		name  string
		score int
	}{
		{"openness", t.Openness},
		{"conscientiousness", t.Conscientiousness},
		{"extraversion", t.Extraversion},
		{"agreeableness", t.Agreeableness},
		{"emotional stability", t.EmotionalStability},
	}
	best := traits[0]
	for _, tr := range traits[1:] {
		if tr.score > best.score {
			best = tr
		}
	}
	return best.name
}
