package service

import (
	"math"
	"regexp"
	"strings"

	"github.com/fadilmartias/assessment-proctor/internal/assessment"
	"github.com/fadilmartias/assessment-proctor/internal/scoring"
	"github.com/tidwall/gjson"
)

var fencedJSON = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")

// ExtractAnalysis pulls the first fenced json block out of a reply. When it parses, the
// block is stripped from the text and returned as analysis. Anything else leaves the
// text untouched and yields no analysis.
func ExtractAnalysis(reply string) (string, *assessment.Analysis) {
	loc := fencedJSON.FindStringSubmatchIndex(reply)
	if loc == nil {
		return reply, nil
	}
	payload := reply[loc[2]:loc[3]]
	if !gjson.Valid(payload) {
		return reply, nil
	}
	doc := gjson.Parse(payload)
	if !doc.IsObject() {
		return reply, nil
	}

	analysis := &assessment.Analysis{
		Scores: scoring.SimulationScores{
			Sales:              clampScore(doc.Get("scores.sales").Float()),
			Leadership:         clampScore(doc.Get("scores.leadership").Float()),
			Operations:         clampScore(doc.Get("scores.operations").Float()),
			CustomerExperience: clampScore(doc.Get("scores.cx").Float()),
		},
		Feedback:      doc.Get("feedback").String(),
		InterviewOver: doc.Get("isInterviewOver").Bool(),
	}

	clean := strings.TrimSpace(reply[:loc[0]] + reply[loc[1]:])
	return clean, analysis
}

func clampScore(v float64) float64 {
	return clampFloat(v, 0, 10)
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// jsonPayload returns the body of a fenced block if there is one, otherwise the trimmed text.
func jsonPayload(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return strings.TrimSpace(text)
}

// parseReport reads a provider's report JSON leniently and normalizes every value into
// its documented range.
func parseReport(text string) (FinalReport, error) {
	payload := jsonPayload(text)
	if !gjson.Valid(payload) {
		return FinalReport{}, ErrInvalidReport
	}
	doc := gjson.Parse(payload)
	traits := doc.Get("psychometrics")
	if !traits.IsObject() {
		return FinalReport{}, ErrInvalidReport
	}
	summary := strings.TrimSpace(doc.Get("summary").String())
	if summary == "" {
		return FinalReport{}, ErrInvalidReport
	}

	trait := func(key string) int {
		return clampInt(int(math.Round(traits.Get(key).Float())), 0, 100)
	}
	stability := traits.Get("emotionalStability")
	if !stability.Exists() {
		stability = traits.Get("emotional_stability")
	}

	return FinalReport{
		Summary: summary,
		Traits: Traits{
			Openness:           trait("openness"),
			Conscientiousness:  trait("conscientiousness"),
			Extraversion:       trait("extraversion"),
			Agreeableness:      trait("agreeableness"),
			EmotionalStability: clampInt(int(math.Round(stability.Float())), 0, 100),
		},
		CultureFitScore:       clampInt(int(math.Round(doc.Get("cultureFitScore").Float())), 1, 100),
		StructuredAnswerScore: clampFloat(doc.Get("starMethodScore").Float(), 1, 10),
	}, nil
}
