package service

import (
	"fmt"
	"strings"
)

const reportSchema = `Return JSON only, with this structure:
{
  "summary": "markdown executive summary",
  "psychometrics": {"openness": 0-100, "conscientiousness": 0-100, "extraversion": 0-100, "agreeableness": 0-100, "emotionalStability": 0-100},
  "cultureFitScore": 1-100,
  "starMethodScore": 1-10
}`

func buildReportPrompt(in ReportInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a senior industrial psychologist assessing a candidate for a workshop and retail business.\n\n")
	fmt.Fprintf(&b, "Candidate: %s (position: %s)\n", in.Profile.Name, in.RoleLabel)
	if in.Profile.Major != "" {
		fmt.Fprintf(&b, "Education: %s, %s\n", in.Profile.Education, in.Profile.Major)
	}
	if in.Profile.LastPosition != "" {
		fmt.Fprintf(&b, "Last position: %s at %s (%s years)\n", in.Profile.LastPosition, in.Profile.LastCompany, in.Profile.ExperienceYears)
	}
	fmt.Fprintf(&b, "\nLogic test score: %.1f/10\n", in.LogicScore)
	fmt.Fprintf(&b, "Role-play scores: sales %.1f, leadership %.1f, operations %.1f, customer experience %.1f\n",
		in.Scores.Sales, in.Scores.Leadership, in.Scores.Operations, in.Scores.CustomerExperience)
	fmt.Fprintf(&b, "Interviewer notes: %q\n\n", in.Feedback)
	b.WriteString("Assess cognitive ability, role knowledge, leadership and integrity. ")
	b.WriteString("Derive the Big Five traits strictly from behavioral evidence. ")
	b.WriteString("cultureFitScore reflects integrity and service orientation. ")
	b.WriteString("starMethodScore rates how structured the answers were.\n\n")
	b.WriteString(reportSchema)
	return b.String()
}
