package assessment

import (
	"sort"
	"strings"
)

// Role is a position candidates can be assessed for.
type Role struct {
	ID                 string `json:"id"`
	Label              string `json:"label"`
	Description        string `json:"description"`
	OpeningScenario    string `json:"-"`
	SystemInstructions string `json:"-"`
}

// QuestionSet identifies a logic-test paper. The questions themselves live in the client.
type QuestionSet struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

type Catalog struct {
	roles        map[string]Role
	questionSets map[string]QuestionSet
}

func NewCatalog(roles []Role, sets []QuestionSet) *Catalog {
	c := &Catalog{
		roles:        make(map[string]Role, len(roles)),
		questionSets: make(map[string]QuestionSet, len(sets)),
	}
	for _, r := range roles {
		c.roles[r.ID] = r
	}
	for _, s := range sets {
		c.questionSets[s.ID] = s
	}
	return c
}

func (c *Catalog) Role(id string) (Role, bool) {
	r, ok := c.roles[strings.TrimSpace(id)]
	return r, ok
}

func (c *Catalog) QuestionSet(id string) (QuestionSet, bool) {
	s, ok := c.questionSets[strings.TrimSpace(id)]
	return s, ok
}

func (c *Catalog) Roles() []Role {
	out := make([]Role, 0, len(c.roles))
	for _, r := range c.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Catalog) QuestionSets() []QuestionSet {
	out := make([]QuestionSet, 0, len(c.questionSets))
	for _, s := range c.questionSets {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

const analysisContract = "After every reply append one fenced ```json block with " +
	`{"scores":{"sales":0-10,"leadership":0-10,"operations":0-10,"cx":0-10},` +
	`"feedback":"short assessment","isInterviewOver":true|false}. ` +
	"Set isInterviewOver to true once you have enough evidence, at most after eight candidate turns."

// DefaultCatalog is the built-in set of workshop and retail roles.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Role{
		{
			ID:              "store_leader",
			Label:           "Store Leader",
			Description:     "Runs a workshop outlet: staff, targets, SOP discipline and escalations.",
			OpeningScenario: "It is Saturday morning, three cars are waiting, one mechanic called in sick and a regular customer is angry about a delayed service. What do you do first?",
			SystemInstructions: "You role-play a busy workshop situation with a Store Leader candidate. " +
				"Probe ownership, team handling, upselling honesty and SOP adherence. " + analysisContract,
		},
		{
			ID:              "service_advisor",
			Label:           "Service Advisor",
			Description:     "Front-office advisor: explains repairs, builds quotes and keeps customers informed.",
			OpeningScenario: "A customer brought the car in for an oil change, but the inspection shows worn brake pads. How do you explain it to them?",
			SystemInstructions: "You play a customer talking to a Service Advisor candidate. " +
				"Probe clarity, honesty, structured explanations and customer care. " + analysisContract,
		},
		{
			ID:              "mechanic",
			Label:           "Mechanic",
			Description:     "Technician: diagnostics, SOP-driven repairs and workshop safety.",
			OpeningScenario: "A car comes in with a rough idle and the check-engine light on. Walk me through how you would diagnose it.",
			SystemInstructions: "You play a workshop head interviewing a Mechanic candidate. " +
				"Probe diagnostic structure, safety discipline and honesty about mistakes. " + analysisContract,
		},
		{
			ID:              "sales_counter",
			Label:           "Sales Counter",
			Description:     "Parts and accessories sales at the counter.",
			OpeningScenario: "A customer asks for the cheapest tyres you have for a family car they drive on the highway every week. How do you respond?",
			SystemInstructions: "You play a customer at the parts counter talking to a Sales candidate. " +
				"Probe needs discovery, honest upselling and product knowledge. " + analysisContract,
		},
	}, []QuestionSet{
		{ID: "set_a", Description: "Numerical and verbal reasoning, standard difficulty."},
		{ID: "set_b", Description: "Abstract reasoning and workshop logic, higher difficulty."},
	})
}
