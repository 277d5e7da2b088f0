package model

import "time"

// Satisfaction labels are the exact ordinal values stored in survey
// responses. The weight map is the single source of truth for scoring;
// any label outside this set is excluded from satisfaction math.
const (
	SatisfactionVeryHigh = "Muito satisfeito"
	SatisfactionHigh     = "Satisfeito"
	SatisfactionNeutral  = "Neutro"
	SatisfactionLow      = "Insatisfeito"
	SatisfactionVeryLow  = "Muito insatisfeito"
)

// SatisfactionWeights maps each ordinal label to its integer weight.
var SatisfactionWeights = map[string]int{
	SatisfactionVeryHigh: 5,
	SatisfactionHigh:     4,
	SatisfactionNeutral:  3,
	SatisfactionLow:      2,
	SatisfactionVeryLow:  1,
}

// SatisfactionOrder lists the labels from most to least satisfied, used
// wherever a stable breakdown ordering is required.
var SatisfactionOrder = []string{
	SatisfactionVeryHigh,
	SatisfactionHigh,
	SatisfactionNeutral,
	SatisfactionLow,
	SatisfactionVeryLow,
}

// CitizenRecord is one contact in the municipal survey dataset.
// This subsystem only ever reads these records; all mutation happens in
// the collaborating registration service.
type CitizenRecord struct {
	ID           string          `json:"id" bson:"_id"`
	Name         string          `json:"name" bson:"name"`
	Age          *int            `json:"age,omitempty" bson:"age,omitempty"`
	Neighborhood string          `json:"neighborhood" bson:"neighborhood"`
	Channel      string          `json:"channel" bson:"channel"`
	SentAt       *time.Time      `json:"sent_at,omitempty" bson:"sent_at,omitempty"`
	DeliveredAt  *time.Time      `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
	ClickedAt    *time.Time      `json:"clicked_at,omitempty" bson:"clicked_at,omitempty"`
	Survey       *SurveyResponse `json:"survey,omitempty" bson:"survey,omitempty"`
}

// SurveyResponse holds the answers a citizen gave, if any.
type SurveyResponse struct {
	Issue            string     `json:"issue,omitempty" bson:"issue,omitempty"`
	OtherIssueDetail string     `json:"other_issue_detail,omitempty" bson:"other_issue_detail,omitempty"`
	Satisfaction     string     `json:"satisfaction,omitempty" bson:"satisfaction,omitempty"`
	Participate      string     `json:"participate,omitempty" bson:"participate,omitempty"`
	AnsweredAt       *time.Time `json:"answered_at,omitempty" bson:"answered_at,omitempty"`
}

// Answered reports whether the record carries a completed survey.
func (r *CitizenRecord) Answered() bool {
	return r.Survey != nil && r.Survey.AnsweredAt != nil
}

// Clicked reports whether the citizen opened the survey link.
func (r *CitizenRecord) Clicked() bool {
	return r.ClickedAt != nil
}

// Sent reports whether the survey message left the outbox.
func (r *CitizenRecord) Sent() bool {
	return r.SentAt != nil
}

// SatisfactionWeight returns the ordinal weight of the record's
// satisfaction answer, or 0 if the record has no recognizable answer.
func (r *CitizenRecord) SatisfactionWeight() int {
	if r.Survey == nil {
		return 0
	}
	return SatisfactionWeights[r.Survey.Satisfaction]
}

// Dissatisfied reports whether the satisfaction answer falls in the
// bottom two ordinal labels.
func (r *CitizenRecord) Dissatisfied() bool {
	if r.Survey == nil {
		return false
	}
	return r.Survey.Satisfaction == SatisfactionLow || r.Survey.Satisfaction == SatisfactionVeryLow
}

// Satisfied reports whether the satisfaction answer falls in the top
// two ordinal labels.
func (r *CitizenRecord) Satisfied() bool {
	if r.Survey == nil {
		return false
	}
	return r.Survey.Satisfaction == SatisfactionHigh || r.Survey.Satisfaction == SatisfactionVeryHigh
}
