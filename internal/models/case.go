package models

import (
	"time"

	"gorm.io/datatypes"
)

// UnknownSystem is the label used when no system could be identified.
const UnknownSystem = "Unknown"

type ResolutionMethod string

const (
	ResolutionFirstSuggestion ResolutionMethod = "first_suggestion"
	ResolutionCustomSolution  ResolutionMethod = "custom_solution"
	ResolutionNotResolved     ResolutionMethod = "not_resolved"
)

// Case is a resolved support incident: one knowledge-base entry.
// EffectivenessScore is nil exactly when FeedbackCount is zero.
type Case struct {
	ID                 uint                        `json:"id" gorm:"primaryKey"`
	ProblemDescription string                      `json:"problemDescription" gorm:"type:text;not null"`
	Solution           string                      `json:"solution" gorm:"type:text;not null"`
	SystemType         string                      `json:"systemType" gorm:"size:100;not null;default:'Unknown';index"`
	CreatedAt          time.Time                   `json:"createdAt" gorm:"index"`
	UpdatedAt          time.Time                   `json:"updatedAt"`
	EffectivenessScore *float64                    `json:"effectivenessScore"`
	FeedbackCount      int                         `json:"feedbackCount" gorm:"not null;default:0"`
	Tags               datatypes.JSONSlice[string] `json:"tags"`

	Feedbacks []CaseFeedback `json:"-" gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE"`
}

func (Case) TableName() string {
	return "cases"
}

// ApplyFeedback folds one 1..5 score into the running mean.
func (c *Case) ApplyFeedback(score int) {
	if c.EffectivenessScore == nil || c.FeedbackCount == 0 {
		s := float64(score)
		c.EffectivenessScore = &s
		c.FeedbackCount = 1
		return
	}
	mean := (*c.EffectivenessScore*float64(c.FeedbackCount) + float64(score)) / float64(c.FeedbackCount+1)
	c.EffectivenessScore = &mean
	c.FeedbackCount++
}

// Text is the problem and solution joined, as used by text search.
func (c *Case) Text() string {
	return c.ProblemDescription + " " + c.Solution
}

// CaseFeedback is one rating event owned by a Case.
type CaseFeedback struct {
	ID                 uint             `json:"id" gorm:"primaryKey"`
	CaseID             uint             `json:"caseId" gorm:"not null;index"`
	EffectivenessScore int              `json:"effectivenessScore" gorm:"not null"`
	ResolutionMethod   ResolutionMethod `json:"resolutionMethod" gorm:"size:50"`
	CustomSolution     string           `json:"customSolution" gorm:"type:text"`
	CreatedAt          time.Time        `json:"createdAt"`
}

func (CaseFeedback) TableName() string {
	return "case_feedbacks"
}
