package models

import "time"

// Stage is a campaign's position in the guided workflow. Stages only move
// forward; content_generated and distributing may be re-entered any number
// of times.
type Stage string

const (
	StageCreated           Stage = "created"
	StageRound1Captured    Stage = "round1_captured"
	StageQuestionsIssued   Stage = "questions_issued"
	StageRound2Captured    Stage = "round2_captured"
	StagePlanGenerated     Stage = "plan_generated"
	StageMaterialsUploaded Stage = "materials_uploaded"
	StageContentGenerated  Stage = "content_generated"
	StageDistributing      Stage = "distributing"
	StageTracking          Stage = "tracking"
)

var stageRank = map[Stage]int{
	StageCreated:           0,
	StageRound1Captured:    1,
	StageQuestionsIssued:   2,
	StageRound2Captured:    3,
	StagePlanGenerated:     4,
	StageMaterialsUploaded: 5,
	StageContentGenerated:  6,
	StageDistributing:      7,
	StageTracking:          8,
}

// Rank returns the stage's position in the workflow order, or -1 for an
// unknown stage value.
func (s Stage) Rank() int {
	if r, ok := stageRank[s]; ok {
		return r
	}
	return -1
}

// Round1Data is the structured goal/objective/audience capture, set once
// at creation.
type Round1Data struct {
	Goal           string `json:"campaign_goal"`
	Objective      string `json:"objective"`
	TargetAudience string `json:"target_audience"`
}

// Question is one clarifying round-2 question descriptor.
type Question struct {
	Label     string `json:"label"`
	Type      string `json:"type"`
	FieldName string `json:"field_name"`
}

// Material is an uploaded-file descriptor. The materials list is
// append-only.
type Material struct {
	Filename    string `json:"filename"`
	StoragePath string `json:"storage_path"`
}

// Engagement is per-recipient open/click tracking state. Flags only flip
// false to true.
type Engagement struct {
	Opened  bool `json:"opened"`
	Clicked bool `json:"clicked"`
}

// Channel names for generated content.
const (
	ChannelEmail  = "email"
	ChannelSocial = "social"
)

// Campaign is one outreach workflow instance.
type Campaign struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Stage     Stage  `json:"stage"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`

	Round1          Round1Data            `json:"round1"`
	Round2Questions []Question            `json:"round2_questions"`
	Round2Answers   map[string]string     `json:"round2_answers"`
	Plan            string                `json:"plan,omitempty"`
	Materials       []Material            `json:"materials"`
	ContentEmail    []string              `json:"content_email"`
	ContentSocial   []string              `json:"content_social"`
	Recipients      []string              `json:"recipients"`
	Engagement      map[string]Engagement `json:"engagement"`
	ProgressPct     int                   `json:"progress_pct"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Advance moves the campaign forward to the given stage. Moving to an
// earlier or equal stage is a no-op; there is no rollback.
func (c *Campaign) Advance(s Stage) {
	if s.Rank() > c.Stage.Rank() {
		c.Stage = s
	}
}

// Content returns the generated content list for a channel.
func (c *Campaign) Content(channel string) []string {
	if channel == ChannelSocial {
		return c.ContentSocial
	}
	return c.ContentEmail
}

// ResetEngagement replaces the recipient list and re-initializes the
// engagement map so its key set exactly equals the new recipients.
func (c *Campaign) ResetEngagement(recipients []string) {
	c.Recipients = recipients
	c.Engagement = make(map[string]Engagement, len(recipients))
	for _, r := range recipients {
		c.Engagement[r] = Engagement{}
	}
}

// CampaignSummary is one row of the analytics aggregation.
type CampaignSummary struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	TotalRecipients int    `json:"total_recipients"`
	OpenedCount     int    `json:"opened_count"`
	ClickedCount    int    `json:"clicked_count"`
	ProgressPct     int    `json:"progress_pct"`
}
