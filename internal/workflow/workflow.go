// Package workflow drives a campaign through its guided stages: round-1
// capture, clarifying questions, plan synthesis, material upload, content
// generation and distribution. Stages only move forward.
package workflow

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sailnathona/ImpactHub/internal/models"
	"github.com/sailnathona/ImpactHub/internal/schedule"
	"github.com/sailnathona/ImpactHub/pkg/logging"
)

// ErrStageOrder is returned when an operation arrives before the stage
// that unlocks it.
var ErrStageOrder = errors.New("campaign has not reached the required stage")

// ErrNoRecipients is returned when a send has no recipient list, neither
// in the request nor stored on the campaign.
var ErrNoRecipients = errors.New("campaign has no recipients")

// needsSuggestionsSuffix marks a non-answer so the plan prompt can tell
// the model to propose options for that field.
const needsSuggestionsSuffix = " (Needs suggestions)"

// materialPromptCount is the batch size requested per channel after a
// material upload.
const materialPromptCount = 50

// Store is the campaign persistence surface the workflow needs.
type Store interface {
	CreateCampaign(ctx context.Context, c *models.Campaign) error
	GetCampaign(ctx context.Context, id string) (*models.Campaign, error)
	ListCampaigns(ctx context.Context) ([]*models.Campaign, error)
	UpdateCampaign(ctx context.Context, c *models.Campaign) error
	DeleteCampaign(ctx context.Context, id string) error
}

// ContentGenerator produces AI-backed artifacts. Every method degrades to
// an empty result rather than failing.
type ContentGenerator interface {
	ClarifyingQuestions(ctx context.Context, round1 models.Round1Data) ([]models.Question, bool)
	Plan(ctx context.Context, round1 models.Round1Data, answers map[string]string) (string, bool)
	ChannelContent(ctx context.Context, c *models.Campaign, channel string) ([]string, bool)
	MaterialPrompts(ctx context.Context, materials []models.Material, channel string, count int) ([]string, bool)
}

type Service struct {
	store   Store
	content ContentGenerator
	logger  logging.Logger
	now     func() time.Time
}

func NewService(store Store, content ContentGenerator, logger logging.Logger) *Service {
	return &Service{store: store, content: content, logger: logger, now: time.Now}
}

// CreateRequest is the round-1 capture: the campaign basics plus the two
// schedule inputs, each an exact date or a relative offset.
type CreateRequest struct {
	Name           string `json:"name"`
	Goal           string `json:"campaign_goal"`
	Objective      string `json:"objective"`
	TargetAudience string `json:"target_audience"`
	StartKind      string `json:"start_kind"`
	StartValue     string `json:"start_value"`
	EndKind        string `json:"end_kind"`
	EndValue       string `json:"end_value"`
}

// Create captures round 1, resolves the schedule and issues the round-2
// questions. The degraded flag reports that question generation fell back
// to an empty list.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Campaign, bool, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, false, fmt.Errorf("campaign name is required")
	}

	c := &models.Campaign{
		ID:    NewCampaignID(),
		Name:  strings.TrimSpace(req.Name),
		Stage: models.StageCreated,
		Round1: models.Round1Data{
			Goal:           strings.TrimSpace(req.Goal),
			Objective:      strings.TrimSpace(req.Objective),
			TargetAudience: strings.TrimSpace(req.TargetAudience),
		},
		StartDate:       schedule.ResolveDate(req.StartKind, req.StartValue),
		EndDate:         schedule.ResolveDate(req.EndKind, req.EndValue),
		Round2Questions: []models.Question{},
		Round2Answers:   map[string]string{},
		Materials:       []models.Material{},
		ContentEmail:    []string{},
		ContentSocial:   []string{},
		Recipients:      []string{},
		Engagement:      map[string]models.Engagement{},
	}
	c.Advance(models.StageRound1Captured)

	questions, degraded := s.content.ClarifyingQuestions(ctx, c.Round1)
	c.Round2Questions = questions
	c.Advance(models.StageQuestionsIssued)
	schedule.Recompute(c, s.now())

	if err := s.store.CreateCampaign(ctx, c); err != nil {
		return nil, false, err
	}
	s.logger.WithField("campaign_id", c.ID).WithField("name", c.Name).
		Info("Campaign created")
	return c, degraded, nil
}

// SubmitAnswers records the round-2 answers and synthesizes the plan.
// Only answers matching an issued question are kept; non-answers get the
// needs-suggestions annotation. The degraded flag reports a sentinel plan.
func (s *Service) SubmitAnswers(ctx context.Context, id string, answers map[string]string) (*models.Campaign, bool, error) {
	c, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if c.Stage.Rank() < models.StageQuestionsIssued.Rank() {
		return nil, false, fmt.Errorf("%w: answers need issued questions", ErrStageOrder)
	}

	// Every issued question gets an entry; an unanswered one is stored
	// empty so the plan prompt sees the full questionnaire.
	c.Round2Answers = map[string]string{}
	for _, q := range c.Round2Questions {
		c.Round2Answers[q.FieldName] = AnnotateAnswer(answers[q.FieldName])
	}
	c.Advance(models.StageRound2Captured)

	plan, degraded := s.content.Plan(ctx, c.Round1, c.Round2Answers)
	c.Plan = plan
	c.Advance(models.StagePlanGenerated)
	schedule.Recompute(c, s.now())

	if err := s.store.UpdateCampaign(ctx, c); err != nil {
		return nil, false, err
	}
	return c, degraded, nil
}

// AddMaterials appends uploaded materials and seeds both channels with a
// prompt batch derived from them.
func (s *Service) AddMaterials(ctx context.Context, id string, materials []models.Material) (*models.Campaign, bool, error) {
	c, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if c.Stage.Rank() < models.StagePlanGenerated.Rank() {
		return nil, false, fmt.Errorf("%w: materials need a generated plan", ErrStageOrder)
	}

	c.Materials = append(c.Materials, materials...)
	c.Advance(models.StageMaterialsUploaded)

	emailPrompts, emailDegraded := s.content.MaterialPrompts(ctx, c.Materials, models.ChannelEmail, materialPromptCount)
	socialPrompts, socialDegraded := s.content.MaterialPrompts(ctx, c.Materials, models.ChannelSocial, materialPromptCount)
	c.ContentEmail = emailPrompts
	c.ContentSocial = socialPrompts
	c.Advance(models.StageContentGenerated)
	schedule.Recompute(c, s.now())

	if err := s.store.UpdateCampaign(ctx, c); err != nil {
		return nil, false, err
	}
	return c, emailDegraded || socialDegraded, nil
}

// RegenerateContent replaces one channel's content list. Re-entry is
// allowed any time after the plan exists.
func (s *Service) RegenerateContent(ctx context.Context, id, channel string) (*models.Campaign, bool, error) {
	if channel != models.ChannelEmail && channel != models.ChannelSocial {
		return nil, false, fmt.Errorf("unknown content channel %q", channel)
	}
	c, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if c.Stage.Rank() < models.StagePlanGenerated.Rank() {
		return nil, false, fmt.Errorf("%w: content needs a generated plan", ErrStageOrder)
	}

	items, degraded := s.content.ChannelContent(ctx, c, channel)
	if channel == models.ChannelSocial {
		c.ContentSocial = items
	} else {
		c.ContentEmail = items
	}
	c.Advance(models.StageContentGenerated)
	schedule.Recompute(c, s.now())

	if err := s.store.UpdateCampaign(ctx, c); err != nil {
		return nil, false, err
	}
	return c, degraded, nil
}

// SetRecipients replaces the recipient list, resets engagement tracking
// to exactly that list and moves the campaign into distribution.
func (s *Service) SetRecipients(ctx context.Context, id string, recipients []string) (*models.Campaign, error) {
	c, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Stage.Rank() < models.StageContentGenerated.Rank() {
		return nil, fmt.Errorf("%w: distribution needs generated content", ErrStageOrder)
	}

	c.ResetEngagement(recipients)
	c.Advance(models.StageDistributing)
	schedule.Recompute(c, s.now())

	if err := s.store.UpdateCampaign(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// PrepareDistribution readies a campaign for a send. A non-empty list
// replaces the recipients while keeping tracking state for the ones that
// stay on it; an empty list reuses the stored recipients as-is. Tracking
// state is only wiped through SetRecipients.
func (s *Service) PrepareDistribution(ctx context.Context, id string, recipients []string) (*models.Campaign, error) {
	c, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Stage.Rank() < models.StageContentGenerated.Rank() {
		return nil, fmt.Errorf("%w: distribution needs generated content", ErrStageOrder)
	}

	if len(recipients) > 0 {
		merged := make(map[string]models.Engagement, len(recipients))
		for _, r := range recipients {
			merged[r] = c.Engagement[r]
		}
		c.Recipients = recipients
		c.Engagement = merged
	} else if len(c.Recipients) == 0 {
		return nil, ErrNoRecipients
	}
	c.Advance(models.StageDistributing)
	schedule.Recompute(c, s.now())

	if err := s.store.UpdateCampaign(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns a campaign with its schedule progress recomputed for today.
func (s *Service) Get(ctx context.Context, id string) (*models.Campaign, error) {
	c, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	schedule.Recompute(c, s.now())
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Campaign, error) {
	campaigns, err := s.store.ListCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, c := range campaigns {
		schedule.Recompute(c, now)
	}
	return campaigns, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteCampaign(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("campaign_id", id).Info("Campaign deleted")
	return nil
}

// AnnotateAnswer marks non-answers (idk/no/none, case-insensitive) so the
// plan prompt treats the field as open. The stored value keeps the user's
// trimmed text.
func AnnotateAnswer(answer string) string {
	trimmed := strings.TrimSpace(answer)
	switch strings.ToLower(trimmed) {
	case "idk", "no", "none":
		return trimmed + needsSuggestionsSuffix
	}
	return trimmed
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewCampaignID returns an 8-character base36 identifier.
func NewCampaignID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process has bigger problems.
		panic(fmt.Sprintf("read random campaign id: %v", err))
	}
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(buf)
}
