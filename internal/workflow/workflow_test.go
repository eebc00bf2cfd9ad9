package workflow

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/sailnathona/ImpactHub/internal/models"
	"github.com/sailnathona/ImpactHub/internal/store"
	"github.com/sailnathona/ImpactHub/pkg/logging"
)

type fakeStore struct {
	campaigns map[string]*models.Campaign
	updateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{campaigns: map[string]*models.Campaign{}}
}

func (f *fakeStore) CreateCampaign(_ context.Context, c *models.Campaign) error {
	copied := *c
	f.campaigns[c.ID] = &copied
	return nil
}

func (f *fakeStore) GetCampaign(_ context.Context, id string) (*models.Campaign, error) {
	c, ok := f.campaigns[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeStore) ListCampaigns(context.Context) ([]*models.Campaign, error) {
	var out []*models.Campaign
	for _, c := range f.campaigns {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeStore) UpdateCampaign(_ context.Context, c *models.Campaign) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.campaigns[c.ID]; !ok {
		return store.ErrNotFound
	}
	copied := *c
	f.campaigns[c.ID] = &copied
	return nil
}

func (f *fakeStore) DeleteCampaign(_ context.Context, id string) error {
	if _, ok := f.campaigns[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.campaigns, id)
	return nil
}

type fakeContent struct {
	questions []models.Question
	plan      string
	items     []string
	prompts   []string
	degraded  bool
}

func (f *fakeContent) ClarifyingQuestions(context.Context, models.Round1Data) ([]models.Question, bool) {
	if f.degraded {
		return []models.Question{}, true
	}
	return f.questions, false
}

func (f *fakeContent) Plan(context.Context, models.Round1Data, map[string]string) (string, bool) {
	if f.degraded {
		return "Error generating final campaign plan.", true
	}
	return f.plan, false
}

func (f *fakeContent) ChannelContent(context.Context, *models.Campaign, string) ([]string, bool) {
	if f.degraded {
		return []string{}, true
	}
	return f.items, false
}

func (f *fakeContent) MaterialPrompts(context.Context, []models.Material, string, int) ([]string, bool) {
	if f.degraded {
		return []string{}, true
	}
	return f.prompts, false
}

func defaultContent() *fakeContent {
	return &fakeContent{
		questions: []models.Question{
			{Label: "Budget?", Type: "text", FieldName: "budget"},
			{Label: "Tone?", Type: "text", FieldName: "tone"},
		},
		plan:    "# Plan",
		items:   []string{"generated"},
		prompts: []string{"hook"},
	}
}

func newTestService(fs *fakeStore, fc ContentGenerator) *Service {
	return NewService(fs, fc, logging.NewLogger())
}

func createTestCampaign(t *testing.T, svc *Service) *models.Campaign {
	t.Helper()
	c, degraded, err := svc.Create(context.Background(), CreateRequest{
		Name: "Rivers", Goal: "clean rivers", Objective: "o", TargetAudience: "t",
		StartKind: "exact", StartValue: "2026-01-01",
		EndKind: "exact", EndValue: "2026-12-31",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if degraded {
		t.Fatal("unexpected degraded create")
	}
	return c
}

func TestCreateIssuesQuestions(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, defaultContent())

	c := createTestCampaign(t, svc)
	if c.Stage != models.StageQuestionsIssued {
		t.Errorf("expected questions_issued, got %s", c.Stage)
	}
	if len(c.Round2Questions) != 2 {
		t.Errorf("questions not attached: %+v", c.Round2Questions)
	}
	if c.StartDate != "2026-01-01" || c.EndDate != "2026-12-31" {
		t.Errorf("dates not resolved: %s..%s", c.StartDate, c.EndDate)
	}
	if _, ok := fs.campaigns[c.ID]; !ok {
		t.Error("campaign not persisted")
	}
}

func TestCreateDegradedStillPersists(t *testing.T) {
	fs := newFakeStore()
	fc := defaultContent()
	fc.degraded = true
	svc := newTestService(fs, fc)

	c, degraded, err := svc.Create(context.Background(), CreateRequest{Name: "Rivers"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !degraded {
		t.Error("expected degraded flag")
	}
	if c.Stage != models.StageQuestionsIssued || len(c.Round2Questions) != 0 {
		t.Errorf("degraded create should still advance with empty questions: %+v", c)
	}
}

func TestCreateRequiresName(t *testing.T) {
	svc := newTestService(newFakeStore(), defaultContent())
	if _, _, err := svc.Create(context.Background(), CreateRequest{Name: "   "}); err == nil {
		t.Fatal("expected error for blank name")
	}
}

func TestSubmitAnswersAnnotatesAndPlans(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, defaultContent())
	c := createTestCampaign(t, svc)

	updated, degraded, err := svc.SubmitAnswers(context.Background(), c.ID, map[string]string{
		"budget":   " IDK ",
		"intruder": "dropped",
	})
	if err != nil {
		t.Fatalf("SubmitAnswers: %v", err)
	}
	if degraded {
		t.Error("unexpected degraded plan")
	}
	if got := updated.Round2Answers["budget"]; got != "IDK (Needs suggestions)" {
		t.Errorf("non-answer not annotated: %q", got)
	}
	if got, ok := updated.Round2Answers["tone"]; !ok || got != "" {
		t.Errorf("unanswered question must be stored empty, got %q ok=%v", got, ok)
	}
	if _, ok := updated.Round2Answers["intruder"]; ok {
		t.Error("answer without a matching question must be dropped")
	}
	if updated.Stage != models.StagePlanGenerated || updated.Plan != "# Plan" {
		t.Errorf("plan not recorded: stage=%s plan=%q", updated.Stage, updated.Plan)
	}
}

func TestSubmitAnswersStageGate(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, defaultContent())
	fs.campaigns["early123"] = &models.Campaign{ID: "early123", Stage: models.StageCreated}

	_, _, err := svc.SubmitAnswers(context.Background(), "early123", nil)
	if !errors.Is(err, ErrStageOrder) {
		t.Fatalf("expected ErrStageOrder, got %v", err)
	}
}

func TestSubmitAnswersUnknownCampaign(t *testing.T) {
	svc := newTestService(newFakeStore(), defaultContent())
	_, _, err := svc.SubmitAnswers(context.Background(), "missing1", nil)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddMaterialsSeedsBothChannels(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, defaultContent())
	c := createTestCampaign(t, svc)
	if _, _, err := svc.SubmitAnswers(context.Background(), c.ID, map[string]string{"budget": "low"}); err != nil {
		t.Fatalf("SubmitAnswers: %v", err)
	}

	updated, degraded, err := svc.AddMaterials(context.Background(), c.ID, []models.Material{
		{Filename: "flyer.pdf", StoragePath: "/up/flyer.pdf"},
	})
	if err != nil {
		t.Fatalf("AddMaterials: %v", err)
	}
	if degraded {
		t.Error("unexpected degraded prompts")
	}
	if updated.Stage != models.StageContentGenerated {
		t.Errorf("expected content_generated, got %s", updated.Stage)
	}
	if len(updated.Materials) != 1 || len(updated.ContentEmail) != 1 || len(updated.ContentSocial) != 1 {
		t.Errorf("materials or content missing: %+v", updated)
	}
}

func TestAddMaterialsAppends(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, defaultContent())
	c := createTestCampaign(t, svc)
	if _, _, err := svc.SubmitAnswers(context.Background(), c.ID, nil); err != nil {
		t.Fatalf("SubmitAnswers: %v", err)
	}

	if _, _, err := svc.AddMaterials(context.Background(), c.ID, []models.Material{{Filename: "a.pdf"}}); err != nil {
		t.Fatalf("AddMaterials: %v", err)
	}
	updated, _, err := svc.AddMaterials(context.Background(), c.ID, []models.Material{{Filename: "b.pdf"}})
	if err != nil {
		t.Fatalf("AddMaterials: %v", err)
	}
	if len(updated.Materials) != 2 {
		t.Errorf("materials must append, got %+v", updated.Materials)
	}
}

func TestAddMaterialsStageGate(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, defaultContent())
	c := createTestCampaign(t, svc)

	_, _, err := svc.AddMaterials(context.Background(), c.ID, []models.Material{{Filename: "early.pdf"}})
	if !errors.Is(err, ErrStageOrder) {
		t.Fatalf("expected ErrStageOrder before plan, got %v", err)
	}
}

func TestRegenerateContentReEntrant(t *testing.T) {
	fs := newFakeStore()
	fc := defaultContent()
	svc := newTestService(fs, fc)
	c := createTestCampaign(t, svc)
	if _, _, err := svc.SubmitAnswers(context.Background(), c.ID, nil); err != nil {
		t.Fatalf("SubmitAnswers: %v", err)
	}

	fc.items = []string{"first"}
	if _, _, err := svc.RegenerateContent(context.Background(), c.ID, models.ChannelEmail); err != nil {
		t.Fatalf("RegenerateContent: %v", err)
	}
	fc.items = []string{"second", "third"}
	updated, _, err := svc.RegenerateContent(context.Background(), c.ID, models.ChannelEmail)
	if err != nil {
		t.Fatalf("RegenerateContent again: %v", err)
	}
	if len(updated.ContentEmail) != 2 || updated.ContentEmail[0] != "second" {
		t.Errorf("content not replaced: %+v", updated.ContentEmail)
	}
	if updated.Stage != models.StageContentGenerated {
		t.Errorf("unexpected stage %s", updated.Stage)
	}
}

func TestRegenerateContentUnknownChannel(t *testing.T) {
	svc := newTestService(newFakeStore(), defaultContent())
	if _, _, err := svc.RegenerateContent(context.Background(), "any", "fax"); err == nil {
		t.Fatal("expected error for unknown channel")
	}
}

func TestSetRecipientsResetsEngagement(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, defaultContent())
	c := createTestCampaign(t, svc)
	if _, _, err := svc.SubmitAnswers(context.Background(), c.ID, nil); err != nil {
		t.Fatalf("SubmitAnswers: %v", err)
	}
	if _, _, err := svc.RegenerateContent(context.Background(), c.ID, models.ChannelEmail); err != nil {
		t.Fatalf("RegenerateContent: %v", err)
	}

	updated, err := svc.SetRecipients(context.Background(), c.ID, []string{"a@example.com", "b@example.com"})
	if err != nil {
		t.Fatalf("SetRecipients: %v", err)
	}
	if updated.Stage != models.StageDistributing {
		t.Errorf("expected distributing, got %s", updated.Stage)
	}
	if len(updated.Engagement) != 2 {
		t.Errorf("engagement must track exactly the recipients: %+v", updated.Engagement)
	}

	// A second explicit update replaces the list and discards old
	// tracking state.
	updated, err = svc.SetRecipients(context.Background(), c.ID, []string{"c@example.com"})
	if err != nil {
		t.Fatalf("SetRecipients again: %v", err)
	}
	if len(updated.Engagement) != 1 {
		t.Errorf("stale engagement kept: %+v", updated.Engagement)
	}
	if _, ok := updated.Engagement["c@example.com"]; !ok {
		t.Error("new recipient not tracked")
	}
}

func TestPrepareDistributionPreservesEngagement(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, defaultContent())
	c := createTestCampaign(t, svc)
	if _, _, err := svc.SubmitAnswers(context.Background(), c.ID, nil); err != nil {
		t.Fatalf("SubmitAnswers: %v", err)
	}
	if _, _, err := svc.RegenerateContent(context.Background(), c.ID, models.ChannelEmail); err != nil {
		t.Fatalf("RegenerateContent: %v", err)
	}
	if _, err := svc.SetRecipients(context.Background(), c.ID, []string{"a@example.com"}); err != nil {
		t.Fatalf("SetRecipients: %v", err)
	}
	fs.campaigns[c.ID].Engagement["a@example.com"] = models.Engagement{Opened: true}

	// Passing a list keeps tracking state for every recipient that stays
	// on it; new addresses start untracked.
	updated, err := svc.PrepareDistribution(context.Background(), c.ID, []string{"a@example.com", "b@example.com"})
	if err != nil {
		t.Fatalf("PrepareDistribution: %v", err)
	}
	if !updated.Engagement["a@example.com"].Opened {
		t.Error("recorded open lost on re-send")
	}
	if e := updated.Engagement["b@example.com"]; e.Opened || e.Clicked {
		t.Errorf("new recipient must start untracked: %+v", e)
	}

	// An empty list reuses the stored recipients untouched.
	updated, err = svc.PrepareDistribution(context.Background(), c.ID, nil)
	if err != nil {
		t.Fatalf("PrepareDistribution without list: %v", err)
	}
	if len(updated.Recipients) != 2 || !updated.Engagement["a@example.com"].Opened {
		t.Errorf("stored list not reused: %+v", updated.Engagement)
	}
}

func TestPrepareDistributionNeedsRecipients(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, defaultContent())
	c := createTestCampaign(t, svc)
	if _, _, err := svc.SubmitAnswers(context.Background(), c.ID, nil); err != nil {
		t.Fatalf("SubmitAnswers: %v", err)
	}
	if _, _, err := svc.RegenerateContent(context.Background(), c.ID, models.ChannelEmail); err != nil {
		t.Fatalf("RegenerateContent: %v", err)
	}

	if _, err := svc.PrepareDistribution(context.Background(), c.ID, nil); !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
}

func TestAnnotateAnswer(t *testing.T) {
	cases := map[string]string{
		" IDK ":  "IDK (Needs suggestions)",
		"no":     "no (Needs suggestions)",
		"None":   "None (Needs suggestions)",
		"nope":   "nope",
		"Normal": "Normal",
		"":       "",
	}
	for in, want := range cases {
		if got := AnnotateAnswer(in); got != want {
			t.Errorf("AnnotateAnswer(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewCampaignID(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-z]{8}$`)
	seen := map[string]bool{}
	for i := 0; i < 64; i++ {
		id := NewCampaignID()
		if !pattern.MatchString(id) {
			t.Fatalf("malformed id %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
