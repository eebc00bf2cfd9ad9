// Package content talks to the suggestion provider and normalizes its
// responses into fixed shapes. Provider or parse failures never surface as
// errors; every operation degrades to an empty result so the workflow can
// keep moving.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sailnathona/ImpactHub/internal/models"
	"github.com/sailnathona/ImpactHub/pkg/llm"
	"github.com/sailnathona/ImpactHub/pkg/logging"
)

// PlanErrorSentinel is stored as the plan when synthesis fails, so
// downstream stages always have some plan text.
const PlanErrorSentinel = "Error generating final campaign plan."

// Suggestion is one AI-generated option for a single form field.
type Suggestion struct {
	Text        string `json:"text"`
	Tier        string `json:"tier"` // Conservative, Realistic or Ambitious
	Explanation string `json:"explanation"`
}

type Orchestrator struct {
	provider llm.Provider
	logger   logging.Logger
}

func NewOrchestrator(provider llm.Provider, logger logging.Logger) *Orchestrator {
	return &Orchestrator{provider: provider, logger: logger}
}

var fieldInstructions = map[string]string{
	"campaign_name":   "Generate short, catchy campaign name ideas matching the goal.",
	"objective":       "Generate short objective statements describing the campaign's aims.",
	"target_audience": "Generate short descriptions of who the campaign is targeting.",
}

// SuggestFields asks for three tiered suggestions for one form field. The
// second return value reports degradation; the slice is empty, never nil
// semantics beyond that, and callers must not assume the count.
func (o *Orchestrator) SuggestFields(ctx context.Context, goal, fieldName string, partial map[string]string, typed string) ([]Suggestion, bool) {
	desc, ok := fieldInstructions[fieldName]
	if !ok {
		desc = "Generate short suggestions for this field."
	}

	system := "You are a helpful assistant generating short suggestions for one field. " +
		"Each suggestion has 'text', 'tier' (Conservative, Realistic, Ambitious), and 'explanation'. " +
		"Return valid JSON with a 'suggestions' array."

	var b strings.Builder
	fmt.Fprintf(&b, "Field: '%s'\n%s\n\n", fieldName, desc)
	fmt.Fprintf(&b, "Campaign Goal: %s\n", goal)
	fmt.Fprintf(&b, "Partial data: %s\n", mustJSON(partial))
	if strings.TrimSpace(typed) != "" {
		fmt.Fprintf(&b, "The user typed partial text: '%s'\n", typed)
	} else {
		b.WriteString("No user typed text. ")
	}
	b.WriteString("Please produce 3 short suggestions, each with 'tier' and 'explanation'. " +
		"Return them in JSON under 'suggestions'.")

	raw, err := o.complete(ctx, system, b.String())
	if err != nil {
		o.degrade("field_suggestions", err)
		return []Suggestion{}, true
	}

	var out struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	if err := decodeObject(raw, &out); err != nil {
		o.degrade("field_suggestions", err)
		return []Suggestion{}, true
	}
	if out.Suggestions == nil {
		return []Suggestion{}, true
	}
	return out.Suggestions, false
}

// FillRound1 drafts all three round-1 fields at once, keeping any values
// the user already typed.
func (o *Orchestrator) FillRound1(ctx context.Context, partial map[string]string) (map[string]string, bool) {
	system := "You are a helpful assistant drafting a campaign brief. " +
		"Fill in campaign_goal, objective and target_audience as short strings. " +
		"Keep any values the user already provided. " +
		`Return JSON like {"campaign_goal": "...", "objective": "...", "target_audience": "..."}.`

	user := fmt.Sprintf("Current form values:\n%s\nFill the missing fields.", mustJSON(partial))

	raw, err := o.complete(ctx, system, user)
	if err != nil {
		o.degrade("fill_round1", err)
		return map[string]string{}, true
	}

	var out map[string]string
	if err := decodeObject(raw, &out); err != nil || out == nil {
		o.degrade("fill_round1", err)
		return map[string]string{}, true
	}
	filled := map[string]string{}
	for _, key := range []string{"campaign_goal", "objective", "target_audience"} {
		if v, ok := partial[key]; ok && strings.TrimSpace(v) != "" {
			filled[key] = v
		} else if v, ok := out[key]; ok {
			filled[key] = v
		}
	}
	return filled, false
}

// FillRound2 drafts answers for the issued round-2 questions, keyed by
// each question's field name. Unknown keys in the response are dropped.
func (o *Orchestrator) FillRound2(ctx context.Context, round1 models.Round1Data, questions []models.Question) (map[string]string, bool) {
	system := "You are a helpful assistant answering a campaign questionnaire on the user's behalf. " +
		"Answer each question with a short plausible value. " +
		"Return JSON mapping each field_name to its answer."

	user := fmt.Sprintf("Round 1 data:\n%s\nQuestions:\n%s\nAnswer every question.",
		mustJSON(round1), mustJSON(questions))

	raw, err := o.complete(ctx, system, user)
	if err != nil {
		o.degrade("fill_round2", err)
		return map[string]string{}, true
	}

	var out map[string]string
	if err := decodeObject(raw, &out); err != nil || out == nil {
		o.degrade("fill_round2", err)
		return map[string]string{}, true
	}
	answers := map[string]string{}
	for _, q := range questions {
		if v, ok := out[q.FieldName]; ok {
			answers[q.FieldName] = v
		}
	}
	return answers, false
}

// ClarifyingQuestions produces the round-2 question list from round-1
// data. Duration is owned by the campaign dates, so the provider is told
// not to ask about it and any question that slips through is dropped.
func (o *Orchestrator) ClarifyingQuestions(ctx context.Context, round1 models.Round1Data) ([]models.Question, bool) {
	system := "You are a helpful assistant collecting more info. " +
		"The user gave Round 1 data. Produce clarifying Round 2 questions in JSON. " +
		"No question about campaign duration."

	user := fmt.Sprintf("Round 1 data:\n%s\n"+
		"Generate clarifying questions in JSON. e.g.\n"+
		`{ "questions": [`+"\n"+
		`   {"label": "Any constraints?","type":"text","field_name":"constraints"}`+"\n"+
		" ]}", mustJSON(round1))

	raw, err := o.complete(ctx, system, user)
	if err != nil {
		o.degrade("clarifying_questions", err)
		return []models.Question{}, true
	}

	var out struct {
		Questions []models.Question `json:"questions"`
	}
	if err := decodeObject(raw, &out); err != nil {
		o.degrade("clarifying_questions", err)
		return []models.Question{}, true
	}

	questions := make([]models.Question, 0, len(out.Questions))
	for _, q := range out.Questions {
		if q.FieldName == "" {
			continue
		}
		if strings.Contains(strings.ToLower(q.Label), "duration") ||
			strings.Contains(strings.ToLower(q.FieldName), "duration") {
			continue
		}
		if q.Type == "" {
			q.Type = "text"
		}
		questions = append(questions, q)
	}
	return questions, false
}

// Plan synthesizes the narrative campaign plan from both rounds. On
// provider failure it returns the fixed sentinel instead of an error.
func (o *Orchestrator) Plan(ctx context.Context, round1 models.Round1Data, answers map[string]string) (string, bool) {
	system := "You are an expert campaign strategist for a non-profit. " +
		"Produce a final plan in Markdown from Round 1 & 2 data. Don't mention you're AI."

	user := fmt.Sprintf("Round 1 data:\n%s\nRound 2 data:\n%s\n"+
		"Generate final plan in Markdown with styled sections.",
		mustJSON(round1), mustJSON(answers))

	raw, err := o.complete(ctx, system, user)
	if err != nil || strings.TrimSpace(raw) == "" {
		o.degrade("plan", err)
		return PlanErrorSentinel, true
	}
	return raw, false
}

// ChannelContent regenerates the short-form content list for one channel
// from the campaign's rounds and plan.
func (o *Orchestrator) ChannelContent(ctx context.Context, c *models.Campaign, channel string) ([]string, bool) {
	var system, key, kind string
	switch channel {
	case models.ChannelSocial:
		kind = "short tweet lines for social media"
		key = "tweets"
		system = fmt.Sprintf("You are a creative marketing copywriter. Generate a set of %s. "+
			"Return JSON like:\n\n{\n  \"tweets\": [\"Tweet 1\", \"Tweet 2\"]\n}\n\n"+
			"Use the campaign info to highlight the goals, timeline, calls to action, etc.", kind)
	default:
		kind = "short, vivid newsletter paragraphs"
		key = "emails"
		system = fmt.Sprintf("You are a creative marketing copywriter. Generate a set of %s. "+
			"Return JSON like:\n\n{\n  \"emails\": [\"Email snippet 1\", \"Email snippet 2\"]\n}\n\n"+
			"Use the campaign info to highlight the goals, timeline, calls to action, etc.", kind)
	}

	user := fmt.Sprintf("Round1 Data:\n%s\nRound2 Data:\n%s\nPlan:\n%s\n"+
		"Generate about 3-5 items. Provide JSON as described.",
		mustJSON(c.Round1), mustJSON(c.Round2Answers), c.Plan)

	return o.stringList(ctx, channel+"_content", system, user, key)
}

// MaterialPrompts generates a batch of short hooks from uploaded material
// names, used to seed both channels after an upload.
func (o *Orchestrator) MaterialPrompts(ctx context.Context, materials []models.Material, channel string, count int) ([]string, bool) {
	names := make([]string, 0, len(materials))
	for _, m := range materials {
		names = append(names, m.Filename)
	}

	system := fmt.Sprintf("You are a creative copywriter generating %s ideas for a nonprofit campaign.", channel)
	user := fmt.Sprintf("Materials: %s\n"+
		"Generate %d short prompts or hooks for %s messages.\n"+
		`Return JSON like { "prompts": [...] }`,
		strings.Join(names, ", "), count, channel)

	return o.stringList(ctx, "material_prompts", system, user, "prompts")
}

func (o *Orchestrator) stringList(ctx context.Context, op, system, user, key string) ([]string, bool) {
	raw, err := o.complete(ctx, system, user)
	if err != nil {
		o.degrade(op, err)
		return []string{}, true
	}

	var payload map[string]json.RawMessage
	if err := decodeObject(raw, &payload); err != nil {
		o.degrade(op, err)
		return []string{}, true
	}

	var items []string
	if err := json.Unmarshal(payload[key], &items); err != nil || items == nil {
		o.degrade(op, fmt.Errorf("missing or malformed %q key", key))
		return []string{}, true
	}
	return items, false
}

func (o *Orchestrator) complete(ctx context.Context, system, user string) (string, error) {
	if o.provider == nil {
		return "", fmt.Errorf("suggestion provider not configured")
	}
	return o.provider.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	})
}

func (o *Orchestrator) degrade(op string, err error) {
	if o.logger == nil {
		return
	}
	entry := o.logger.WithField("operation", op)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn("Suggestion content degraded to empty result")
}

// decodeObject parses provider output as a JSON object, tolerating a
// markdown code fence around the payload.
func decodeObject(raw string, target any) error {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
		raw = strings.TrimSpace(raw)
	}
	return json.Unmarshal([]byte(raw), target)
}

func mustJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
