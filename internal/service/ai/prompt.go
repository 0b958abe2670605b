package ai

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/zhouzirui/pill-reminder/backend/internal/model/chat"
	"github.com/zhouzirui/pill-reminder/backend/internal/model/medication"
)

const (
	maxRecommendations = 3
	maxInsights        = 2
)

// ProhibitionClause is appended to every recommendation prompt.
const ProhibitionClause = "NEVER state a specific dose amount, tell the user to start, stop, or adjust any medication, " +
	"or give any other medical directive. Always refer medical decisions to a healthcare professional."

const basePrompt = `You are a helpful AI assistant for a medication reminder app called "Simple Pill Reminder".
You provide friendly, informative support while being mindful that you are not a doctor and not a medical authority.

Always be helpful and concise, and encourage users to consult healthcare professionals for medical decisions.`

const supportGuidance = `

Your role is to help users with:
- How to use the app features
- Troubleshooting app issues
- Personalized insights based on the user context, when it is provided

If you notice a concerning pattern such as many missed doses, gently suggest talking to a doctor or pharmacist.
Never give direct medical directives. Remind users to consult their healthcare provider about medical questions.`

const recommendationGuidance = `

Your role is to provide general wellness and medication management tips based on the user's schedule.

You can suggest:
- Ways to improve medication adherence
- Schedule and routine tips grounded in the user's adherence context
- Lifestyle habits that complement a medication routine
- App features that might help

`

const generalGuidance = `

You're a general assistant for the pill reminder app. Keep to general wellness and motivational support, and stay within appropriate boundaries.`

// PromptInput carries everything the composer may render.
type PromptInput struct {
	Category        chat.Category
	Medications     []medication.Medication
	Context         *medication.AdherenceContext
	Recommendations []medication.Recommendation
	Insights        []medication.Insight
	Message         string
}

// Prompt is the system prompt plus the user message sent to the model.
type Prompt struct {
	System string
	User   string
}

// Compose builds the prompt pair for a chat request. It is deterministic and never fails.
func Compose(in PromptInput) Prompt {
	return Prompt{
		System: buildSystemPrompt(in.Category, in.Medications, in.Context),
		User:   buildUserMessage(in.Message, in.Recommendations, in.Insights),
	}
}

func buildSystemPrompt(category chat.Category, meds []medication.Medication, userCtx *medication.AdherenceContext) string {
	var builder strings.Builder
	builder.WriteString(basePrompt)

	if userCtx != nil {
		builder.WriteString(renderContext(*userCtx))
	}

	switch category {
	case chat.CategorySupport:
		builder.WriteString(supportGuidance)
	case chat.CategoryRecommendation:
		if len(meds) > 0 {
			builder.WriteString(renderMedications(meds))
		}
		builder.WriteString(recommendationGuidance)
		builder.WriteString(ProhibitionClause)
	default:
		builder.WriteString(generalGuidance)
	}

	return builder.String()
}

func renderContext(c medication.AdherenceContext) string {
	return fmt.Sprintf(`

User context:
- Adherence rate: %s%%
- Consecutive days on schedule: %d
- Total medications: %d
- Recent missed doses: %d
- Needs motivation: %t
- Recent achievements: %s
- Current concerns: %s`,
		strconv.FormatFloat(c.AdherenceRate, 'f', -1, 64),
		c.ConsecutiveDays,
		c.TotalMedications,
		c.MissedDoses,
		c.NeedsMotivation,
		joinOrNone(c.RecentAchievements),
		joinOrNone(c.CurrentConcerns),
	)
}

func renderMedications(meds []medication.Medication) string {
	var builder strings.Builder
	builder.WriteString("\n\nUser's current medications:")
	for _, med := range meds {
		days := "no days selected"
		if names := med.WeekdayNames(); len(names) > 0 {
			days = strings.Join(names, ", ")
		}
		builder.WriteString(fmt.Sprintf("\n- %s %s at %s on %s", med.DisplayIcon(), orUnknown(med.Name), orUnknown(med.Time), days))
	}
	return builder.String()
}

func buildUserMessage(message string, recs []medication.Recommendation, insights []medication.Insight) string {
	var builder strings.Builder
	builder.WriteString(message)

	if len(recs) > 0 {
		builder.WriteString("\n\nPersonalized recommendations:")
		for i, rec := range lo.Slice(recs, 0, maxRecommendations) {
			builder.WriteString(fmt.Sprintf("\n%d. %s: %s", i+1, rec.Title, rec.Message))
		}
	}

	if len(insights) > 0 {
		builder.WriteString("\n\nInsights:")
		for _, insight := range lo.Slice(insights, 0, maxInsights) {
			builder.WriteString("\n- " + insight.Message)
		}
	}

	return builder.String()
}

// RecommendationPrompt is the fixed user message the recommendations endpoint sends.
func RecommendationPrompt(meds []medication.Medication) string {
	names := lo.Map(meds, func(m medication.Medication, _ int) string { return orUnknown(m.Name) })
	times := lo.Map(meds, func(m medication.Medication, _ int) string { return orUnknown(m.Time) })

	return fmt.Sprintf(`Analyze my medication schedule and provide helpful tips:

Medications: %s
Times: %s
Total medications: %d

Please provide personalized tips for:
1. Medication adherence
2. Schedule optimization
3. General wellness advice
4. App features that might help

Keep it practical and encouraging!`,
		strings.Join(names, ", "),
		strings.Join(times, ", "),
		len(meds),
	)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, "; ")
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Unknown"
	}
	return value
}
