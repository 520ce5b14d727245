package services

import (
	"fmt"
	"strings"

	"github.com/Timi2001/AI-Email-Assistant/internal/models"
)

const (
	subjectLinesField = "subject_lines"
	ctasField         = "ctas"
)

func buildBasePrompt(in models.EmailInputs) string {
	return fmt.Sprintf(`
Email Goal: %s
Target Audience: %s
Key Message/Draft: %s
Tone of Voice: %s
---
`, in.Goal, in.Audience, in.Message, in.Tone)
}

func buildSubjectLinesPrompt(in models.EmailInputs) string {
	return buildBasePrompt(in) + "\nBased on the details above, generate 5 creative and compelling subject lines."
}

func buildComposePrompt(in models.EmailInputs) string {
	return buildBasePrompt(in) + `
Based on the details above, compose a complete email body. The email should be engaging, clear, and ready to send. Do not include a subject line.
`
}

func buildAbTestPrompt(in models.EmailInputs) string {
	return buildBasePrompt(in) + `
Based on the email details above, suggest one concrete A/B test. This could be a variation of the subject line or a specific part of the email body. Provide a brief, clear explanation of what is being tested and why.
`
}

func buildPersonalizationPrompt(in models.EmailInputs) string {
	return buildBasePrompt(in) + `
Based on the email details above, suggest 3 practical personalization ideas to increase engagement. Present the ideas as a bulleted or numbered list.
`
}

func buildCTAPrompt(in models.EmailInputs) string {
	return buildBasePrompt(in) + "\nBased on the details above, generate 4 compelling and action-oriented Call-to-Action (CTA) texts for buttons."
}

func buildSpamPrompt(body string) string {
	var b strings.Builder

	b.WriteString("\nAnalyze the following email body for words or phrases that might trigger spam filters.\n")
	b.WriteString("Provide a brief analysis as a bulleted list, explaining why each identified item could be problematic. If possible, suggest alternatives. If no major issues are found, state that it looks good.\n\n")
	b.WriteString("Email Body to Analyze:\n---\n")
	b.WriteString(body)
	b.WriteString("\n---\n")

	return b.String()
}

func buildThreadSummaryPrompt(thread string) string {
	var b strings.Builder

	b.WriteString("\nSummarize the following email thread.\n")
	b.WriteString("Start with a one-sentence overview, then list the key points, decisions made, and any open action items with their owners. Keep it concise.\n\n")
	b.WriteString("Email Thread:\n---\n")
	b.WriteString(thread)
	b.WriteString("\n---\n")

	return b.String()
}
