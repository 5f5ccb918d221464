package llm

import (
	"encoding/json"
	"strings"
)

// BuildFeedbackSystemPrompt composes the system message for the structured
// feedback call: role context, the output schema, and strict-but-practical
// formatting rules.
func BuildFeedbackSystemPrompt() string {
	parts := []string{
		"You are an expert in ATS (Applicant Tracking Systems) and resume review.",
		"Analyze and rate the resume you are given and suggest how to improve it.",
		"Be thorough and detailed; do not hesitate to give low scores when the resume deserves them.",
		"Return ONLY JSON that matches the provided JSON Schema, with no other text, comments, or markdown.",
		"Scores are numbers from 0 to 100.",
		"Never output null. If a field is not present, omit it.",
	}
	return strings.Join(parts, " ")
}

// BuildFeedbackUserPrompt packages the extracted resume text and the
// target-role context. The job description is truncated at truncateRunes
// before being sent to the model; the exact budget is configuration, not
// contract.
func BuildFeedbackUserPrompt(resumeText string, actx AnalysisContext, truncateRunes int) string {
	var b strings.Builder
	if n := strings.TrimSpace(actx.CompanyName); n != "" {
		b.WriteString("The company is: ")
		b.WriteString(n)
		b.WriteString("\n")
	}
	if t := strings.TrimSpace(actx.JobTitle); t != "" {
		b.WriteString("The job title is: ")
		b.WriteString(t)
		b.WriteString("\n")
	}
	if d := strings.TrimSpace(actx.JobDescription); d != "" {
		b.WriteString("The job description is:\n")
		b.WriteString(TruncateRunes(d, truncateRunes))
		b.WriteString("\n")
	}
	b.WriteString("\nJSON Schema:\n")
	b.WriteString(mustJSON(BuildAnalysisJSONSchema()))
	b.WriteString("\n\nResume text:\n")
	b.WriteString(resumeText)
	return b.String()
}

// BuildMarkdownSystemPrompt composes the system message for the best-effort
// markdown rendering call. Its output is free text, never parsed.
func BuildMarkdownSystemPrompt() string {
	parts := []string{
		"You convert resume text into clean, well-structured markdown.",
		"Preserve the original wording; only add headings, lists, and emphasis.",
		"Return the markdown only, with no commentary before or after.",
	}
	return strings.Join(parts, " ")
}

// BuildMarkdownUserPrompt wraps the extracted resume text for the markdown call.
func BuildMarkdownUserPrompt(resumeText string) string {
	return "Resume text:\n" + resumeText
}

// TruncateRunes cuts s to at most n runes. Used for the job-description
// budget; rune-based so multi-byte text is never split mid-character.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
