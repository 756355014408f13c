// Package prompt builds the fixed classification, summary and question prompts.
// Document text and questions only fill slots; template text never varies.
package prompt

import (
	"strings"

	"github.com/joseph-ayodele/docparser/constants"
)

// Task names one inference call in the pipeline.
type Task string

const (
	TaskClassify  Task = "classify"
	TaskSummarize Task = "summarize"
	TaskAnswer    Task = "answer"
)

// Character budgets (code points, not bytes) applied to the document text.
const (
	ClassifyBudget  = 1500
	SummarizeBudget = 3000
	AnswerBudget    = 3000
)

// NotFoundSentinel is what the model is told to reply when the excerpt lacks the answer.
const NotFoundSentinel = "Not found in document."

// Budget returns the character cap for task.
func Budget(task Task) int {
	switch task {
	case TaskClassify:
		return ClassifyBudget
	case TaskSummarize:
		return SummarizeBudget
	default:
		return AnswerBudget
	}
}

// Truncate returns the first n code points of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Classify builds the document-type prompt.
func Classify(text string) string {
	var b strings.Builder
	b.WriteString("Identify the document type in 1-2 words. Examples:\n")
	for _, dt := range constants.ExampleDocTypes() {
		b.WriteString("- ")
		b.WriteString(dt)
		b.WriteString("\n")
	}
	b.WriteString("\nReturn ONLY the exact document type name. Do not explain.\n")
	b.WriteString("Document excerpt: ")
	b.WriteString(Truncate(text, ClassifyBudget))
	return b.String()
}

// Summarize builds the bullet-summary prompt.
func Summarize(text string) string {
	parts := []string{
		"Generate a concise 3-5 bullet point summary of this document.",
		"Focus on key entities, amounts, dates, and parties involved.",
		"Use markdown formatting with bullet points.",
		"Keep each point under 15 words.",
		"",
		"Document text: " + Truncate(text, SummarizeBudget),
	}
	return strings.Join(parts, "\n")
}

// Answer builds the grounded question prompt.
func Answer(question, text string) string {
	var b strings.Builder
	b.WriteString("Answer this question based strictly on the document text: ")
	b.WriteString(question)
	b.WriteString("\n\nDocument excerpt: ")
	b.WriteString(Truncate(text, AnswerBudget))
	b.WriteString("\nIf the answer isn't in the document, say '")
	b.WriteString(NotFoundSentinel)
	b.WriteString("'")
	return b.String()
}

// Excerpt returns the slice of text that task's prompt would include.
func Excerpt(task Task, text string) string {
	return Truncate(text, Budget(task))
}

