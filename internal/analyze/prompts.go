package analyze

import (
	"fmt"
	"unicode/utf8"
)

// DefaultMaxInputChars bounds the Act text sent to the model for summaries and judgments
const DefaultMaxInputChars = 25000

const summaryPromptTemplate = `
You are a legal analysis assistant.

Summarize the following Act in **5–10 bullet points** focusing on:
- Purpose
- Key definitions
- Eligibility
- Obligations
- Enforcement

Act Content:
%s
`

const sectionsPromptTemplate = `
You MUST respond ONLY with valid JSON. No markdown formatting.

Extract:

{
 "definitions": "",
 "obligations": "",
 "responsibilities": "",
 "eligibility": "",
 "payments": "",
 "penalties": "",
 "record_keeping": ""
}

Use ONLY the act text below:

ACT TEXT:
%s
`

// SummaryPrompt builds the summarization prompt for already-truncated text
func SummaryPrompt(text string) string {
	return fmt.Sprintf(summaryPromptTemplate, text)
}

// SectionsPrompt builds the section extraction prompt
func SectionsPrompt(text string) string {
	return fmt.Sprintf(sectionsPromptTemplate, text)
}

// Truncate keeps the first max characters (Unicode code points) of text.
// It reports whether anything was cut. A non-positive max disables truncation.
func Truncate(text string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text, false
	}
	n := 0
	for i := range text {
		if n == max {
			return text[:i], true
		}
		n++
	}
	return text, false
}
