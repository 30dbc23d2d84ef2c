package openai

import (
	"fmt"
	"strings"
)

const enhancementResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "keywords": {"type": "array", "items": {"type": "string"}},
    "priority": {"type": "array", "items": {"type": "integer", "minimum": 1, "maximum": 4}},
    "dueDate": {"type": "string"},
    "dueDateRange": {
      "type": "object",
      "properties": {"start": {"type": "string"}, "end": {"type": "string"}},
      "additionalProperties": false
    },
    "status": {"type": "array", "items": {"type": "string"}},
    "tags": {"type": "array", "items": {"type": "string"}},
    "folder": {"type": "string"},
    "diagnostics": {
      "type": "object",
      "properties": {
        "correctedTokens": {"type": "array", "items": {"type": "string"}},
        "detectedLanguage": {"type": "string"},
        "confidence": {"type": "number", "minimum": 0, "maximum": 1}
      },
      "required": ["confidence"],
      "additionalProperties": false
    }
  },
  "required": ["keywords", "diagnostics"],
  "additionalProperties": false
}`

const enhancementPromptTemplate = `You read search queries over a personal task list and return what the user is looking for as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- keywords: the words a matching task text would contain. Include the user's own content words plus close
  synonyms and translations in these languages: %s. Lowercase. Never include words that only express a
  priority, a date, a status, a tag or a folder.
- priority: levels 1 (highest) to 4 (lowest), only when the query asks for a priority.
- dueDate: one of "today", "tomorrow", "yesterday", "overdue", "this week", "next week", "last week",
  "this month", "next month", "no date", a weekday name, an ISO date "YYYY-MM-DD", or a duration such as
  "7d", "2w", "3mo", "1y" ("-2w" for the past).
- dueDateRange: use instead of dueDate for "before", "after", "between" and "until" requests. Use the same
  date forms for start and end and leave out the open side.
- status: task states the user asks for, such as "open", "in progress", "completed", "cancelled".
- tags: tag names without the leading #.
- Leave out every field the query does not mention. Do not guess.
- diagnostics.confidence: how sure you are that you understood the query, from 0 to 1.
- diagnostics.correctedTokens: query words you corrected for spelling, in corrected form.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "urgent login bugs due before friday"
Output:
{"keywords":["login","bug","auth","sign-in"],"priority":[1],"dueDateRange":{"end":"friday"},"diagnostics":{"detectedLanguage":"en","confidence":0.9}}

Example (misspelled, informal):
Input: "stuff i finshed last week for the reprot"
Output:
{"keywords":["report"],"dueDate":"last week","status":["completed"],"diagnostics":{"correctedTokens":["finished","report"],"detectedLanguage":"en","confidence":0.8}}

Example (Chinese):
Input: "明天要交的季度报告"
Output:
{"keywords":["季度","报告","季度报告"],"dueDate":"tomorrow","diagnostics":{"detectedLanguage":"zh","confidence":0.85}}`

// buildSystemPrompt creates the system prompt with the schema and languages embedded.
func buildSystemPrompt(languages []string) string {
	langs := "en"
	if len(languages) > 0 {
		langs = strings.Join(languages, ", ")
	}
	return fmt.Sprintf(enhancementPromptTemplate, enhancementResponseSchema, langs)
}
