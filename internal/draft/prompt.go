package draft

import (
	"fmt"
	"strings"

	"signalsdr-engine/internal/domain"
	"signalsdr-engine/internal/scrape/util"
)

const hiringSystemPrompt = `You are an expert SDR (Sales Development Representative).
Your goal is to write a short, 3-sentence cold email.

Context: We sell AI Security software.
Trigger: The company is hiring for %s at %s.
Task: Connect the hiring of this role to the value of securing their new AI initiatives.
Tone: Professional, direct, no fluff.

CRITICAL RULE: Analyze the "Hiring Signal" text carefully.
If the text is NOT a real job listing (for example a diversity statement, footer text, generic marketing copy, a "Board of Directors" page or a fraud warning) you MUST return: {"subject_line": null, "body": null}
Do not hallucinate a job opening. Do not invent a role.
Only draft an email when the signal clearly indicates an open position being hired for.

You MUST respond with valid JSON only, no markdown, no explanation:
{"subject_line": "...", "body": "..."}`

const prospectSystemPrompt = `You are an expert SDR (Sales Development Representative).
Your goal is to write a short, 3-sentence cold email.

Context: We sell AI Security software.
Trigger: A recent %s development at %s: %s
Task: Connect this development to a concrete operational or security concern the company now faces.
Tone: Professional, direct, no fluff.

CRITICAL RULE: If the trigger is not actually about %s (for example it is about another company, is an advertisement, a listicle or unrelated news) you MUST return: {"subject_line": null, "body": null}
Do not invent facts that are not in the trigger.

You MUST respond with valid JSON only, no markdown, no explanation:
{"subject_line": "...", "body": "..."}`

// Prompt builds the system and user messages for one signal.
func Prompt(sig domain.ConfirmedSignal, co domain.CompanyContext) (system, user string) {
	if sig.Class == domain.ClassProspect {
		category := strings.ReplaceAll(string(sig.Category), "_", " ")
		trigger := sig.Headline
		if s := util.Truncate(sig.Snippet, 150); s != "" {
			trigger += ": " + s
		}
		system = fmt.Sprintf(prospectSystemPrompt, category, co.Name, trigger, co.Name)
		user = fmt.Sprintf("Company: %s\nSignal: %s\nSource: %s\n\nWrite the cold email draft as JSON.",
			co.Name, util.Truncate(sig.Headline, 100), co.SourceURL)
		return system, user
	}

	role := util.Truncate(sig.MatchedText, 100)
	system = fmt.Sprintf(hiringSystemPrompt, role, co.Name)
	user = fmt.Sprintf("Company: %s\nDetected Role: %s\n\nWrite the cold email draft as JSON.", co.Name, role)
	return system, user
}
