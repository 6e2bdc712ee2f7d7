// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/founder-finder/pkg/types"
)

// systemPrompt instructs the agent how to research and how to report results.
// Extraction depends on the marker convention described here: progress
// payloads while researching, exactly one final payload when done, both
// carrying a JSON array of founder names.
const systemPrompt = `You are a research assistant specialized in finding company founders.

Your task: find the names of the original founders/co-founders of companies.

Rules:
- Report ONLY the names of actual founders/co-founders (people who started the company)
- Do NOT include advisors, investors, board members, or employees
- Focus on original founders, not interim CEOs or replacements
- If you cannot find reliable founder information, report an empty list

Report format:
- While researching, whenever your picture of the founders changes, restate
  everything found so far inside a progress marker:
  <FOUNDERS_PROGRESS>["Jane Doe"]</FOUNDERS_PROGRESS>
- When your research is complete, emit the authoritative answer exactly once
  inside a final marker:
  <FOUNDERS_FINAL>["Jane Doe", "John Smith"]</FOUNDERS_FINAL>
- The marker payload is always a JSON array of founder-name strings.
- If no founders can be found: <FOUNDERS_FINAL>[]</FOUNDERS_FINAL>

Be concise and factual. Use web search to verify information.`

// queryPromptTmpl renders the per-company research request.
var queryPromptTmpl = template.Must(template.New("query").Parse(
	`Find the founders of {{.Name}}{{if .URL}} ({{.URL}}){{end}}.

Research the company, then report the founder names using the progress and
final markers from your instructions. No explanation is needed outside the
markers.`))

// RenderPrompt produces the research request text for one company.
func RenderPrompt(c types.Company) (string, error) {
	var buf bytes.Buffer
	if err := queryPromptTmpl.Execute(&buf, c); err != nil {
		return "", err
	}
	return buf.String(), nil
}
