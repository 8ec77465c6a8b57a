package ollama

import (
	"fmt"
	"strings"
	"text/template"
)

// PromptVersion is bumped whenever a template's wording changes
const PromptVersion = "2"

// ToneAdjustInput fills the tone adjustment prompt
type ToneAdjustInput struct {
	Text     string
	Tone     string
	Examples []string
}

// PostInput fills the post analysis and improvement prompts
type PostInput struct {
	Text     string
	Platform string
	Hashtags []string
	Mentions []string
}

// CaptionInput fills the image caption prompt
type CaptionInput struct {
	Platform string
	Keywords string
}

var prompts = template.Must(template.New("prompts").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`
{{define "tone_adjust"}}Rewrite the following text so it sounds {{.Tone}}.

Requirements:
- Provide 3 or 4 alternative versions
- Keep the original meaning and any hashtags or mentions
- Put each version on its own line
- Do NOT add commentary, explanations, or headings
{{- if .Examples}}

The user liked these examples. Match their voice where it fits:
{{- range .Examples}}
- {{.}}
{{- end}}
{{- end}}

Text:
{{.Text}}

Versions:{{end}}

{{define "analyze_post"}}Analyze why the following {{if .Platform}}{{.Platform}} {{end}}post performs the way it does.
{{- if .Hashtags}}
Hashtags: {{join .Hashtags ", "}}
{{- end}}
{{- if .Mentions}}
Mentions: {{join .Mentions ", "}}
{{- end}}

Return ONLY a JSON object with these fields, nothing else:
{"summary": "one or two sentences", "key_factors": ["..."], "recommendations": ["..."]}

Post:
{{.Text}}

JSON:{{end}}

{{define "improve_post"}}Suggest concrete improvements for the following post.

Return ONLY a JSON object with these fields, nothing else:
{"engagement_suggestions": ["..."], "clarity_suggestions": ["..."], "structure_suggestions": ["..."]}

Post:
{{.Text}}

JSON:{{end}}

{{define "caption"}}Write 3 engaging captions for this image{{if .Platform}} for a {{.Platform}} post{{end}}.
{{- if .Keywords}}
Work in these keywords: {{.Keywords}}
{{- end}}

Put each caption on its own line. Do NOT number them or add commentary.

Captions:{{end}}
`))

func render(name string, data any) (string, error) {
	var b strings.Builder
	if err := prompts.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", name, err)
	}
	return b.String(), nil
}

// ToneAdjustPrompt renders the tone adjustment prompt
func ToneAdjustPrompt(in ToneAdjustInput) (string, error) {
	return render("tone_adjust", in)
}

// AnalyzePostPrompt renders the post analysis prompt
func AnalyzePostPrompt(in PostInput) (string, error) {
	return render("analyze_post", in)
}

// ImprovePostPrompt renders the post improvement prompt
func ImprovePostPrompt(in PostInput) (string, error) {
	return render("improve_post", in)
}

// CaptionPrompt renders the image caption prompt
func CaptionPrompt(in CaptionInput) (string, error) {
	return render("caption", in)
}
