package ai

import (
	"embed"
	"strings"
	"text/template"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

// Prompt templates, parsed once at package init.
var prompts = template.Must(
	template.New("prompts").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(promptFS, "prompts/*.tmpl"),
)

const (
	analyzePrompt   = "analyze.tmpl"
	summarizePrompt = "summarize.tmpl"
	recommendPrompt = "recommend.tmpl"
	insightsPrompt  = "insights.tmpl"
)
