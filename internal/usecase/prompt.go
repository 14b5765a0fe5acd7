package usecase

import (
	"sort"
	"strings"
)

// Prompt placeholders understood by the templates.
const (
	varTitle       = "title"
	varSnippet     = "snippet"
	varContent     = "content"
	varImageList   = "imageList"
	varCategory    = "category"
	varSubCategory = "subCategory"
)

// RenderPrompt substitutes ${name} placeholders. Unknown placeholders are
// left untouched.
func RenderPrompt(template string, vars map[string]string) string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, 2*len(names))
	for _, name := range names {
		pairs = append(pairs, "${"+name+"}", vars[name])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// truncateRunes cuts s to at most limit runes; limit <= 0 disables it.
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func formatImageList(hero string, body []string) string {
	var sb strings.Builder
	if hero != "" {
		sb.WriteString("- ")
		sb.WriteString(hero)
		sb.WriteString(" (hero)\n")
	}
	for _, img := range body {
		sb.WriteString("- ")
		sb.WriteString(img)
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}
