package prompt

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*[A-Za-z0-9_]+\s*\}\}`)

// MissingVariables returns required variables absent or blank in vars.
func (p *Prompt) MissingVariables(vars map[string]string) []string {
	if p == nil {
		return nil
	}
	var missing []string
	for _, name := range p.Config.Input.RequiredVariables {
		if strings.TrimSpace(vars[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// Render expands conditionals and variables in both templates.
// Placeholders with no value are removed.
func (p *Prompt) Render(vars map[string]string) (string, string, error) {
	if p == nil {
		return "", "", errors.New("prompt is required")
	}
	if missing := p.MissingVariables(vars); len(missing) > 0 {
		return "", "", fmt.Errorf("prompt %s missing variables: %s", p.Config.Slug, strings.Join(missing, ", "))
	}

	system := renderTemplate(p.Config.SystemTemplate, vars)
	user := renderTemplate(p.Config.UserTemplate, vars)
	if strings.TrimSpace(system) == "" {
		return "", "", errors.New("system prompt is required")
	}
	return system, user, nil
}

func renderTemplate(template string, vars map[string]string) string {
	if template == "" {
		return ""
	}
	out := applyConditionals(template, vars)
	out = applyVars(out, vars)
	return strings.TrimSpace(collapseBlankLines(out))
}

// applyVars fills every placeholder in one pass; unknown ones become empty.
// Substituted values are never rescanned, so user text containing {{x}} stays literal.
func applyVars(template string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := strings.TrimSpace(match[2 : len(match)-2])
		return vars[key]
	})
}

// applyConditionals handles {{#if var}}content{{else}}fallback{{/if}} blocks.
func applyConditionals(template string, vars map[string]string) string {
	result := template
	for {
		start := strings.Index(result, "{{#if")
		if start == -1 {
			break
		}
		tagEnd := strings.Index(result[start:], "}}")
		if tagEnd == -1 {
			break
		}
		tagEnd += start

		varName := strings.TrimSpace(result[start+len("{{#if") : tagEnd])
		blockStart := tagEnd + 2

		elseStart, elseEnd, endStart, endEnd := findConditionalBlock(result, blockStart)
		if endStart == -1 {
			break
		}

		ifContent := result[blockStart:endStart]
		elseContent := ""
		if elseStart != -1 {
			ifContent = result[blockStart:elseStart]
			elseContent = result[elseEnd:endStart]
		}

		replacement := elseContent
		if strings.TrimSpace(vars[varName]) != "" {
			replacement = ifContent
		}
		result = result[:start] + replacement + result[endEnd:]
	}
	return result
}

func findConditionalBlock(input string, start int) (int, int, int, int) {
	depth := 0
	elseStart, elseEnd := -1, -1

	pos := start
	for {
		openIdx := strings.Index(input[pos:], "{{")
		if openIdx == -1 {
			return -1, -1, -1, -1
		}
		openIdx += pos

		closeIdx := strings.Index(input[openIdx:], "}}")
		if closeIdx == -1 {
			return -1, -1, -1, -1
		}
		closeIdx += openIdx

		tag := strings.TrimSpace(input[openIdx+2 : closeIdx])
		switch {
		case tag == "#if" || strings.HasPrefix(tag, "#if "):
			depth++
		case tag == "/if":
			if depth == 0 {
				return elseStart, elseEnd, openIdx, closeIdx + 2
			}
			depth--
		case tag == "else" && depth == 0 && elseStart == -1:
			elseStart = openIdx
			elseEnd = closeIdx + 2
		}
		pos = closeIdx + 2
	}
}

// collapseBlankLines squeezes runs of empty lines left behind by removed blocks.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, strings.TrimRight(line, " \t"))
	}
	return strings.Join(out, "\n")
}
