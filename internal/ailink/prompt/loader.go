package prompt

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/schema"
	"gopkg.in/yaml.v3"
)

// Load parses and validates a prompt definition from YAML bytes.
func Load(source string, data []byte) (*Prompt, error) {
	config, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, fmt.Errorf("parse prompt %s: %w", source, err)
	}

	if strings.TrimSpace(config.SystemTemplate) == "" {
		config.SystemTemplate = strings.TrimSpace(body)
	}

	if strings.TrimSpace(config.SystemTemplate) == "" {
		return nil, fmt.Errorf("prompt %s missing system_template", source)
	}
	if config.ResponseFormat == "" {
		config.ResponseFormat = FormatJSON
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("validate prompt %s: %w", source, err)
	}

	return &Prompt{Config: config, Source: source}, nil
}

// splitFrontmatter separates a leading "---" YAML block from the markdown
// body. Files without a block are parsed as plain YAML with no body.
func splitFrontmatter(data []byte) (Config, string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Config{}, "", fmt.Errorf("empty prompt")
	}

	var cfg Config
	rest, hasHeader := bytes.CutPrefix(trimmed, []byte("---"))
	if !hasHeader {
		if err := yaml.Unmarshal(trimmed, &cfg); err != nil {
			return Config{}, "", fmt.Errorf("invalid yaml: %w", err)
		}
		return cfg, "", nil
	}

	front, body, closed := bytes.Cut(rest, []byte("\n---"))
	if !closed {
		return Config{}, "", fmt.Errorf("frontmatter is not closed")
	}
	if err := yaml.Unmarshal(front, &cfg); err != nil {
		return Config{}, "", fmt.Errorf("invalid frontmatter: %w", err)
	}
	// Drop the remainder of the closing delimiter line.
	if nl := bytes.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = nil
	}
	return cfg, string(body), nil
}

//go:embed schemas/prompt.schema.json
var promptSchema []byte

func validateConfig(cfg Config) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	validator, err := schema.NewValidator(promptSchema)
	if err != nil {
		return fmt.Errorf("compile prompt schema: %w", err)
	}
	diagnostics, err := validator.ValidateJSON(payload)
	if err != nil {
		return err
	}
	if len(diagnostics) > 0 {
		return fmt.Errorf("schema validation failed: %s", diagnostics[0].Message)
	}

	for _, required := range cfg.Input.RequiredVariables {
		if !strings.Contains(cfg.SystemTemplate+cfg.UserTemplate, "{{"+required+"}}") {
			return fmt.Errorf("required variable %q is not used by the templates", required)
		}
	}
	return nil
}
