package config

import (
	"os"
	"strconv"
	"strings"
)

// Provider instances are open-ended, so their env vars cannot be listed as
// static specs. They follow
//
//	<PREFIX>AILINK_PROVIDERS_<ID>_<FIELD>=value
//	<PREFIX>AILINK_ROUTING_<SLUG>=<provider id>
//
// where <ID> and <SLUG> use '_' for '-'. <FIELD> is one of providerFields,
// MODELS_<NAME>, or CREDENTIALS_<N>_<FIELD>.

type envField struct {
	key   string
	parse func(string) any
}

func asString(v string) any { return v }
func asLower(v string) any  { return strings.ToLower(v) }
func asBool(v string) any   { return strings.EqualFold(v, "true") || v == "1" }

func asInt(v string) any {
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return v
}

var providerFields = map[string]envField{
	"ENABLED":            {"enabled", asBool},
	"AI_PROVIDER":        {"ai_provider", asLower},
	"BASE_URL":           {"base_url", asString},
	"DEFAULT_CREDENTIAL": {"default_credential", asString},
	"SELECTION_POLICY":   {"selection_policy", asLower},
}

var credentialFields = map[string]envField{
	"API_KEY":  {"api_key", asString},
	"LABEL":    {"label", asString},
	"ENABLED":  {"enabled", asBool},
	"PRIORITY": {"priority", asInt},
}

// applyAILinkDynamicEnvOverrides folds provider and routing env vars into
// overrides under the "ailink" key.
func applyAILinkDynamicEnvOverrides(prefix string, overrides map[string]any) {
	providersPrefix := prefix + "AILINK_PROVIDERS_"
	routingPrefix := prefix + "AILINK_ROUTING_"

	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			continue
		}
		if rest, found := strings.CutPrefix(name, providersPrefix); found {
			setProviderEnv(overrides, strings.Split(rest, "_"), value)
		} else if rest, found := strings.CutPrefix(name, routingPrefix); found {
			if slug := envSlug(strings.Split(rest, "_")); slug != "" {
				childMap(childMap(overrides, "ailink"), "routing")[slug] = value
			}
		}
	}
}

// setProviderEnv applies one provider variable. The id is everything before
// the first token that starts a known field.
func setProviderEnv(overrides map[string]any, tokens []string, value string) {
	for i := 1; i < len(tokens); i++ {
		field := tokens[i:]
		provider := func() map[string]any {
			providers := childMap(childMap(overrides, "ailink"), "providers")
			return childMap(providers, envSlug(tokens[:i]))
		}

		if f, ok := providerFields[strings.Join(field, "_")]; ok {
			provider()[f.key] = f.parse(value)
			return
		}
		switch field[0] {
		case "MODELS":
			if len(field) >= 2 {
				childMap(provider(), "models")[strings.ToLower(strings.Join(field[1:], "_"))] = value
			}
			return
		case "CREDENTIALS":
			if len(field) < 3 {
				return
			}
			idx, err := strconv.Atoi(field[1])
			f, known := credentialFields[strings.Join(field[2:], "_")]
			if err != nil || idx < 0 || !known {
				return
			}
			credentialAt(provider(), idx)[f.key] = f.parse(value)
			return
		}
	}
}

func envSlug(tokens []string) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "-")
}

// childMap returns parent[key] as a map, replacing any non-map value.
func childMap(parent map[string]any, key string) map[string]any {
	if m, ok := parent[key].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	parent[key] = m
	return m
}

// credentialAt grows provider["credentials"] to hold idx and returns that entry.
func credentialAt(provider map[string]any, idx int) map[string]any {
	list, _ := provider["credentials"].([]any)
	for len(list) <= idx {
		list = append(list, map[string]any{})
	}
	provider["credentials"] = list
	if m, ok := list[idx].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	list[idx] = m
	return m
}
