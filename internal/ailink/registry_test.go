package ailink

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/namelens/dentalnames/internal/ailink/driver/gemini"
	"github.com/namelens/dentalnames/internal/ailink/driver/openai"
	"github.com/namelens/dentalnames/internal/ailink/prompt"
)

func TestResolveModelUsesOverrideFirst(t *testing.T) {
	providerCfg := ProviderInstanceConfig{Models: map[string]string{"default": "m-default"}}

	model, err := resolveModel(providerCfg, nil, "override-model")
	require.NoError(t, err)
	require.Equal(t, "override-model", model)
}

func TestResolveModelFallsBackToPromptPreferredModels(t *testing.T) {
	providerCfg := ProviderInstanceConfig{Models: map[string]string{"default": "m-default"}}
	promptDef := &prompt.Prompt{Config: prompt.Config{PreferredModels: []string{" ", "prompt-model"}}}

	model, err := resolveModel(providerCfg, promptDef, "")
	require.NoError(t, err)
	require.Equal(t, "prompt-model", model)
}

func TestResolveModelRequiresSomeModel(t *testing.T) {
	_, err := resolveModel(ProviderInstanceConfig{}, nil, "")
	require.Error(t, err)
}

func TestResolveRoutesBySlugAndBuildsDrivers(t *testing.T) {
	reg := NewRegistry(Config{
		DefaultProvider: "oa",
		Routing:         map[string]string{"tagline-bio": "gm"},
		Providers: map[string]ProviderInstanceConfig{
			"oa": {Enabled: true, AIProvider: "openai", Models: map[string]string{"default": "gpt-4o-mini"}, Credentials: []CredentialConfig{{APIKey: "k1"}}},
			"gm": {Enabled: true, AIProvider: "gemini", Models: map[string]string{"default": "gemini-2.5-flash"}, Credentials: []CredentialConfig{{APIKey: "k2"}}},
		},
	})

	resolved, err := reg.Resolve("dental-names", nil, "")
	require.NoError(t, err)
	require.Equal(t, "oa", resolved.ProviderID)
	require.IsType(t, &openai.Client{}, resolved.Driver)
	require.Equal(t, "gpt-4o-mini", resolved.Model)

	resolved, err = reg.Resolve("tagline-bio", nil, "")
	require.NoError(t, err)
	require.Equal(t, "gm", resolved.ProviderID)
	require.IsType(t, &gemini.Client{}, resolved.Driver)

	again, err := reg.Resolve("tagline-bio", nil, "")
	require.NoError(t, err)
	require.Same(t, resolved.Driver, again.Driver)
}

func TestResolveRejectsUnknownDriver(t *testing.T) {
	reg := NewRegistry(Config{Providers: map[string]ProviderInstanceConfig{
		"x": {Enabled: true, AIProvider: "anthropic", Models: map[string]string{"default": "m"}, Credentials: []CredentialConfig{{APIKey: "k"}}},
	}})
	_, err := reg.Resolve("dental-names", nil, "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported ai_provider")
}

func TestCredentialRoundRobinWithinTopPriority(t *testing.T) {
	pcfg := ProviderInstanceConfig{
		SelectionPolicy: "round_robin",
		Credentials: []CredentialConfig{
			{Enabled: true, Label: "a", APIKey: "ka", Priority: 1},
			{Enabled: true, Label: "b", APIKey: "kb", Priority: 1},
			{Enabled: true, Label: "low", APIKey: "kl", Priority: 0},
		},
	}
	reg := NewRegistry(Config{})

	var labels []string
	for range 3 {
		cred, key, err := reg.credential("p", pcfg)
		require.NoError(t, err)
		require.Equal(t, cred.Label, key)
		labels = append(labels, cred.Label)
	}
	require.Equal(t, []string{"a", "b", "a"}, labels)
}

func TestCredentialSkipsDisabledAndHonorsDefault(t *testing.T) {
	pcfg := ProviderInstanceConfig{
		DefaultCredential: "Backup",
		Credentials: []CredentialConfig{
			{Enabled: false, Label: "off", APIKey: "k0", Priority: 9},
			{Enabled: true, Label: "main", APIKey: "k1", Priority: 5},
			{Enabled: true, Label: "backup", APIKey: "k2", Priority: 1},
		},
	}
	reg := NewRegistry(Config{})

	cred, _, err := reg.credential("p", pcfg)
	require.NoError(t, err)
	require.Equal(t, "backup", cred.Label)

	pcfg.DefaultCredential = ""
	cred, _, err = reg.credential("p", pcfg)
	require.NoError(t, err)
	require.Equal(t, "main", cred.Label)
}

func TestCredentialUnlabeledEnvKey(t *testing.T) {
	reg := NewRegistry(Config{})
	cred, key, err := reg.credential("p", ProviderInstanceConfig{Credentials: []CredentialConfig{{APIKey: "k"}}})
	require.NoError(t, err)
	require.Equal(t, "k", cred.APIKey)
	require.Equal(t, "p0", key)

	_, _, err = reg.credential("p", ProviderInstanceConfig{Credentials: []CredentialConfig{{Label: "x", Enabled: true}}})
	require.Error(t, err)
}

func TestRouteOrder(t *testing.T) {
	providers := map[string]ProviderInstanceConfig{
		"a": {Enabled: true},
		"b": {Enabled: true, Roles: []string{"name-score"}},
		"c": {Enabled: false, Roles: []string{"dental-names"}},
	}

	reg := NewRegistry(Config{Providers: providers, DefaultProvider: "a"})
	id, _, err := reg.route("name-score")
	require.NoError(t, err)
	require.Equal(t, "b", id)

	id, _, err = reg.route("dental-names")
	require.NoError(t, err)
	require.Equal(t, "a", id)

	reg = NewRegistry(Config{Providers: providers})
	_, _, err = reg.route("dental-names")
	require.Error(t, err)

	reg = NewRegistry(Config{Providers: providers, Routing: map[string]string{"tagline-bio": "c"}})
	_, _, err = reg.route("tagline-bio")
	require.ErrorContains(t, err, "disabled")
}
