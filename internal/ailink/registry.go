package ailink

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/namelens/dentalnames/internal/ailink/driver"
	"github.com/namelens/dentalnames/internal/ailink/driver/gemini"
	"github.com/namelens/dentalnames/internal/ailink/driver/openai"
	"github.com/namelens/dentalnames/internal/ailink/prompt"
)

// driverFactory builds a driver bound to one credential.
type driverFactory func(baseURL, apiKey string, timeout time.Duration) driver.Driver

func newOpenAI(baseURL, apiKey string, timeout time.Duration) driver.Driver {
	c := openai.NewClient(baseURL, apiKey)
	c.Timeout = timeout
	return c
}

func newGemini(baseURL, apiKey string, timeout time.Duration) driver.Driver {
	c := gemini.NewClient(baseURL, apiKey)
	c.Timeout = timeout
	return c
}

var defaultFactories = map[string]driverFactory{
	"openai": newOpenAI,
	"gemini": newGemini,
	"google": newGemini,
}

// ResolvedProvider is everything needed to send one prompt.
type ResolvedProvider struct {
	ProviderID string
	Provider   ProviderInstanceConfig
	Credential CredentialConfig
	Driver     driver.Driver
	Model      string
}

// Registry picks a provider instance, credential, driver and model for a
// prompt slug. Drivers are built once per provider and credential.
type Registry struct {
	cfg       Config
	factories map[string]driverFactory

	mu      sync.Mutex
	drivers map[driverKey]driver.Driver
	turns   map[string]int
}

type driverKey struct {
	provider   string
	credential string
}

func NewRegistry(cfg Config) *Registry {
	return &Registry{
		cfg:       cfg,
		factories: defaultFactories,
		drivers:   map[driverKey]driver.Driver{},
		turns:     map[string]int{},
	}
}

// Resolve routes slug to a provider. modelOverride wins over the prompt's
// preferred models, which win over the provider's default model.
func (r *Registry) Resolve(slug string, def *prompt.Prompt, modelOverride string) (*ResolvedProvider, error) {
	if r == nil {
		return nil, fmt.Errorf("ailink registry not configured")
	}

	id, pcfg, err := r.route(strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}

	cred, credKey, err := r.credential(id, pcfg)
	if err != nil {
		return nil, err
	}

	drv, err := r.driver(id, pcfg, cred, credKey)
	if err != nil {
		return nil, err
	}

	model, err := resolveModel(pcfg, def, modelOverride)
	if err != nil {
		return nil, fmt.Errorf("provider %q: %w", id, err)
	}

	return &ResolvedProvider{
		ProviderID: id,
		Provider:   pcfg,
		Credential: cred,
		Driver:     drv,
		Model:      model,
	}, nil
}

// route tries, in order: explicit routing, a provider claiming the slug in
// its roles, the default provider, and the only enabled provider.
func (r *Registry) route(slug string) (string, ProviderInstanceConfig, error) {
	if slug != "" {
		if id := strings.TrimSpace(r.cfg.Routing[slug]); id != "" {
			return r.enabled(id, fmt.Sprintf("routing for %q", slug))
		}
		for _, id := range r.enabledIDs() {
			if hasRole(r.cfg.Providers[id].Roles, slug) {
				return id, r.cfg.Providers[id], nil
			}
		}
	}

	if id := strings.TrimSpace(r.cfg.DefaultProvider); id != "" {
		return r.enabled(id, "default_provider")
	}

	ids := r.enabledIDs()
	switch len(ids) {
	case 0:
		return "", ProviderInstanceConfig{}, fmt.Errorf("no enabled providers configured")
	case 1:
		return ids[0], r.cfg.Providers[ids[0]], nil
	default:
		return "", ProviderInstanceConfig{}, fmt.Errorf("%d providers enabled and no routing for %q", len(ids), slug)
	}
}

func (r *Registry) enabled(id, source string) (string, ProviderInstanceConfig, error) {
	pcfg, ok := r.cfg.Providers[id]
	if !ok {
		return "", ProviderInstanceConfig{}, fmt.Errorf("%s names unknown provider %q", source, id)
	}
	if !pcfg.Enabled {
		return "", ProviderInstanceConfig{}, fmt.Errorf("%s names disabled provider %q", source, id)
	}
	return id, pcfg, nil
}

func (r *Registry) enabledIDs() []string {
	ids := make([]string, 0, len(r.cfg.Providers))
	for id, pcfg := range r.cfg.Providers {
		if pcfg.Enabled {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// credential applies default_credential, then selection_policy over the
// highest-priority usable credentials. The returned key identifies the
// credential for driver caching.
func (r *Registry) credential(providerID string, pcfg ProviderInstanceConfig) (CredentialConfig, string, error) {
	var usable []CredentialConfig
	for _, c := range pcfg.Credentials {
		if c.usable() {
			usable = append(usable, c)
		}
	}
	if len(usable) == 0 {
		return CredentialConfig{}, "", fmt.Errorf("provider %q has no usable credential", providerID)
	}

	if want := strings.TrimSpace(pcfg.DefaultCredential); want != "" {
		for _, c := range usable {
			if strings.EqualFold(strings.TrimSpace(c.Label), want) {
				return c, c.key(), nil
			}
		}
	}

	top := usable[0].Priority
	for _, c := range usable[1:] {
		top = max(top, c.Priority)
	}
	tier := slices.DeleteFunc(usable, func(c CredentialConfig) bool { return c.Priority != top })

	pick := tier[0]
	if strings.EqualFold(strings.TrimSpace(pcfg.SelectionPolicy), "round_robin") {
		pick = tier[r.turn(providerID+"/"+strconv.Itoa(top), len(tier))]
	}
	return pick, pick.key(), nil
}

// usable reports whether c has a key and is not switched off. Unlabeled
// credentials come from env vars that cannot set enabled, so they count.
func (c CredentialConfig) usable() bool {
	if strings.TrimSpace(c.APIKey) == "" {
		return false
	}
	return c.Enabled || strings.TrimSpace(c.Label) == ""
}

func (c CredentialConfig) key() string {
	if label := strings.TrimSpace(c.Label); label != "" {
		return label
	}
	return "p" + strconv.Itoa(c.Priority)
}

func (r *Registry) turn(group string, n int) int {
	if n <= 1 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.turns[group] % n
	r.turns[group]++
	return i
}

func (r *Registry) driver(providerID string, pcfg ProviderInstanceConfig, cred CredentialConfig, credKey string) (driver.Driver, error) {
	kind := strings.ToLower(strings.TrimSpace(pcfg.AIProvider))
	factory, ok := r.factories[kind]
	if !ok {
		if kind == "" {
			kind = "(unset)"
		}
		return nil, fmt.Errorf("unsupported ai_provider %q for provider %q", kind, providerID)
	}

	k := driverKey{provider: providerID, credential: credKey}
	r.mu.Lock()
	defer r.mu.Unlock()
	if drv, ok := r.drivers[k]; ok {
		return drv, nil
	}
	drv := factory(strings.TrimSpace(pcfg.BaseURL), cred.APIKey, r.cfg.DefaultTimeout)
	r.drivers[k] = drv
	return drv, nil
}

func resolveModel(pcfg ProviderInstanceConfig, def *prompt.Prompt, override string) (string, error) {
	if m := strings.TrimSpace(override); m != "" {
		return m, nil
	}
	if def != nil {
		for _, m := range def.Config.PreferredModels {
			if m = strings.TrimSpace(m); m != "" {
				return m, nil
			}
		}
	}
	if m := strings.TrimSpace(pcfg.Models["default"]); m != "" {
		return m, nil
	}
	return "", fmt.Errorf("model not configured")
}

func hasRole(roles []string, slug string) bool {
	return slices.ContainsFunc(roles, func(role string) bool {
		return strings.EqualFold(strings.TrimSpace(role), slug)
	})
}
