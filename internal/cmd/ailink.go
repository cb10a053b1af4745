package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/namelens/dentalnames/internal/ailink"
	"github.com/namelens/dentalnames/internal/ailink/content"
	"github.com/namelens/dentalnames/internal/ailink/driver"
	"github.com/namelens/dentalnames/internal/core/naming"
)

var ailinkCmd = &cobra.Command{
	Use:   "ailink",
	Short: "Inspect prompts and model providers",
}

var ailinkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompts (built-in merged with ailink.prompts_dir)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		service, err := ailink.NewService(cfg.AILink, cliLogger())
		if err != nil {
			return err
		}

		prompts := service.Registry.List()
		if len(prompts) == 0 {
			fmt.Println("No prompts found.")
			return nil
		}

		writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(writer, "SLUG\tVERSION\tFORMAT\tDESCRIPTION") // nolint:errcheck // tabwriter buffers; errors surface at Flush
		for _, p := range prompts {
			if p == nil {
				continue
			}
			_, _ = fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", p.Config.Slug, p.Config.Version, p.Config.ResponseFormat, p.Config.Description) // nolint:errcheck // tabwriter buffers
		}
		return writer.Flush()
	},
}

var ailinkProvidersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured provider instances and prompt routing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		if len(cfg.AILink.Providers) == 0 {
			fmt.Println("No providers configured.")
			return nil
		}

		ids := make([]string, 0, len(cfg.AILink.Providers))
		for id := range cfg.AILink.Providers {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		routes := map[string][]string{}
		for slug, id := range cfg.AILink.Routing {
			routes[id] = append(routes[id], slug)
		}

		writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(writer, "ID\tDRIVER\tENABLED\tMODEL\tKEYS\tROUTES") // nolint:errcheck // tabwriter buffers
		for _, id := range ids {
			p := cfg.AILink.Providers[id]
			keys := 0
			for _, cred := range p.Credentials {
				if strings.TrimSpace(cred.APIKey) != "" {
					keys++
				}
			}
			route := routes[id]
			sort.Strings(route)
			if id == cfg.AILink.DefaultProvider {
				route = append([]string{"(default)"}, route...)
			}
			_, _ = fmt.Fprintf(writer, "%s\t%s\t%t\t%s\t%d\t%s\n", id, p.AIProvider, p.Enabled, p.Models["default"], keys, strings.Join(route, ",")) // nolint:errcheck // tabwriter buffers
		}
		return writer.Flush()
	},
}

var ailinkPingCmd = &cobra.Command{
	Use:   "ping [prompt-slug...]",
	Short: "Send a minimal request through the provider routed for each prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		service, err := ailink.NewService(cfg.AILink, cliLogger())
		if err != nil {
			return err
		}
		timeout, _ := cmd.Flags().GetDuration("timeout")

		slugs := args
		if len(slugs) == 0 {
			slugs = []string{naming.PromptNames, naming.PromptScore, naming.PromptTagline}
		}

		failed := 0
		writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(writer, "PROMPT\tPROVIDER\tMODEL\tKEY\tLATENCY\tRESULT") // nolint:errcheck // tabwriter buffers
		for _, slug := range slugs {
			row := pingPrompt(cmd.Context(), service, slug, timeout)
			if row.err != nil {
				failed++
			}
			_, _ = fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n", slug, row.provider, row.model, row.key, row.latency, row.result()) // nolint:errcheck // tabwriter buffers
		}
		if err := writer.Flush(); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d prompt routes failed", failed, len(slugs))
		}
		return nil
	},
}

type pingRow struct {
	provider string
	model    string
	key      string
	latency  string
	err      error
}

func (r pingRow) result() string {
	if r.err != nil {
		return "FAIL: " + r.err.Error()
	}
	return "ok"
}

func pingPrompt(ctx context.Context, service *ailink.Service, slug string, timeout time.Duration) pingRow {
	row := pingRow{provider: "-", model: "-", key: "-", latency: "-"}
	def, err := service.Registry.Get(slug)
	if err != nil {
		row.err = err
		return row
	}
	resolved, err := service.Providers.Resolve(slug, def, "")
	if err != nil {
		row.err = err
		return row
	}
	row.provider = resolved.ProviderID + " (" + resolved.Driver.Name() + ")"
	row.model = resolved.Model
	row.key = maskKey(resolved.Credential.APIKey)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	maxTokens := 8
	started := time.Now()
	resp, err := resolved.Driver.Complete(ctx, &driver.Request{
		Model:      resolved.Model,
		Messages:   []content.Message{content.TextMessage(content.RoleUser, "Reply with the single word OK.")},
		MaxTokens:  &maxTokens,
		PromptSlug: slug,
	})
	row.latency = time.Since(started).Round(time.Millisecond).String()
	switch {
	case err != nil:
		row.err = err
	case strings.TrimSpace(resp.Text()) == "":
		row.err = ailink.ErrEmptyResponse
	}
	return row
}

func maskKey(apiKey string) string {
	apiKey = strings.TrimSpace(apiKey)
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:4] + "…" + apiKey[len(apiKey)-4:]
}

func init() {
	rootCmd.AddCommand(ailinkCmd)
	ailinkCmd.AddCommand(ailinkListCmd)
	ailinkCmd.AddCommand(ailinkProvidersCmd)
	ailinkCmd.AddCommand(ailinkPingCmd)

	ailinkPingCmd.Flags().Duration("timeout", 30*time.Second, "Per-request timeout")
}
