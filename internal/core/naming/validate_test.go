package naming

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const brightSmile = "```json\n" + `[{"name":"Bright Smile Dental","rationale":"Cheerful and clear.","pronounceabilityScore":8,"totalNameScore":90,` +
	`"brandKit":{"headingFont":"Poppins","bodyFont":"Inter","colorPalette":{"primary":"#1E88E5","accent":"#FFC107","background":"#FFF","foreground":"#212121"}},` +
	`"seo":{"title":"Bright Smile Dental","description":"Family dentistry."}}]` + "\n```"

func loadFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/candidates.json")
	require.NoError(t, err)
	return string(data)
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "json fence", in: "```json\n[1]\n```", want: "[1]"},
		{name: "bare fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "upper case tag", in: "```JSON\n[]\n```", want: "[]"},
		{name: "no fence", in: "  [1, 2]  \n", want: "[1, 2]"},
		{name: "only trailing", in: "[1]\n```", want: "[1]"},
		{name: "empty", in: "   ", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := StripCodeFence(tc.in)
			require.Equal(t, tc.want, got)
			require.Equal(t, got, StripCodeFence(got))
		})
	}
}

func TestStripCodeFenceLeavesJSONUntouched(t *testing.T) {
	fixture := strings.TrimSpace(loadFixture(t))
	require.Equal(t, fixture, StripCodeFence(fixture))
	require.Equal(t, fixture, StripCodeFence("```json\n"+fixture+"\n```"))
}

func TestParseCandidatesFencedExample(t *testing.T) {
	result := ParseCandidates(brightSmile)
	require.True(t, result.OK(), "issues: %v", result.Issues)
	require.NoError(t, result.Err())
	require.Len(t, result.Value, 1)
	require.Equal(t, "Bright Smile Dental", result.Value[0].Name)
	require.Equal(t, "#FFF", result.Value[0].BrandKit.ColorPalette.Background)
}

func TestParseCandidatesFixture(t *testing.T) {
	result := ParseCandidates(loadFixture(t))
	require.True(t, result.OK(), "issues: %v", result.Issues)
	require.Len(t, result.Value, 2)
	require.Equal(t, 92.0, result.Value[1].TotalNameScore)
	require.Equal(t, "Lato", result.Value[1].BrandKit.BodyFont)
}

func mutateFixture(t *testing.T, mutate func(items []map[string]any)) string {
	t.Helper()
	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(loadFixture(t)), &items))
	mutate(items)
	data, err := json.Marshal(items)
	require.NoError(t, err)
	return string(data)
}

func TestParseCandidatesRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"not json":     "not json at all",
		"empty":        "",
		"whitespace":   "  \n ",
		"empty array":  "[]",
		"object":       `{"name":"Solo"}`,
		"truncated":    `[{"name":"Bright"`,
		"fenced empty": "```json\n```",
		"missing seo": mutateFixture(t, func(items []map[string]any) {
			delete(items[0], "seo")
		}),
		"pronounceability too high": mutateFixture(t, func(items []map[string]any) {
			items[0]["pronounceabilityScore"] = 11
		}),
		"total score negative": mutateFixture(t, func(items []map[string]any) {
			items[1]["totalNameScore"] = -1
		}),
		"score as string": mutateFixture(t, func(items []map[string]any) {
			items[0]["totalNameScore"] = "90"
		}),
		"bad hex": mutateFixture(t, func(items []map[string]any) {
			kit := items[1]["brandKit"].(map[string]any)
			kit["colorPalette"].(map[string]any)["accent"] = "orange"
		}),
		"missing palette color": mutateFixture(t, func(items []map[string]any) {
			kit := items[0]["brandKit"].(map[string]any)
			delete(kit["colorPalette"].(map[string]any), "foreground")
		}),
		"empty name": mutateFixture(t, func(items []map[string]any) {
			items[0]["name"] = ""
		}),
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			result := ParseCandidates(raw)
			require.False(t, result.OK())
			require.Nil(t, result.Value)
			require.Error(t, result.Err())
			require.NotEmpty(t, result.Issues)

			var verr *ValidationError
			require.ErrorAs(t, result.Err(), &verr)
		})
	}
}

func TestParseCandidatesReportsFieldPath(t *testing.T) {
	raw := mutateFixture(t, func(items []map[string]any) {
		items[1]["pronounceabilityScore"] = 42
	})
	result := ParseCandidates(raw)
	require.False(t, result.OK())
	require.Contains(t, result.Err().Error(), "1.pronounceabilityScore")
}

func TestParseScore(t *testing.T) {
	result := ParseScore("```json\n{\"pronounceabilityScore\": 8, \"suitabilityScore\": 75, \"rationale\": \"Short and friendly.\"}\n```")
	require.True(t, result.OK(), "issues: %v", result.Issues)
	require.Equal(t, 75.0, result.Value.SuitabilityScore)

	result = ParseScore(`{"pronounceabilityScore": 8, "suitabilityScore": 175, "rationale": "x"}`)
	require.False(t, result.OK())
}

func TestParseTaglineBioTruncatesBio(t *testing.T) {
	long := strings.Repeat("a", 200)
	result := ParseTaglineBio(`{"tagline":" Smiles that last ","socialMediaBio":"` + long + `"}`)
	require.True(t, result.OK())
	require.Equal(t, "Smiles that last", result.Value.Tagline)
	require.Len(t, []rune(result.Value.SocialMediaBio), MaxBioLength)

	result = ParseTaglineBio(`{"tagline":""}`)
	require.False(t, result.OK())
}
