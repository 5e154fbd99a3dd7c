package testplan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iterflow/iterflow/internal/domain"
)

const samplePlan = `# Test plan: iteration 0001

## TC-001: Service starts cleanly
1. Build the binary.
2. Run it with the default config.
Expected: The service binds its port and logs "ready".

## TC-002: Rejects malformed config
1. Write a config file with an unknown key.
2. Run the binary against it.
Expected: Exit code 1 and a diagnostic naming the key.
`

func TestParse(t *testing.T) {
	cases, err := Parse(samplePlan)
	require.NoError(t, err)
	require.Len(t, cases, 2)

	assert.Equal(t, "TC-001", cases[0].ID)
	assert.Equal(t, "Service starts cleanly", cases[0].Name)
	assert.Equal(t, []string{"Build the binary.", "Run it with the default config."}, cases[0].Steps)
	assert.Equal(t, `The service binds its port and logs "ready".`, cases[0].Expected)

	assert.Equal(t, "TC-002", cases[1].ID)
	assert.Equal(t, "Exit code 1 and a diagnostic naming the key.", cases[1].Expected)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"empty document", "", "no test cases found"},
		{"no headings", "just prose\n", "no test cases found"},
		{"duplicate id", "## TC-001: a\n\n## TC-001: b\n", "duplicate test case id TC-001"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.content)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestParse_StepsAndExpectedOptional(t *testing.T) {
	cases, err := Parse("## TC-001: Placeholder\n")
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Empty(t, cases[0].Steps)
	assert.Empty(t, cases[0].Expected)
}

func TestWriteLoadJSON_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs", "test_plan.json")
	want := []domain.TestCase{
		{ID: "TC-001", Name: "smoke", Steps: []string{"run"}, Expected: "ok"},
		{ID: "TC-002", Name: "shutdown", Steps: []string{"stop", "wait"}, Expected: "clean exit"},
	}

	require.NoError(t, WriteJSON(path, want))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "\n"))
	assert.Contains(t, string(data), "  \"cases\"", "pretty-printed with two-space indent")

	got, err := LoadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadJSON_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadJSON(filepath.Join(dir, "absent.json"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadJSON(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed test plan JSON")

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"cases": []}`), 0o644))
	_, err = LoadJSON(empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contains no cases")
}

func TestParseFileErrorNamesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_plan.md")
	require.NoError(t, os.WriteFile(path, []byte("nothing here\n"), 0o644))

	_, err := ParseFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
