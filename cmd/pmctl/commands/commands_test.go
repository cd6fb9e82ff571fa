package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestIngestDryRun(t *testing.T) {
	t.Setenv("CORPUS_BACKEND", "memory")
	t.Setenv("OPENAI_API_KEY", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "hills.txt")
	require.NoError(t, os.WriteFile(path, []byte("Property: Rosehill\nApartment, 2 bedrooms, AED 2,310,000\n"), 0o644))

	out, err := execute(t, "ingest", "--dry-run", path, filepath.Join(dir, "missing.txt"))
	require.NoError(t, err)

	var docs []struct {
		Source  string `json:"source"`
		Records []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"records"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &docs), out)
	require.Len(t, docs, 2)
	assert.Equal(t, "hills", docs[0].Source)
	require.Len(t, docs[0].Records, 1)
	assert.Equal(t, "Rosehill", docs[0].Records[0].Name)
	assert.Equal(t, "Apartment", docs[0].Records[0].Type)
	assert.Equal(t, "missing", docs[1].Source)
	assert.NotEmpty(t, docs[1].Error)
}

func TestIngestSources(t *testing.T) {
	t.Cleanup(func() { ingestSourceID, ingestLink, ingestSourcesFile = "", "", "" })

	ingestSourceID = "custom"
	_, err := ingestSources([]string{"a.pdf", "b.pdf"})
	assert.Error(t, err)

	ingestLink = "https://example.com"
	sources, err := ingestSources([]string{"brochures/a.pdf"})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "custom", sources[0].ID)
	assert.Equal(t, "https://example.com", sources[0].Link)
}
