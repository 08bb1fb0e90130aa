package har

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/devnull-http/devnull/internal/config"
)

const sampleHAR = `{
  "log": {
    "entries": [
      {
        "request": {
          "method": "GET",
          "url": "https://example.com/api/users?id=42",
          "queryString": [{"name": "id", "value": "42"}]
        },
        "response": {
          "status": 200,
          "headers": [
            {"name": "Content-Type", "value": "application/json"},
            {"name": "X-Trace-Id", "value": "should-be-dropped"}
          ],
          "content": {"mimeType": "application/json", "text": "{\"id\":42,\"name\":\"ada\"}"}
        }
      },
      {
        "request": {
          "method": "GET",
          "url": "https://example.com/api/users?id=42",
          "queryString": [{"name": "id", "value": "42"}]
        },
        "response": {
          "status": 200,
          "headers": [{"name": "Content-Type", "value": "application/json"}],
          "content": {"mimeType": "application/json", "text": "{\"id\":43,\"name\":\"bob\"}"}
        }
      },
      {
        "request": {"method": "GET", "url": "https://example.com/", "queryString": []},
        "response": {
          "status": 204,
          "headers": [],
          "content": {"mimeType": "text/plain", "text": ""}
        }
      }
    ]
  }
}`

func TestConvert_GroupsByMethodPathAndQuery(t *testing.T) {
	dir := t.TempDir()
	harPath := filepath.Join(dir, "capture.har")
	require.NoError(t, os.WriteFile(harPath, []byte(sampleHAR), 0o644))

	destDir := filepath.Join(dir, "out")
	count, err := Convert(harPath, destDir)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "two distinct matchers: /api/users?id=42 and /")

	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)

	var yamlFiles []string
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".yaml" {
			yamlFiles = append(yamlFiles, e.Name())
		}
	}
	assert.Len(t, yamlFiles, 2)
}

func TestConvert_ResponsesLengthMatchesSourceEntryCount(t *testing.T) {
	dir := t.TempDir()
	harPath := filepath.Join(dir, "capture.har")
	require.NoError(t, os.WriteFile(harPath, []byte(sampleHAR), 0o644))

	destDir := filepath.Join(dir, "out")
	_, err := Convert(harPath, destDir)
	require.NoError(t, err)

	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)

	var usersMatcherYAML string
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".yaml" && strings.Contains(e.Name(), "api__users") {
			usersMatcherYAML = e.Name()
		}
	}
	require.NotEmpty(t, usersMatcherYAML, "expected a matcher file for the /api/users group")

	raw, err := os.ReadFile(filepath.Join(destDir, usersMatcherYAML))
	require.NoError(t, err)

	var doc struct {
		Responses []config.ResponseTemplate `yaml:"responses"`
	}
	require.NoError(t, yaml.Unmarshal(raw, &doc))
	assert.Len(t, doc.Responses, 2, "two source entries in this group must yield two response templates")
}

func TestConvert_ExternalizesBodyToAssetFile(t *testing.T) {
	dir := t.TempDir()
	harPath := filepath.Join(dir, "capture.har")
	require.NoError(t, os.WriteFile(harPath, []byte(sampleHAR), 0o644))

	destDir := filepath.Join(dir, "out")
	_, err := Convert(harPath, destDir)
	require.NoError(t, err)

	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)

	var jsonAssets int
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			jsonAssets++
		}
	}
	assert.Equal(t, 2, jsonAssets, "each distinct json body is externalized to its own asset file")
}

func TestSanitizeForFilename_RootPath(t *testing.T) {
	assert.Equal(t, "root.html", sanitizeForFilename("/"))
	assert.Equal(t, "root.html", sanitizeForFilename(""))
	assert.Equal(t, "api__users", sanitizeForFilename("/api/users"))
}
