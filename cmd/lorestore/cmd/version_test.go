package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekit/lorestore/pkg/version"
)

func TestVersionCmd_DefaultOutput(t *testing.T) {
	// When: executing version without flags
	output, err := executeCommand(t, "version")

	// Then: it should output the full version string
	require.NoError(t, err)
	assert.Contains(t, output, "lorestore")
	assert.Contains(t, output, version.Version)
	assert.Contains(t, output, "commit")
}

func TestVersionCmd_ShortOutput(t *testing.T) {
	// When: executing version --short
	output, err := executeCommand(t, "version", "--short")

	// Then: it should output only the version number
	require.NoError(t, err)
	assert.Equal(t, version.Version, strings.TrimSpace(output))
}

func TestVersionCmd_JSONOutput(t *testing.T) {
	// When: executing version --json
	output, err := executeCommand(t, "version", "--json")

	// Then: it should output valid JSON with all fields
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(output), &info))
	assert.Equal(t, version.Version, info["version"])
	assert.Contains(t, info, "commit")
	assert.Contains(t, info, "go_version")
	assert.Contains(t, info, "os")
	assert.Contains(t, info, "arch")
}
