package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/agubarev/lowcode/pkg/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	dir := t.TempDir()

	path := filepath.Join(dir, "lowcode.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: memory\n"), 0644))

	out := &bytes.Buffer{}

	rootCmd.SetOut(out)
	rootCmd.SetArgs(append([]string{"--config", path}, args...))

	err := rootCmd.Execute()

	return out.String(), err
}

func TestDomainCreate(t *testing.T) {
	a := assert.New(t)

	out, err := run(t, "domain", "create", "--name", "Acme Corp", "--owner", "alice")
	a.NoError(err)
	a.Contains(out, `"slug": "acme-corp"`)
	a.Contains(out, `"Domain Admin"`)
	a.Contains(out, `"Domain Contributor"`)
}

func TestWorkflowImport_UnknownDomain(t *testing.T) {
	a := assert.New(t)

	def := filepath.Join(t.TempDir(), "definition.yaml")
	require.NoError(t, os.WriteFile(def, []byte(`
name: Lead qualification
states:
  - id: draft
    is_initial: true
`), 0644))

	// the memory backend starts empty on every invocation
	_, err := run(t, "workflow", "import", def, "--domain", "acme", "--user", "alice")
	a.True(fault.IsNotFound(err))

	_, err = run(t, "workflow", "import", filepath.Join(t.TempDir(), "missing.yaml"), "--domain", "acme", "--user", "alice")
	a.Error(err)
}

func TestConfigPath(t *testing.T) {
	a := assert.New(t)

	cfgFile = "/etc/lowcode.yaml"
	defer func() { cfgFile = "" }()

	path, err := configPath()
	a.NoError(err)
	a.Equal("/etc/lowcode.yaml", path)
}
