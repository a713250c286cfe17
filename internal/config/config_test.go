package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, LoaderPerInvocation, c.Macro.ClassLoader)
	assert.Equal(t, StoreMemory, c.Store.Kind)
	assert.False(t, c.Macro.ConstructorProbing)
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
macro:
  classpath: [macros, /opt/more.macros.yaml]
  constructor_probing: true
  class_loader: session
  watch: true
  annotations: [Double]
store:
  kind: badger
  path: .quasi/store
logging:
  level: debug
  format: json
`))
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	assert.Equal(t, []string{"macros", "/opt/more.macros.yaml"}, c.Macro.Classpath)
	assert.True(t, c.Macro.ConstructorProbing)
	assert.Equal(t, []string{"Double"}, c.Macro.Annotations)
	assert.Equal(t, "json", c.Logging.Format)
}

func TestValidateRejects(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"loader":      func(c *Config) { c.Macro.ClassLoader = "forever" },
		"badger path": func(c *Config) { c.Store.Kind = StoreBadger },
		"store kind":  func(c *Config) { c.Store.Kind = "redis" },
		"level":       func(c *Config) { c.Logging.Level = "loud" },
		"empty entry": func(c *Config) { c.Macro.Classpath = []string{""} },
		"watch":       func(c *Config) { c.Macro.Watch = true },
	} {
		c := Default()
		mutate(c)
		assert.Error(t, c.Validate(), name)
	}
}

func TestApplyEnv(t *testing.T) {
	c := Default()
	list := "a" + string(os.PathListSeparator) + string(os.PathListSeparator) + " b "
	c.ApplyEnv(func(k string) string {
		if k == EnvClasspath {
			return list
		}
		return ""
	})
	assert.Equal(t, []string{"a", "b"}, c.Macro.Classpath)
}

func TestLoadResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("macro:\n  classpath: [m]\nstore:\n  kind: badger\n  path: db\n"), 0o644))
	t.Setenv(EnvClasspath, "")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "m")}, c.Macro.Classpath)
	assert.Equal(t, filepath.Join(dir, "db"), c.Store.Path)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
