package startup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/flow-controller/internal/config"
)

func testConfig(t *testing.T) config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.ConfigFile = "/etc/flow-controller/config.yaml"
	cfg.Boot.ScriptPath = filepath.Join(dir, "flow-controller-gpio.sh")
	cfg.Boot.ServicePath = filepath.Join(dir, "flow-controller-gpio.service")
	cfg.Boot.MainServicePath = filepath.Join(dir, "flow-controller.service")
	return cfg
}

func TestScript_ReferenceWiring(t *testing.T) {
	script := Script(config.Default())

	assert.True(t, strings.HasPrefix(script, "#!/bin/bash\n"))
	assert.Contains(t, script, "pinctrl set 22 op pn dh", "inverted valve is driven HIGH (closed)")
	assert.Contains(t, script, "pinctrl set 17 ip pu")
	for _, pin := range []string{"5", "6", "13", "19"} {
		assert.Contains(t, script, "pinctrl set "+pin+" ip pu")
	}
	assert.Less(t, strings.Index(script, "op pn"), strings.Index(script, "ip pu"), "valve is closed before anything else")
}

func TestScript_ActiveHighValve(t *testing.T) {
	cfg := config.Default()
	cfg.ValveActiveHigh = true

	assert.Contains(t, Script(cfg), "pinctrl set 22 op pn dl")
}

func TestInstall(t *testing.T) {
	cfg := testConfig(t)

	require.NoError(t, Install(cfg))

	info, err := os.Stat(cfg.Boot.ScriptPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())

	gpioUnit, err := os.ReadFile(cfg.Boot.ServicePath)
	require.NoError(t, err)
	assert.Contains(t, string(gpioUnit), "ExecStart="+cfg.Boot.ScriptPath)

	mainUnit, err := os.ReadFile(cfg.Boot.MainServicePath)
	require.NoError(t, err)
	assert.Contains(t, string(mainUnit), "Requires=flow-controller-gpio.service")
	assert.Contains(t, string(mainUnit), "ExecStart=/usr/local/bin/flow-controller -config-file /etc/flow-controller/config.yaml")
}

func TestInstall_UnwritablePath(t *testing.T) {
	cfg := testConfig(t)
	cfg.Boot.ScriptPath = filepath.Join(t.TempDir(), "missing", "script.sh")

	err := Install(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write boot script")
}
