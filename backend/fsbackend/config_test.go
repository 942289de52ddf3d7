package fsbackend

import (
	"path/filepath"
	"testing"

	"github.com/arkenfold/gitkit/backend"
	"github.com/arkenfold/gitkit/internal/gitpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"
)

func TestSetDefaultCfg(t *testing.T) {
	t.Parallel()

	b := newTestBackend(t)

	cfg, err := ini.Load(filepath.Join(b.root, gitpath.ConfigPath))
	require.NoError(t, err)

	core, err := cfg.GetSection(backend.CfgCore)
	require.NoError(t, err)

	assert.Equal(t, "0", core.Key(backend.CfgCoreFormatVersion).String())
	assert.Equal(t, "true", core.Key(backend.CfgCoreFileMode).String())
	assert.Equal(t, "false", core.Key(backend.CfgCoreBare).String())
	assert.Equal(t, "true", core.Key(backend.CfgCoreLogAllRefUpdate).String())
	assert.Equal(t, "true", core.Key(backend.CfgCoreIgnoreCase).String())
	assert.Equal(t, "true", core.Key(backend.CfgCorePrecomposeUnicode).String())
}
