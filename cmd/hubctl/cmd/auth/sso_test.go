package auth

import (
	"testing"

	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSOCmd_DocumentsCallbackAddress(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	settings, err := config.Load(viper.New(), "")
	require.NoError(t, err)

	assert.Contains(t, ssoCmd.Long, "sso.callback_addr")
	assert.Contains(t, ssoCmd.Long, "default "+settings.SSO.CallbackAddr)
}
