package modules

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracehub.io/tracehub/internal/api/handlers"
	"tracehub.io/tracehub/internal/config"
	"tracehub.io/tracehub/internal/jobs"
)

func TestInserter_BeforeInitRiver(t *testing.T) {
	infra := &Infrastructure{}
	_, err := infra.Inserter().Insert(context.Background(), jobs.ActivitySyncArgs{}, nil)
	require.True(t, errors.Is(err, errRiverNotReady), "err = %v", err)
}

func TestActivityToucher_NilWithoutRedis(t *testing.T) {
	var infra *Infrastructure
	assert.Nil(t, infra.ActivityToucher())
	assert.Nil(t, (&Infrastructure{}).ActivityToucher())
}

func TestJWTConfig(t *testing.T) {
	cfg := &config.Config{Security: config.SecurityConfig{JWTSigningKey: "k"}}
	got := JWTConfig(cfg)
	assert.Equal(t, "tracehub", got.Issuer)
	assert.Equal(t, []byte("k"), got.SigningKey)

	cfg.Security.JWTIssuer = "acme"
	assert.Equal(t, "acme", JWTConfig(cfg).Issuer)
}

type inboxContributor struct{ Module }

func (inboxContributor) ContributeServerDeps(deps *handlers.ServerDeps) {
	deps.Inbox = nil
}

func TestNewServerDeps_NoInfra(t *testing.T) {
	deps := NewServerDeps(nil, []Module{nil, inboxContributor{}})
	assert.Nil(t, deps.DB)
	assert.Nil(t, deps.Inbox)
}
