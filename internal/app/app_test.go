package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/osinter/osinter/internal/config"
	"github.com/osinter/osinter/internal/domain"
	healthuc "github.com/osinter/osinter/internal/usecase/health"
	useruc "github.com/osinter/osinter/internal/usecase/user"
)

func embeddedConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverBolt, Path: filepath.Join(t.TempDir(), "app.db")},
		Search:   config.SearchConfig{Driver: config.SearchBleve},
		Auth: config.AuthConfig{Argon2: config.Argon2Config{
			Time: 1, MemoryKiB: 1024, Threads: 1, KeyLen: 16, SaltLen: 8,
		}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestNew_EmbeddedStack(t *testing.T) {
	a, err := New(embeddedConfig(t))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	ctx := context.Background()
	report := a.Health.Check(ctx)
	require.Equal(t, healthuc.Healthy, report.Status)

	u, err := a.Users.Signup(ctx, useruc.SignupParams{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	list, err := a.Subscriptions.ListItems(ctx, u.ID(), domain.KindCollection)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := OpenStore(config.DatabaseConfig{Driver: "couch"})
	require.ErrorContains(t, err, "couch")
}

func TestOpenEngine_UnknownDriver(t *testing.T) {
	_, err := OpenEngine(config.SearchConfig{Driver: "solr"})
	require.ErrorContains(t, err, "solr")
}
