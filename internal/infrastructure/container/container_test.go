package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/reglet-dev/autoslice/internal/application/ports"
	"github.com/reglet-dev/autoslice/internal/infrastructure/process"
	"github.com/reglet-dev/autoslice/internal/infrastructure/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopRunner struct{}

func (noopRunner) Run(context.Context, string, ...string) (process.Result, error) {
	return process.Result{}, nil
}

func testConfig(t *testing.T) *system.Config {
	t.Helper()
	base := t.TempDir()
	cfg := system.DefaultConfig()
	cfg.Projects = filepath.Join(base, "projects")
	cfg.Profiles = filepath.Join(base, "profiles")
	for _, dir := range []string{cfg.Projects, filepath.Join(cfg.Profiles, "printer")} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}
	require.NoError(t, cfg.Resolve())
	return cfg
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)
	cfg.Targets = []string{"pi@mk4:/w[mk4]", "nas:/all"}

	c, err := New(cfg, Options{Runner: noopRunner{}})
	require.NoError(t, err)

	assert.Same(t, cfg, c.Config())
	assert.NotNil(t, c.Catalog())
	assert.NotNil(t, c.Projects())
	assert.NotNil(t, c.PlanProjectUseCase())
	assert.NotNil(t, c.Logger())
	assert.Equal(t, cfg.Output, c.Store().Root())
	assert.Zero(t, c.Distributor().Failures())
	assert.NotNil(t, c.Metrics().Registry())
	assert.NotNil(t, c.ProjectWatcher())
	assert.NotNil(t, c.ProfileWatcher())
}

func TestNew_InvalidTarget(t *testing.T) {
	cfg := testConfig(t)
	cfg.Targets = []string{"[mk4]"}

	_, err := New(cfg, Options{Runner: noopRunner{}})
	assert.Error(t, err)
}

func TestRouterFeedsEngine(t *testing.T) {
	cfg := testConfig(t)
	c, err := New(cfg, Options{Runner: noopRunner{}})
	require.NoError(t, err)

	ctx := context.Background()
	project := filepath.Join(cfg.Projects, "box.3mf")
	c.Router().HandleProjectEvent(ctx, ports.ChangeEvent{Kind: ports.ChangeUpdate, Path: project})
	assert.Equal(t, 2, c.Engine().Pending(), "sweep then regenerate")

	c.Router().HandleProfileEvent(ctx, ports.ChangeEvent{
		Kind: ports.ChangeUpdate,
		Path: filepath.Join(cfg.Profiles, "printer", "mk4.ini"),
	})
	assert.Equal(t, 3, c.Engine().Pending())

	// The artifact tree holds no projects.
	c.Router().HandleProjectEvent(ctx, ports.ChangeEvent{
		Kind: ports.ChangeUpdate,
		Path: filepath.Join(cfg.Output, "box.3mf"),
	})
	assert.Equal(t, 3, c.Engine().Pending())
}
