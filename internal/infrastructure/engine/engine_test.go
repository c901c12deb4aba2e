package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/reglet-dev/autoslice/internal/application/ports"
	"github.com/reglet-dev/autoslice/internal/domain/entities"
	"github.com/reglet-dev/autoslice/internal/domain/execution"
	"github.com/reglet-dev/autoslice/internal/domain/services"
	"github.com/reglet-dev/autoslice/internal/domain/values"
	"github.com/reglet-dev/autoslice/internal/infrastructure/artifacts"
	"github.com/reglet-dev/autoslice/internal/infrastructure/catalog"
	"github.com/reglet-dev/autoslice/internal/infrastructure/projects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSlicer writes the output file the way a real slicer would.
type fakeSlicer struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
	gate  chan struct{}
}

func (s *fakeSlicer) Slice(_ context.Context, job entities.SliceJob) error {
	if s.gate != nil {
		<-s.gate
	}

	s.mu.Lock()
	s.calls = append(s.calls, job.Artifact.RelPath)
	fail := s.fail[job.Artifact.RelPath]
	s.mu.Unlock()

	if fail {
		return errors.New("slicer exited with status 1")
	}
	return os.WriteFile(job.Artifact.Path, []byte(job.Artifact.RelPath), 0o600)
}

func (s *fakeSlicer) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	calls := slices.Clone(s.calls)
	slices.Sort(calls)
	return calls
}

func (s *fakeSlicer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

type fakeTransferer struct {
	mu      sync.Mutex
	mirrors []entities.MirrorJob
	sends   []string
	fail    map[string]bool
}

func (t *fakeTransferer) Mirror(_ context.Context, job entities.MirrorJob) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mirrors = append(t.mirrors, job)
	if t.fail[job.Destination] {
		return errors.New("connection refused")
	}
	return nil
}

func (t *fakeTransferer) Send(_ context.Context, job entities.SendJob) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sends = append(t.sends, job.Destination)
	if t.fail[job.Destination] {
		return errors.New("connection refused")
	}
	return nil
}

func (t *fakeTransferer) Mirrors() []entities.MirrorJob {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.mirrors)
}

func (t *fakeTransferer) Sends() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	sends := slices.Clone(t.sends)
	slices.Sort(sends)
	return sends
}

type harness struct {
	base     string
	profiles string
	out      string
	engine   *Engine
	slicer   *fakeSlicer
	transfer *fakeTransferer
	store    *artifacts.Store
	walker   *projects.Walker
}

func newHarness(t *testing.T, targets ...string) *harness {
	t.Helper()
	base := t.TempDir()
	h := &harness{
		base:     base,
		profiles: filepath.Join(base, "profiles"),
		out:      filepath.Join(base, "gcode"),
		slicer:   &fakeSlicer{},
		transfer: &fakeTransferer{},
	}
	for _, category := range values.Categories() {
		require.NoError(t, os.MkdirAll(filepath.Join(h.profiles, category.Dir()), 0o755))
	}
	require.NoError(t, os.MkdirAll(h.out, 0o755))

	walker, err := projects.NewWalker(base, "3mf", h.out, h.profiles)
	require.NoError(t, err)
	h.walker = walker
	h.store = artifacts.NewStore(services.NewArtifactLayout(h.out, "gcode"))

	parsed, err := entities.ParseTargets(targets)
	require.NoError(t, err)

	cfg := DefaultConfig()
	selector := services.NewTargetSelector(parsed, cfg.Policy)
	h.engine = NewEngine(
		catalog.NewDirSource(h.profiles, "ini"),
		walker,
		h.slicer,
		h.store,
		WithConfig(cfg),
		WithDistributor(NewDistributor(h.transfer, selector, h.out, cfg)),
	)
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.engine.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func (h *harness) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, h.engine.Drain(ctx))
}

func (h *harness) profile(t *testing.T, category values.ProfileCategory, name string) {
	t.Helper()
	path := filepath.Join(h.profiles, category.Dir(), name+".ini")
	require.NoError(t, os.WriteFile(path, []byte("[settings]\n"), 0o600))
}

func (h *harness) project(t *testing.T, rel string) entities.Project {
	t.Helper()
	path := filepath.Join(h.base, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("3mf"), 0o600))
	p, err := h.walker.Resolve(path)
	require.NoError(t, err)
	return p
}

func (h *harness) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(h.out, rel))
	return err == nil
}

// boxFixture is two printers, one filament and one print setting with a single project.
func boxFixture(t *testing.T, targets ...string) (*harness, entities.Project) {
	t.Helper()
	h := newHarness(t, targets...)
	h.profile(t, values.CategoryPrinter, "mk3")
	h.profile(t, values.CategoryPrinter, "mk4")
	h.profile(t, values.CategoryFilament, "pla")
	h.profile(t, values.CategoryPrintSetting, "draft")
	return h, h.project(t, "box.3mf")
}

func TestEngine_RegenerateAll(t *testing.T) {
	h, _ := boxFixture(t)
	h.start(t)

	require.True(t, h.engine.RegenerateAll())
	h.drain(t)

	assert.Equal(t, []string{
		"box.gcode",
		"box_mk3-pla-draft.gcode",
		"box_mk4-pla-draft.gcode",
	}, h.slicer.Calls())
	for _, rel := range h.slicer.Calls() {
		assert.True(t, h.exists(rel), rel)
	}

	results, err := h.engine.Repository().FindByKind(context.Background(), values.RequestRegenerateAll, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].Summary().Produced)
}

func TestEngine_RegenerateAll_WipesStaleArtifacts(t *testing.T) {
	h, _ := boxFixture(t)
	stale := filepath.Join(h.out, "gone_mk2-abs-fine.gcode")
	require.NoError(t, os.WriteFile(stale, nil, 0o600))
	h.start(t)

	require.True(t, h.engine.RegenerateAll())
	h.drain(t)

	assert.NoFileExists(t, stale)
	assert.True(t, h.exists("box.gcode"))
}

func TestEngine_RegenerateAll_SkipWipe(t *testing.T) {
	h, _ := boxFixture(t)
	kept := filepath.Join(h.out, "notes.txt")
	require.NoError(t, os.WriteFile(kept, nil, 0o600))
	h.start(t)

	require.True(t, h.engine.Enqueue(entities.Request{Kind: values.RequestRegenerateAll, SkipWipe: true}))
	h.drain(t)

	assert.FileExists(t, kept)
	assert.True(t, h.exists("box_mk4-pla-draft.gcode"))
}

func TestEngine_ThrottlesFullRegeneration(t *testing.T) {
	h, _ := boxFixture(t)

	assert.True(t, h.engine.RegenerateAll())
	assert.True(t, h.engine.RegenerateAll())
	assert.False(t, h.engine.RegenerateAll(), "a third outstanding full pass is redundant")
	assert.Equal(t, 2, h.engine.Pending())

	h.start(t)
	h.drain(t)

	assert.True(t, h.engine.RegenerateAll(), "admission reopens once passes complete")
	h.drain(t)

	results, err := h.engine.Repository().FindByKind(context.Background(), values.RequestRegenerateAll, 0)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestEngine_PassesNeverOverlap(t *testing.T) {
	h, box := boxFixture(t)
	h.slicer.gate = make(chan struct{})

	h.start(t)
	require.True(t, h.engine.RegenerateAll())
	require.True(t, h.engine.RegenerateProject(box))
	require.True(t, h.engine.RegenerateForDirtyProfile(values.ProfileRef{Category: values.CategoryPrinter, Name: "mk3"}))
	require.True(t, h.engine.SweepProject(box))
	close(h.slicer.gate)
	h.drain(t)

	results, err := h.engine.Repository().Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, results, 4)
	slices.Reverse(results)

	kinds := make([]values.RequestKind, 0, len(results))
	for i, r := range results {
		kinds = append(kinds, r.Kind)
		if i > 0 {
			assert.False(t, r.StartTime.Before(results[i-1].EndTime), "pass %d started before pass %d ended", i, i-1)
		}
	}
	assert.Equal(t, []values.RequestKind{
		values.RequestRegenerateAll,
		values.RequestRegenerateProject,
		values.RequestRegenerateProfile,
		values.RequestSweepProject,
	}, kinds)
	assert.False(t, h.exists("box.gcode"), "sweep ran last")
}

func TestEngine_BulkMirrorOnlyAfterLastFullPass(t *testing.T) {
	h, _ := boxFixture(t, "pi@mk3:/watched[mk3]", "nas:/all")
	h.slicer.gate = make(chan struct{})

	h.start(t)
	require.True(t, h.engine.RegenerateAll())
	require.True(t, h.engine.RegenerateAll())
	close(h.slicer.gate)
	h.drain(t)

	mirrors := h.transfer.Mirrors()
	require.Len(t, mirrors, 2, "one mirror per target, only after the second pass")
	for _, m := range mirrors {
		assert.True(t, m.Delete)
		assert.Equal(t, h.out, m.Source)
	}
}

func TestEngine_DirtyProfileOnlyTouchesItsArtifacts(t *testing.T) {
	h, _ := boxFixture(t)
	h.start(t)
	require.True(t, h.engine.RegenerateAll())
	h.drain(t)

	vanilla, err := os.Stat(filepath.Join(h.out, "box.gcode"))
	require.NoError(t, err)
	h.slicer.Reset()

	require.True(t, h.engine.RegenerateForDirtyProfile(values.ProfileRef{Category: values.CategoryPrinter, Name: "mk4"}))
	h.drain(t)

	assert.Equal(t, []string{"box_mk4-pla-draft.gcode"}, h.slicer.Calls())
	after, err := os.Stat(filepath.Join(h.out, "box.gcode"))
	require.NoError(t, err)
	assert.Equal(t, vanilla.ModTime(), after.ModTime(), "vanilla artifact untouched")
	assert.True(t, h.exists("box_mk3-pla-draft.gcode"))

	h.slicer.Reset()
	require.True(t, h.engine.RegenerateForDirtyProfile(values.ProfileRef{Category: values.CategoryFilament, Name: "pla"}))
	h.drain(t)
	assert.Equal(t, []string{"box_mk3-pla-draft.gcode", "box_mk4-pla-draft.gcode"}, h.slicer.Calls())
}

func TestEngine_RemovedProfileDeletesArtifacts(t *testing.T) {
	h, _ := boxFixture(t)
	h.start(t)
	require.True(t, h.engine.RegenerateAll())
	h.drain(t)
	h.slicer.Reset()

	require.NoError(t, os.Remove(filepath.Join(h.profiles, "printer", "mk4.ini")))
	require.True(t, h.engine.RegenerateForDirtyProfile(values.ProfileRef{Category: values.CategoryPrinter, Name: "mk4"}))
	h.drain(t)

	assert.Empty(t, h.slicer.Calls())
	assert.False(t, h.exists("box_mk4-pla-draft.gcode"))
	assert.True(t, h.exists("box_mk3-pla-draft.gcode"))
	assert.True(t, h.exists("box.gcode"))
}

func TestEngine_FirstProfileInEmptyCategoryReplacesNoneArtifacts(t *testing.T) {
	h := newHarness(t, "nas:/all")
	h.profile(t, values.CategoryPrinter, "mk3")
	h.profile(t, values.CategoryPrintSetting, "draft")
	h.project(t, "box.3mf")
	h.start(t)
	require.True(t, h.engine.RegenerateAll())
	h.drain(t)
	require.True(t, h.exists("box_mk3-none-draft.gcode"))
	h.slicer.Reset()

	h.profile(t, values.CategoryFilament, "pla")
	require.True(t, h.engine.RegenerateForDirtyProfile(values.ProfileRef{Category: values.CategoryFilament, Name: "pla"}))
	h.drain(t)

	assert.Equal(t, []string{"box_mk3-pla-draft.gcode"}, h.slicer.Calls())
	assert.False(t, h.exists("box_mk3-none-draft.gcode"), "none-filament artifact is stale")
	assert.True(t, h.exists("box_mk3-pla-draft.gcode"))
	assert.True(t, h.exists("box.gcode"))
	assert.Equal(t, []string{"nas:/all/box_mk3-pla-draft.gcode"}, h.transfer.Sends())
}

func TestEngine_LastProfileRemovedRestoresNoneArtifacts(t *testing.T) {
	h := newHarness(t)
	h.profile(t, values.CategoryPrinter, "mk3")
	h.profile(t, values.CategoryFilament, "pla")
	h.profile(t, values.CategoryPrintSetting, "draft")
	h.project(t, "box.3mf")
	h.start(t)
	require.True(t, h.engine.RegenerateAll())
	h.drain(t)
	h.slicer.Reset()

	require.NoError(t, os.Remove(filepath.Join(h.profiles, "filament", "pla.ini")))
	require.True(t, h.engine.RegenerateForDirtyProfile(values.ProfileRef{Category: values.CategoryFilament, Name: "pla"}))
	h.drain(t)

	assert.Equal(t, []string{"box_mk3-none-draft.gcode"}, h.slicer.Calls())
	assert.False(t, h.exists("box_mk3-pla-draft.gcode"))
	assert.True(t, h.exists("box_mk3-none-draft.gcode"))
	assert.Len(t, h.store.Artifacts(), 2)
}

func TestEngine_SweepKeepsSiblingArtifacts(t *testing.T) {
	h, box := boxFixture(t)
	h.project(t, "box_lid.3mf")
	h.start(t)
	require.True(t, h.engine.RegenerateAll())
	h.drain(t)

	require.NoError(t, os.Remove(box.Path))
	require.True(t, h.engine.SweepProject(box))
	h.drain(t)

	assert.False(t, h.exists("box.gcode"))
	assert.False(t, h.exists("box_mk3-pla-draft.gcode"))
	assert.True(t, h.exists("box_lid.gcode"))
	assert.True(t, h.exists("box_lid_mk3-pla-draft.gcode"))

	results, err := h.engine.Repository().FindByKind(context.Background(), values.RequestSweepProject, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Len(t, results[0].Removed, 3)
}

func TestEngine_SliceFailureIsIsolated(t *testing.T) {
	h, box := boxFixture(t)
	h.slicer.fail = map[string]bool{"box_mk3-pla-draft.gcode": true}
	h.start(t)

	require.True(t, h.engine.RegenerateProject(box))
	require.True(t, h.engine.RegenerateAll())
	h.drain(t)

	results, err := h.engine.Repository().Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, results, 2, "chain continues after a failed slice")
	for _, r := range results {
		assert.Equal(t, []string{"box_mk3-pla-draft.gcode"}, r.Failed)
		assert.Equal(t, 2, r.Summary().Produced)
	}
}

func TestEngine_RegenerateProject_Distributes(t *testing.T) {
	h, box := boxFixture(t, "pi@mk3:/watched[mk3]", "nas:/all")
	h.start(t)

	require.True(t, h.engine.RegenerateProject(box))
	h.drain(t)

	assert.Equal(t, []string{
		"nas:/all/box.gcode",
		"nas:/all/box_mk3-pla-draft.gcode",
		"nas:/all/box_mk4-pla-draft.gcode",
		"pi@mk3:/watched/box.gcode",
		"pi@mk3:/watched/box_mk3-pla-draft.gcode",
	}, h.transfer.Sends())
	assert.Empty(t, h.transfer.Mirrors())
}

func TestEngine_RegenerateProject_MissingProjectIsSkipped(t *testing.T) {
	h, box := boxFixture(t)
	require.NoError(t, os.Remove(box.Path))
	h.start(t)

	require.True(t, h.engine.RegenerateProject(box))
	h.drain(t)

	assert.Empty(t, h.slicer.Calls())
}

func TestEngine_RegenerateIsIdempotent(t *testing.T) {
	h, box := boxFixture(t)
	h.start(t)

	require.True(t, h.engine.RegenerateProject(box))
	h.drain(t)
	first := h.store.Artifacts()

	require.True(t, h.engine.RegenerateProject(box))
	h.drain(t)

	assert.ElementsMatch(t, first, h.store.Artifacts())
}

func TestEngine_Close(t *testing.T) {
	h, _ := boxFixture(t)
	require.True(t, h.engine.RegenerateAll())

	h.engine.Close()
	assert.False(t, h.engine.RegenerateAll())

	err := h.engine.Run(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.True(t, h.exists("box.gcode"), "queued work runs before Run returns")
}

func TestEngine_DrainHonoursContext(t *testing.T) {
	h, _ := boxFixture(t)
	require.True(t, h.engine.RegenerateAll())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.engine.Drain(ctx), context.DeadlineExceeded, "nothing is running the queue")
}

type recordingMetrics struct {
	mu        sync.Mutex
	passes    map[values.RequestKind]int
	produced  int
	throttled int
	maxDepth  int
	transfers map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		passes:    make(map[values.RequestKind]int),
		transfers: make(map[string]int),
	}
}

func (m *recordingMetrics) PassCompleted(kind values.RequestKind, summary execution.Summary, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passes[kind]++
	m.produced += summary.Produced
}

func (m *recordingMetrics) RequestThrottled(values.RequestKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.throttled++
}

func (m *recordingMetrics) QueueDepth(depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxDepth = max(m.maxDepth, depth)
}

func (m *recordingMetrics) TransferCompleted(mode string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		mode += " failed"
	}
	m.transfers[mode]++
}

func TestEngine_ReportsMetrics(t *testing.T) {
	h, box := boxFixture(t, "nas:/all")
	recorder := newRecordingMetrics()
	WithMetrics(recorder)(h.engine)
	WithTransferMetrics(recorder)(h.engine.distributor)

	require.True(t, h.engine.RegenerateAll())
	require.True(t, h.engine.RegenerateAll())
	require.False(t, h.engine.RegenerateAll())
	require.True(t, h.engine.RegenerateProject(box))

	h.start(t)
	h.drain(t)

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.Equal(t, 2, recorder.passes[values.RequestRegenerateAll])
	assert.Equal(t, 1, recorder.passes[values.RequestRegenerateProject])
	assert.Equal(t, 9, recorder.produced)
	assert.Equal(t, 1, recorder.throttled)
	assert.Equal(t, 3, recorder.maxDepth)
	assert.Equal(t, 1, recorder.transfers[ports.TransferMirror])
	assert.Equal(t, 3, recorder.transfers[ports.TransferSend])
}
