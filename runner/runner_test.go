package runner

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/donkeykey/AIPhotoFrame/artifacts"
	"github.com/donkeykey/AIPhotoFrame/frame"
	"github.com/donkeykey/AIPhotoFrame/internal/ctxkeys"
	tu "github.com/donkeykey/AIPhotoFrame/testutil"
	"github.com/donkeykey/AIPhotoFrame/testutil/mocks"
	"github.com/donkeykey/AIPhotoFrame/types"
)

// =============================================================================
// 🧪 测试替身
// =============================================================================

type generateFunc func(call int, prompt string) (string, error)

type fakeGenerator struct {
	mu      sync.Mutex
	fn      generateFunc
	prompts []string
	display []bool
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string, displayImmediately bool) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.display = append(g.display, displayImmediately)
	call := len(g.prompts)
	g.mu.Unlock()
	return g.fn(call, prompt)
}

type fakeRetention struct {
	cleanups int
	err      error
	panicMsg string
}

func (f *fakeRetention) Cleanup(ctx context.Context) (int, error) {
	f.cleanups++
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return 0, f.err
}

func (f *fakeRetention) List(ctx context.Context) ([]artifacts.Artifact, error) {
	return nil, nil
}

type recordingSleeper struct {
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(d time.Duration) {
	s.delays = append(s.delays, d)
}

func testConfig(prompts ...string) Config {
	return Config{
		Enabled:        true,
		Prompts:        prompts,
		FailureBackoff: 10 * time.Second,
		ErrorBackoff:   30 * time.Second,
		ProgressEvery:  2,
	}
}

func newTestRunner(t *testing.T, gen Generator, store Retention, cfg Config, sleeper *recordingSleeper) *Runner {
	t.Helper()
	return New(gen, store, cfg,
		WithSleeper(sleeper.Sleep),
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithLogger(zaptest.NewLogger(t)),
	)
}

// =============================================================================
// 🔁 测试用例
// =============================================================================

func TestRunner_DisabledStaysIdle(t *testing.T) {
	cfg := testConfig("a")
	cfg.Enabled = false
	gen := &fakeGenerator{fn: func(int, string) (string, error) { return "x", nil }}
	r := newTestRunner(t, gen, &fakeRetention{}, cfg, &recordingSleeper{})

	err := r.Run(tu.TestContext(t))
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrContinuousDisabled))
	assert.Equal(t, StateIdle, r.State())
	assert.Empty(t, gen.prompts)
}

func TestRunner_EmptyPrompts(t *testing.T) {
	gen := &fakeGenerator{fn: func(int, string) (string, error) { return "x", nil }}
	r := newTestRunner(t, gen, &fakeRetention{}, testConfig(), &recordingSleeper{})

	err := r.Run(tu.TestContext(t))
	assert.True(t, types.IsCode(err, types.ErrConfigInvalid))
	assert.Equal(t, StateIdle, r.State())
}

func TestRunner_CleanupPanicDoesNotStopLoop(t *testing.T) {
	store := &fakeRetention{panicMsg: "directory vanished"}
	var r *Runner
	gen := &fakeGenerator{fn: func(call int, _ string) (string, error) {
		if call == 3 {
			r.Stop()
		}
		return "/tmp/out.png", nil
	}}
	r = newTestRunner(t, gen, store, testConfig("a"), &recordingSleeper{})

	require.NotPanics(t, func() {
		require.NoError(t, r.Run(tu.TestContext(t)))
	})

	assert.Len(t, gen.prompts, 3)
	assert.Equal(t, 3, store.cleanups)
	assert.Equal(t, StateStopped, r.State())
	snap := r.Snapshot()
	assert.Equal(t, 3, snap.Successes)
}

func TestRunner_SynthesisFailuresBackOff(t *testing.T) {
	sleeper := &recordingSleeper{}
	store := &fakeRetention{}
	var r *Runner
	gen := &fakeGenerator{fn: func(call int, _ string) (string, error) {
		if call == 3 {
			r.Stop()
		}
		return "", types.NewSynthesisError("mock", errors.New("model crashed"))
	}}
	r = newTestRunner(t, gen, store, testConfig("a", "b"), sleeper)

	require.NoError(t, r.Run(tu.TestContext(t)))

	// 停止请求发生在第 3 个周期内，该周期的退避仍会完成
	assert.Equal(t, []time.Duration{10 * time.Second, 10 * time.Second, 10 * time.Second}, sleeper.delays)
	require.Len(t, gen.prompts, 3)
	for _, p := range gen.prompts {
		assert.Contains(t, []string{"a", "b"}, p)
	}
	for _, d := range gen.display {
		assert.True(t, d)
	}
	assert.Equal(t, 3, store.cleanups)

	snap := r.Snapshot()
	assert.Equal(t, StateStopped, snap.State)
	assert.Equal(t, 3, snap.Cycles)
	assert.Equal(t, 3, snap.Failures)
	require.NotNil(t, snap.LastCycle)
	assert.Equal(t, OutcomeFailure, snap.LastCycle.Outcome)
	assert.Equal(t, 3, snap.LastCycle.Index)
}

func TestRunner_BackoffByOutcome(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome Outcome
		delay   time.Duration
	}{
		{name: "store failure", err: types.NewError(types.ErrStoreWriteFailed, "disk full"), outcome: OutcomeFailure, delay: 10 * time.Second},
		{name: "unexpected error", err: errors.New("boom"), outcome: OutcomeError, delay: 30 * time.Second},
		{name: "render error escaping", err: types.NewRenderError("inky", errors.New("spi")), outcome: OutcomeError, delay: 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sleeper := &recordingSleeper{}
			var r *Runner
			gen := &fakeGenerator{fn: func(int, string) (string, error) {
				r.Stop()
				return "", tt.err
			}}
			r = newTestRunner(t, gen, &fakeRetention{}, testConfig("a"), sleeper)

			require.NoError(t, r.Run(tu.TestContext(t)))
			assert.Equal(t, []time.Duration{tt.delay}, sleeper.delays)
			assert.Equal(t, tt.outcome, r.Snapshot().LastCycle.Outcome)
		})
	}
}

func TestRunner_PanicIsAbsorbed(t *testing.T) {
	sleeper := &recordingSleeper{}
	var r *Runner
	gen := &fakeGenerator{fn: func(call int, _ string) (string, error) {
		if call == 1 {
			panic("unexpected nil pointer")
		}
		r.Stop()
		return "ok.png", nil
	}}
	r = newTestRunner(t, gen, &fakeRetention{}, testConfig("a"), sleeper)

	require.NoError(t, r.Run(tu.TestContext(t)))

	assert.Equal(t, []time.Duration{30 * time.Second}, sleeper.delays)
	snap := r.Snapshot()
	assert.Equal(t, 2, snap.Cycles)
	assert.Equal(t, 1, snap.Errors)
	assert.Equal(t, 1, snap.Successes)
	assert.Equal(t, "ok.png", snap.LastCycle.Path)
}

func TestRunner_SuccessHasNoDelay(t *testing.T) {
	sleeper := &recordingSleeper{}
	var r *Runner
	gen := &fakeGenerator{fn: func(call int, _ string) (string, error) {
		if call == 5 {
			r.Stop()
		}
		return "ok.png", nil
	}}
	r = newTestRunner(t, gen, &fakeRetention{}, testConfig("a", "b", "c"), sleeper)

	require.NoError(t, r.Run(tu.TestContext(t)))
	assert.Empty(t, sleeper.delays)
	assert.Equal(t, 5, r.Snapshot().Successes)
}

func TestRunner_CleanupErrorsAreLoggedOnly(t *testing.T) {
	var r *Runner
	store := &fakeRetention{err: types.NewError(types.ErrCleanupFailed, "permission denied")}
	gen := &fakeGenerator{fn: func(call int, _ string) (string, error) {
		if call == 2 {
			r.Stop()
		}
		return "ok.png", nil
	}}
	r = newTestRunner(t, gen, store, testConfig("a"), &recordingSleeper{})

	require.NoError(t, r.Run(tu.TestContext(t)))
	assert.Equal(t, 2, store.cleanups)
	assert.Equal(t, 2, r.Snapshot().Successes)
}

func TestRunner_StopStateTransitions(t *testing.T) {
	var r *Runner
	var during []State
	gen := &fakeGenerator{fn: func(int, string) (string, error) {
		during = append(during, r.State())
		r.Stop()
		during = append(during, r.State())
		return "ok.png", nil
	}}
	r = newTestRunner(t, gen, &fakeRetention{}, testConfig("a"), &recordingSleeper{})

	assert.Equal(t, StateIdle, r.State())
	require.NoError(t, r.Run(tu.TestContext(t)))

	assert.Equal(t, []State{StateRunning, StateStopping}, during)
	assert.Equal(t, StateStopped, r.State())
}

func TestRunner_RunTwiceFails(t *testing.T) {
	var r *Runner
	gen := &fakeGenerator{fn: func(int, string) (string, error) {
		r.Stop()
		return "ok.png", nil
	}}
	r = newTestRunner(t, gen, &fakeRetention{}, testConfig("a"), &recordingSleeper{})

	require.NoError(t, r.Run(tu.TestContext(t)))
	assert.Error(t, r.Run(tu.TestContext(t)))
	assert.Len(t, gen.prompts, 1)
}

func TestRunner_StopBeforeRun(t *testing.T) {
	gen := &fakeGenerator{fn: func(int, string) (string, error) { return "ok.png", nil }}
	r := newTestRunner(t, gen, &fakeRetention{}, testConfig("a"), &recordingSleeper{})

	r.Stop()
	require.NoError(t, r.Run(tu.TestContext(t)))
	assert.Empty(t, gen.prompts)
	assert.Equal(t, StateStopped, r.State())
}

func TestRunner_ContextCancelEndsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sleeper := &recordingSleeper{}
	gen := &fakeGenerator{fn: func(call int, _ string) (string, error) {
		if call == 2 {
			cancel()
			return "", types.NewSynthesisError("mock", context.Canceled)
		}
		return "ok.png", nil
	}}
	r := newTestRunner(t, gen, &fakeRetention{}, testConfig("a"), sleeper)

	require.NoError(t, r.Run(ctx))
	assert.Len(t, gen.prompts, 2)
	assert.Empty(t, sleeper.delays)
	assert.Equal(t, StateStopped, r.State())
}

func TestRunner_RetentionWithRealStore(t *testing.T) {
	store, err := artifacts.NewStore(t.TempDir(), 2)
	require.NoError(t, err)

	target := mocks.NewMockTarget()
	ctrl := frame.NewController(mocks.NewMockSynthesizer(), store, target,
		frame.WithResolution(32, 20),
		frame.WithLogger(zaptest.NewLogger(t)))

	var r *Runner
	gen := &fakeGenerator{fn: func(call int, prompt string) (string, error) {
		if call == 5 {
			r.Stop()
		}
		return ctrl.Generate(context.Background(), prompt, true)
	}}
	r = newTestRunner(t, gen, store, testConfig("lake", "city"), &recordingSleeper{})

	require.NoError(t, r.Run(tu.TestContext(t)))

	assert.Equal(t, 5, target.CallCount())
	assert.LessOrEqual(t, tu.CountFiles(t, store.Dir(), artifacts.Pattern), 2)
	assert.Equal(t, 5, r.Snapshot().Successes)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StateIdle, StateRunning))
	assert.True(t, CanTransition(StateRunning, StateStopping))
	assert.True(t, CanTransition(StateStopping, StateStopped))
	assert.False(t, CanTransition(StateStopped, StateRunning))
	assert.False(t, CanTransition(StateIdle, StateStopped))
}

type ctxCapturingGenerator struct {
	runner *Runner
	runIDs []string
	cycles []int
}

func (g *ctxCapturingGenerator) Generate(ctx context.Context, prompt string, _ bool) (string, error) {
	id, _ := ctxkeys.RunID(ctx)
	c, _ := ctxkeys.Cycle(ctx)
	g.runIDs = append(g.runIDs, id)
	g.cycles = append(g.cycles, c)
	if len(g.cycles) == 2 {
		g.runner.Stop()
	}
	return "ok.png", nil
}

func TestRunner_PropagatesRunIdentity(t *testing.T) {
	gen := &ctxCapturingGenerator{}
	r := newTestRunner(t, gen, &fakeRetention{}, testConfig("a"), &recordingSleeper{})
	gen.runner = r

	require.NoError(t, r.Run(tu.TestContext(t)))

	runID := r.Snapshot().RunID
	assert.NotEmpty(t, runID)
	assert.Equal(t, []string{runID, runID}, gen.runIDs)
	assert.Equal(t, []int{1, 2}, gen.cycles)
}
