package registry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaspark/linguaspark-go/internal/domain"
	"github.com/linguaspark/linguaspark-go/internal/engine/enginetest"
	"github.com/linguaspark/linguaspark-go/internal/logging"
)

var (
	enFr = domain.LanguagePair{From: "en", To: "fr"}
	frEn = domain.LanguagePair{From: "fr", To: "en"}
)

func newRegistry(t *testing.T, concurrentSafe bool) (*Registry, *enginetest.Engine) {
	t.Helper()
	eng := enginetest.New(concurrentSafe)
	reg := New(eng, logging.Discard())
	t.Cleanup(func() { _ = reg.Close() })
	return reg, eng
}

func translate(t *testing.T, reg *Registry, pair domain.LanguagePair, input string) (string, error) {
	t.Helper()
	handle, release, err := reg.Acquire(pair)
	if err != nil {
		return "", err
	}
	defer release()
	return handle.Translate(context.Background(), input)
}

func TestLoadAndLookup(t *testing.T) {
	reg, eng := newRegistry(t, false)

	info, err := reg.Load(context.Background(), enFr, enginetest.Config(t, "enfr"))
	require.NoError(t, err)
	require.Equal(t, enFr, info.Pair)
	require.NotEmpty(t, info.ID)
	require.NotEmpty(t, info.Fingerprint)
	require.Len(t, info.ModelPaths, 4)

	require.True(t, reg.IsSupported("en", "fr"))
	require.True(t, reg.IsSupported("EN", "Fr"))
	require.False(t, reg.IsSupported("fr", "en"))
	require.False(t, reg.IsSupported("", "fr"))
	require.Equal(t, 1, eng.Live())

	out, err := translate(t, reg, enFr, "hello")
	require.NoError(t, err)
	require.Equal(t, "fr:hello", out)
}

func TestLoadTwiceReplacesWithoutLeak(t *testing.T) {
	reg, eng := newRegistry(t, false)
	config := enginetest.Config(t, "enfr")

	first, err := reg.Load(context.Background(), enFr, config)
	require.NoError(t, err)
	second, err := reg.Load(context.Background(), enFr, config)
	require.NoError(t, err)

	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, first.Fingerprint, second.Fingerprint)
	require.Equal(t, 1, reg.Len())
	require.Equal(t, 2, eng.Loads())
	require.Equal(t, 1, eng.Live())
	require.True(t, reg.IsSupported("en", "fr"))

	out, err := translate(t, reg, enFr, "again")
	require.NoError(t, err)
	require.Equal(t, "fr:again", out)
}

func TestFailedLoadLeavesStateUntouched(t *testing.T) {
	reg, eng := newRegistry(t, false)

	before, err := reg.Load(context.Background(), enFr, enginetest.Config(t, "enfr"))
	require.NoError(t, err)
	_, err = reg.Load(context.Background(), frEn, enginetest.Config(t, "fren"))
	require.NoError(t, err)

	_, err = reg.Load(context.Background(), enFr, "models: [")
	require.True(t, domain.IsCode(err, domain.ErrCodeConfig))

	_, err = reg.Load(context.Background(), enFr, enginetest.MissingArtifactConfig(t))
	require.True(t, domain.IsCode(err, domain.ErrCodeConfig))

	eng.FailLoad(enFr, errors.New("weights corrupt"))
	_, err = reg.Load(context.Background(), enFr, enginetest.Config(t, "enfr-v2"))
	require.True(t, domain.IsCode(err, domain.ErrCodeConfig))
	require.Contains(t, err.Error(), "weights corrupt")

	after, ok := reg.Lookup(enFr)
	require.True(t, ok)
	require.Equal(t, before.ID, after.ID)
	require.True(t, reg.IsSupported("fr", "en"))
	require.Equal(t, 2, eng.Live())

	out, err := translate(t, reg, enFr, "still here")
	require.NoError(t, err)
	require.Equal(t, "fr:still here", out)
}

func TestAcquireUnsupported(t *testing.T) {
	reg, _ := newRegistry(t, false)

	_, _, err := reg.Acquire(enFr)
	require.True(t, domain.IsCode(err, domain.ErrCodeUnsupportedPair))

	_, ok := reg.Lookup(enFr)
	require.False(t, ok)
}

func TestReplaceWaitsForInFlight(t *testing.T) {
	reg, eng := newRegistry(t, false)
	_, err := reg.Load(context.Background(), enFr, enginetest.Config(t, "v1"))
	require.NoError(t, err)

	release := eng.Hold()
	defer release()

	done := make(chan string, 1)
	go func() {
		out, _ := translate(t, reg, enFr, "slow")
		done <- out
	}()
	require.Eventually(t, func() bool { return eng.InFlight() == 1 }, time.Second, time.Millisecond)

	v2 := enginetest.Config(t, "v2")
	loaded := make(chan struct{})
	go func() {
		_, err := reg.Load(context.Background(), enFr, v2)
		assert.NoError(t, err)
		close(loaded)
	}()

	// The swap happens immediately; closing the old model waits for "slow".
	require.Eventually(t, func() bool { return eng.Loads() == 2 }, time.Second, time.Millisecond)
	require.Equal(t, 0, eng.Closes())

	release()
	require.Equal(t, "fr:slow", <-done)
	<-loaded
	require.Equal(t, 1, eng.Closes())
	require.Equal(t, 1, eng.Live())
	require.Zero(t, eng.StaleUses())
}

func TestConcurrentLoadsSamePair(t *testing.T) {
	reg, eng := newRegistry(t, false)
	config := enginetest.Config(t, "enfr")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Load(context.Background(), enFr, config)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 8, eng.Loads())
	require.Equal(t, 1, eng.Live())
	require.Equal(t, 1, reg.Len())
	require.Zero(t, reg.Loading())
}

func TestSerializedPerHandle(t *testing.T) {
	reg, eng := newRegistry(t, false)
	_, err := reg.Load(context.Background(), enFr, enginetest.Config(t, "enfr"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := translate(t, reg, enFr, "x")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, 1, eng.Peak(enFr))
}

func TestUnloadPairsModelsClose(t *testing.T) {
	reg, eng := newRegistry(t, true)
	_, err := reg.Load(context.Background(), frEn, enginetest.Config(t, "fren"))
	require.NoError(t, err)
	_, err = reg.Load(context.Background(), enFr, enginetest.Config(t, "enfr"))
	require.NoError(t, err)

	require.Equal(t, []domain.LanguagePair{enFr, frEn}, reg.Pairs())
	models := reg.Models()
	require.Len(t, models, 2)
	require.Equal(t, enFr, models[0].Pair)

	require.NoError(t, reg.Unload(frEn))
	require.True(t, domain.IsCode(reg.Unload(frEn), domain.ErrCodeUnsupportedPair))
	require.Equal(t, 1, eng.Live())

	require.NoError(t, reg.Close())
	require.Equal(t, 0, eng.Live())
	require.True(t, domain.IsCode(reg.Close(), domain.ErrCodeLifecycle))

	_, _, err = reg.Acquire(enFr)
	require.True(t, domain.IsCode(err, domain.ErrCodeLifecycle))
	_, err = reg.Load(context.Background(), enFr, enginetest.Config(t, "enfr"))
	require.True(t, domain.IsCode(err, domain.ErrCodeLifecycle))
}

func TestEnginePanicOnLoad(t *testing.T) {
	reg, _ := newRegistry(t, false)
	eng := &panickyEngine{Engine: enginetest.New(false)}
	reg.engine = eng

	_, err := reg.Load(context.Background(), enFr, enginetest.Config(t, "enfr"))
	require.True(t, domain.IsCode(err, domain.ErrCodeEngine))
	require.False(t, reg.IsSupported("en", "fr"))
}

type panickyEngine struct {
	*enginetest.Engine
}

func (p *panickyEngine) LoadModel(domain.LanguagePair, string) (domain.Model, error) {
	panic("native loader crashed")
}
