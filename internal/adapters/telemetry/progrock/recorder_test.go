package progrock_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/adapters/telemetry/progrock"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

var _ ports.Telemetry = (*progrock.Recorder)(nil)

func TestRecorder_Lifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	recorder := progrock.New(log)
	ctx := context.Background()

	gomock.InOrder(
		log.EXPECT().Debug("x86_64-linux plan: planning"),
		log.EXPECT().Debug("x86_64-linux plan: /kiln/store/abc-zola-0.19.2"),
		log.EXPECT().Debug("x86_64-linux plan: cached"),
	)

	_, plan := recorder.Record(ctx, "x86_64-linux plan")
	_, err := plan.Stdout().Write([]byte("planning\n"))
	assert.NoError(t, err)
	plan.Log(domain.LogLevelDebug, "/kiln/store/abc-zola-0.19.2")
	plan.Cached()
	plan.Complete(nil)

	_, wrap := recorder.Record(ctx, "x86_64-linux wrap")
	wrap.Complete(errors.New("no output"))

	assert.NoError(t, recorder.Close())
}

func TestRecorder_ForwardsWarnings(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	recorder := progrock.New(log)

	log.EXPECT().Warn("resolve tools: typos@1.22.0: package not found in NixHub")
	log.EXPECT().Warn("x86_64-linux plan: ignoring store record: store record is corrupt")
	log.EXPECT().Debug("x86_64-linux resolve: rustc 1.78.0")

	_, tools := recorder.Record(context.Background(), "resolve tools")
	tools.Log(domain.LogLevelWarn, "typos@1.22.0: package not found in NixHub")
	tools.Complete(nil)

	_, plan := recorder.Record(context.Background(), "x86_64-linux plan")
	plan.Log(domain.LogLevelWarn, "ignoring store record: store record is corrupt")

	_, resolve := recorder.Record(context.Background(), "x86_64-linux resolve")
	resolve.Log(domain.LogLevelInfo, "rustc 1.78.0")

	assert.NoError(t, recorder.Close())
}

func TestRecorder_PartialLines(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	recorder := progrock.New(log)

	gomock.InOrder(
		log.EXPECT().Debug("x86_64-linux plan: compiling serde"),
		log.EXPECT().Debug("x86_64-linux plan: linking"),
	)

	_, plan := recorder.Record(context.Background(), "x86_64-linux plan")
	out := plan.Stdout()
	_, _ = out.Write([]byte("compiling "))
	_, _ = out.Write([]byte("serde\n\nlink"))
	_, _ = out.Write([]byte("ing"))

	assert.NoError(t, recorder.Close())
}

func TestRecorder_ConcurrentVertices(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	recorder := progrock.New(log)

	log.EXPECT().Warn(gomock.Any()).Times(8)

	var wg sync.WaitGroup
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		wg.Go(func() {
			_, v := recorder.Record(context.Background(), name)
			v.Log(domain.LogLevelError, "failed")
			v.Complete(nil)
		})
	}
	wg.Wait()

	assert.NoError(t, recorder.Close())
}
