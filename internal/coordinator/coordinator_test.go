package coordinator

import (
	"context"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vpetrenko/bp-journal/internal/client"
	"github.com/vpetrenko/bp-journal/internal/config"
	"github.com/vpetrenko/bp-journal/internal/coordinator/mocks"
	"github.com/vpetrenko/bp-journal/internal/errs"
	"github.com/vpetrenko/bp-journal/internal/testutils"
	"github.com/vpetrenko/bp-journal/internal/utils"
	"github.com/vpetrenko/bp-journal/model"
)

func reading(id int64, sys, dia, pulse int, class string) model.Reading {
	return model.Reading{
		ID:             id,
		Timestamp:      model.NewTimestamp(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)),
		Systolic:       sys,
		Diastolic:      dia,
		Pulse:          pulse,
		Classification: class,
	}
}

func validInput() model.ReadingInput {
	return model.ReadingInput{
		Systolic1: 120, Diastolic1: 80, Pulse1: 70,
		Systolic2: 125, Diastolic2: 82, Pulse2: 72,
		Systolic3: 118, Diastolic3: 78, Pulse3: 68,
	}
}

func sampleStats() *model.Stats {
	avg := reading(0, 122, 81, 71, "Normal")
	return &model.Stats{
		LastReading:  utils.ReadingPtr(avg),
		Avg7Days:     utils.ReadingPtr(avg),
		Count7Days:   3,
		AvgAllTime:   utils.ReadingPtr(avg),
		CountAllTime: 9,
	}
}

func TestLoadAll_OK(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	api := mocks.NewMockAPI(ctrl)

	readings := []model.Reading{reading(1, 121, 80, 70, "Normal"), reading(2, 142, 92, 75, "Hypertension Stage 2")}
	api.EXPECT().FetchReadings(gomock.Any()).Return(readings, nil)
	api.EXPECT().FetchStats(gomock.Any()).Return(sampleStats(), nil)

	coord := New(api, nil)
	require.NoError(t, coord.LoadAll(context.Background()))

	snap := coord.Snapshot()
	require.Len(t, snap.Readings, 2)
	require.NotNil(t, snap.Stats)
	require.False(t, snap.Loading())
	require.Empty(t, snap.LastError)
}

func TestLoadAll_StatsFails_KeepsPreviousState(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	api := mocks.NewMockAPI(ctrl)

	cached := []model.Reading{
		reading(1, 121, 80, 70, "Normal"),
		reading(2, 131, 84, 72, "Elevated"),
		reading(3, 142, 92, 75, "Hypertension Stage 2"),
	}
	api.EXPECT().FetchReadings(gomock.Any()).Return(cached, nil)
	api.EXPECT().FetchStats(gomock.Any()).Return(sampleStats(), nil)

	coord := New(api, nil)
	require.NoError(t, coord.LoadAll(context.Background()))

	// Second load: readings succeed with 5 items, stats fail. Both halves
	// are discarded and the 3 cached readings stay visible.
	fresh := append(append([]model.Reading{}, cached...),
		reading(4, 118, 78, 68, "Normal"), reading(5, 125, 82, 71, "Normal"))
	api.EXPECT().FetchReadings(gomock.Any()).Return(fresh, nil)
	api.EXPECT().FetchStats(gomock.Any()).Return(nil, &errs.ServerError{Status: 500, Message: "stats unavailable"})

	err := coord.LoadAll(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "stats")

	snap := coord.Snapshot()
	require.Len(t, snap.Readings, 3)
	require.NotNil(t, snap.Stats)
	require.Contains(t, snap.LastError, "stats unavailable")
	require.False(t, snap.Loading())
}

func TestLoadAll_ReadingsFail_StatsDiscarded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	api := mocks.NewMockAPI(ctrl)

	api.EXPECT().FetchReadings(gomock.Any()).Return(nil, &errs.ServerError{Status: 502, Message: "bad gateway"})
	api.EXPECT().FetchStats(gomock.Any()).Return(sampleStats(), nil)

	coord := New(api, nil)
	err := coord.LoadAll(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "readings")

	snap := coord.Snapshot()
	require.Empty(t, snap.Readings)
	require.Nil(t, snap.Stats)
	require.NotEmpty(t, snap.LastError)
}

func TestLoadAll_BothFail_CombinedError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	api := mocks.NewMockAPI(ctrl)

	api.EXPECT().FetchReadings(gomock.Any()).Return(nil, &errs.ServerError{Status: 500, Message: "a"})
	api.EXPECT().FetchStats(gomock.Any()).Return(nil, &errs.ServerError{Status: 500, Message: "b"})

	coord := New(api, nil)
	err := coord.LoadAll(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "readings")
	require.Contains(t, err.Error(), "stats")
}

func TestLoadAll_FailureIsLogged(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	api := mocks.NewMockAPI(ctrl)

	api.EXPECT().FetchReadings(gomock.Any()).Return(nil, &errs.ServerError{Status: 500, Message: "boom"})
	api.EXPECT().FetchStats(gomock.Any()).Return(sampleStats(), nil)

	core, obs := observer.New(zap.ErrorLevel)
	coord := New(api, zap.New(core).Sugar())
	require.Error(t, coord.LoadAll(context.Background()))
	require.NotEmpty(t, obs.All())
}

func TestSubmit_Success_Refetches(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	api := mocks.NewMockAPI(ctrl)

	in := validInput()
	api.EXPECT().SubmitReading(gomock.Any(), in).Return(nil)
	api.EXPECT().FetchReadings(gomock.Any()).Return([]model.Reading{reading(1, 121, 80, 70, "Normal")}, nil)
	api.EXPECT().FetchStats(gomock.Any()).Return(sampleStats(), nil)

	coord := New(api, nil)
	require.NoError(t, coord.Submit(context.Background(), in))

	snap := coord.Snapshot()
	require.Len(t, snap.Readings, 1)
	require.NotNil(t, snap.Stats)
	require.False(t, snap.Submitting)
}

func TestSubmit_Failure_LeavesStateUntouched(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	api := mocks.NewMockAPI(ctrl)

	api.EXPECT().FetchReadings(gomock.Any()).Return([]model.Reading{reading(1, 121, 80, 70, "Normal")}, nil)
	api.EXPECT().FetchStats(gomock.Any()).Return(sampleStats(), nil)

	coord := New(api, nil)
	require.NoError(t, coord.LoadAll(context.Background()))

	api.EXPECT().SubmitReading(gomock.Any(), gomock.Any()).Return(&errs.ServerError{Status: 422, Message: "rejected"})

	err := coord.Submit(context.Background(), validInput())
	require.Error(t, err)

	snap := coord.Snapshot()
	require.Len(t, snap.Readings, 1) // no refetch happened
	require.False(t, snap.Submitting)
	require.Contains(t, snap.LastError, "rejected")
}

func TestSubmit_InvalidInput_NoAPICall(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	api := mocks.NewMockAPI(ctrl) // no expectations: any call fails the test

	coord := New(api, nil)
	in := validInput()
	in.Pulse3 = 0
	require.Error(t, coord.Submit(context.Background(), in))
}

func seedReadings(t *testing.T, coord *Coordinator, api *mocks.MockAPI, readings []model.Reading) {
	t.Helper()
	api.EXPECT().FetchReadings(gomock.Any()).Return(readings, nil)
	api.EXPECT().FetchStats(gomock.Any()).Return(sampleStats(), nil)
	require.NoError(t, coord.LoadAll(context.Background()))
}

func fiveReadings() []model.Reading {
	return []model.Reading{
		reading(40, 121, 80, 70, "Normal"),
		reading(41, 131, 84, 72, "Elevated"),
		reading(42, 142, 92, 75, "Hypertension Stage 2"),
		reading(43, 118, 78, 68, "Normal"),
		reading(44, 125, 82, 71, "Normal"),
	}
}

func TestDelete_RemovesImmediately(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	api := mocks.NewMockAPI(ctrl)

	coord := New(api, nil)
	seedReadings(t, coord, api, fiveReadings())

	// The list must already be down to 4 items while the request is in
	// flight, regardless of its eventual outcome.
	api.EXPECT().DeleteReading(gomock.Any(), int64(42)).DoAndReturn(func(ctx context.Context, id int64) error {
		require.Len(t, coord.Snapshot().Readings, 4)
		return nil
	})

	require.NoError(t, coord.Delete(context.Background(), 42))

	snap := coord.Snapshot()
	require.Len(t, snap.Readings, 4)
	for _, r := range snap.Readings {
		require.NotEqual(t, int64(42), r.ID)
	}
}

func TestDelete_Failure_RestoresAtOriginalPosition(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	api := mocks.NewMockAPI(ctrl)

	coord := New(api, nil)
	seedReadings(t, coord, api, fiveReadings())

	api.EXPECT().DeleteReading(gomock.Any(), int64(42)).DoAndReturn(func(ctx context.Context, id int64) error {
		require.Len(t, coord.Snapshot().Readings, 4)
		return &errs.ServerError{Status: 500, Message: "delete failed"}
	})

	err := coord.Delete(context.Background(), 42)
	require.Error(t, err)

	snap := coord.Snapshot()
	require.Len(t, snap.Readings, 5)
	require.Equal(t, int64(42), snap.Readings[2].ID)
	require.Contains(t, snap.LastError, "delete failed")
}

func TestDelete_UnknownID_StillIssuesRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	api := mocks.NewMockAPI(ctrl)

	coord := New(api, nil)
	seedReadings(t, coord, api, fiveReadings())

	api.EXPECT().DeleteReading(gomock.Any(), int64(777)).Return(&errs.ServerError{Status: 404, Message: "reading not found"})

	require.Error(t, coord.Delete(context.Background(), 777))
	require.Len(t, coord.Snapshot().Readings, 5)
}

func TestSubscribe_NotifiedOnChanges(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	api := mocks.NewMockAPI(ctrl)

	api.EXPECT().FetchReadings(gomock.Any()).Return(fiveReadings(), nil)
	api.EXPECT().FetchStats(gomock.Any()).Return(sampleStats(), nil)

	coord := New(api, nil)

	var calls int64
	var sawLoading int64
	coord.Subscribe(func(s Snapshot) {
		atomic.AddInt64(&calls, 1)
		if s.Loading() {
			atomic.AddInt64(&sawLoading, 1)
		}
	})

	require.NoError(t, coord.LoadAll(context.Background()))
	require.GreaterOrEqual(t, atomic.LoadInt64(&calls), int64(2))
	require.GreaterOrEqual(t, atomic.LoadInt64(&sawLoading), int64(1))
	require.Len(t, coord.Snapshot().Readings, 5)
}

func TestCoordinator_AgainstBackend(t *testing.T) {
	backend := testutils.NewBackend(fiveReadings(), sampleStats())
	ts := httptest.NewServer(backend.Router())
	defer ts.Close()

	clnt, err := client.NewClient(&config.ClientConfig{ServerAddr: ts.URL, ClientTimeout: 1})
	require.NoError(t, err)
	coord := New(clnt, nil)
	ctx := context.Background()

	require.NoError(t, coord.LoadAll(ctx))
	require.Len(t, coord.Snapshot().Readings, 5)

	require.NoError(t, coord.Submit(ctx, validInput()))
	require.Len(t, backend.Submitted, 1)
	require.Len(t, coord.Snapshot().Readings, 6) // refetched after submit

	require.NoError(t, coord.Delete(ctx, 42))
	require.Equal(t, []int64{42}, backend.Deleted)
	require.Len(t, coord.Snapshot().Readings, 5)
}

func TestCoordinator_BackendStatsFailure(t *testing.T) {
	backend := testutils.NewBackend(fiveReadings(), sampleStats())
	backend.FailStats = true
	ts := httptest.NewServer(backend.Router())
	defer ts.Close()

	clnt, err := client.NewClient(&config.ClientConfig{ServerAddr: ts.URL, ClientTimeout: 1})
	require.NoError(t, err)
	coord := New(clnt, nil)

	err = coord.LoadAll(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "stats unavailable")
	require.Empty(t, coord.Snapshot().Readings)
}
