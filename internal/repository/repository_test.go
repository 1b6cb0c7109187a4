package repository

import (
	"context"
	"flag"
	"os"
	"testing"

	"github.com/deppfellow/perf-dashboard/internal/database"
	"github.com/deppfellow/perf-dashboard/internal/model"
	"github.com/deppfellow/perf-dashboard/internal/server"
	"github.com/deppfellow/perf-dashboard/internal/sqlerr"
	pkgtesting "github.com/deppfellow/perf-dashboard/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var (
	testCtx    context.Context
	testServer *server.Server
	testRepos  *Repositories
)

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	flag.Parse()
	testCtx = context.Background()

	// Short runs only exercise the pure SQL builders.
	if testing.Short() {
		return m.Run()
	}

	pg, err := pkgtesting.NewPGContainer(testCtx, pkgtesting.DefaultPGConfig)
	if err != nil {
		panic(err)
	}
	defer testcontainers.TerminateContainer(pg.Container)

	logger := zerolog.Nop()
	db, err := database.Open(pg.ConnString, &logger)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	testServer = &server.Server{DB: db, Logger: &logger}
	testRepos = NewRepositories(testServer)

	return m.Run()
}

func requireDB(t *testing.T) {
	t.Helper()
	if testServer == nil {
		t.Skip("skipping database test in short mode")
	}
	truncateTables(t)
	t.Cleanup(func() { truncateTables(t) })
}

func truncateTables(t *testing.T) {
	t.Helper()
	_, err := testServer.DB.Pool.Exec(testCtx, "TRUNCATE TABLE trial, survey")
	require.NoError(t, err)
}

func insertTrial(t *testing.T, ts, size, period int64) {
	t.Helper()
	require.NoError(t, testRepos.Trial.UpsertTrial(testCtx, model.Trial{TS: ts, Size: &size, Period: &period}))
}

func insertActiveTrial(t *testing.T, ageSeconds int64) int64 {
	t.Helper()
	var ts int64
	err := testServer.DB.Pool.QueryRow(testCtx,
		"INSERT INTO trial (ts) VALUES ("+nowEpoch+" - $1) RETURNING ts", ageSeconds).Scan(&ts)
	require.NoError(t, err)
	return ts
}

func TestListTrials_NoFilterNewestFirst(t *testing.T) {
	requireDB(t)

	insertTrial(t, 100, 1, 1)
	insertTrial(t, 300, 3, 3)
	insertTrial(t, 200, 2, 2)

	trials, err := testRepos.Trial.ListTrials(testCtx, model.TrialFilter{})
	require.NoError(t, err)

	require.Len(t, trials, 3)
	assert.Equal(t, int64(300), trials[0].TS)
	assert.Equal(t, int64(200), trials[1].TS)
	assert.Equal(t, int64(100), trials[2].TS)
	assert.Equal(t, int64(3), *trials[0].Size)
}

func TestListTrials_Limit(t *testing.T) {
	requireDB(t)

	insertTrial(t, 100, 1, 1)
	insertTrial(t, 200, 2, 2)
	insertTrial(t, 300, 3, 3)

	two := int64(2)
	trials, err := testRepos.Trial.ListTrials(testCtx, model.TrialFilter{Limit: &two})
	require.NoError(t, err)
	require.Len(t, trials, 2)
	assert.Equal(t, int64(300), trials[0].TS)

	negative := int64(-1)
	trials, err = testRepos.Trial.ListTrials(testCtx, model.TrialFilter{Limit: &negative})
	require.NoError(t, err)
	assert.Len(t, trials, 3)
}

func TestListTrials_ActiveAndRecent(t *testing.T) {
	requireDB(t)

	fresh := insertActiveTrial(t, 5)
	insertActiveTrial(t, 600) // timed out

	var recent int64
	err := testServer.DB.Pool.QueryRow(testCtx,
		"INSERT INTO trial (ts, size, period) VALUES ("+nowEpoch+" - 30, 10, 10) RETURNING ts").Scan(&recent)
	require.NoError(t, err)
	insertTrial(t, 1000, 1, 1) // completed long ago

	active, err := testRepos.Trial.ListTrials(testCtx, model.TrialFilter{Active: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, fresh, active[0].TS)
	assert.True(t, active[0].Active())

	minute := int64(60)
	both, err := testRepos.Trial.ListTrials(testCtx, model.TrialFilter{Active: true, Period: &minute})
	require.NoError(t, err)
	require.Len(t, both, 2)
	assert.ElementsMatch(t, []int64{fresh, recent}, []int64{both[0].TS, both[1].TS})
}

func TestGetTrialStats_Empty(t *testing.T) {
	requireDB(t)

	stats, err := testRepos.Trial.GetTrialStats(testCtx)
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.TotalCount)
	assert.Equal(t, int64(0), stats.StatCount)
	assert.Nil(t, stats.StatMean)
}

func TestGetTrialStats_NoTrimmingUpToEight(t *testing.T) {
	requireDB(t)

	for k := int64(1); k <= 8; k++ {
		insertTrial(t, k, k, 1_000_000)
	}
	insertActiveTrial(t, 0)

	stats, err := testRepos.Trial.GetTrialStats(testCtx)
	require.NoError(t, err)

	assert.Equal(t, int64(8), stats.TotalCount)
	assert.Equal(t, stats.TotalCount, stats.StatCount)
	require.NotNil(t, stats.StatMean)
	assert.InDelta(t, 4.5, *stats.StatMean, 1e-9)
}

func TestGetTrialStats_TrimsOuterDeciles(t *testing.T) {
	requireDB(t)

	for k := int64(1); k <= 9; k++ {
		insertTrial(t, k, k, 1_000_000)
	}

	stats, err := testRepos.Trial.GetTrialStats(testCtx)
	require.NoError(t, err)

	assert.Equal(t, int64(9), stats.TotalCount)
	assert.Equal(t, int64(8), stats.StatCount)
	require.NotNil(t, stats.StatMean)
	assert.InDelta(t, 5.5, *stats.StatMean, 1e-9)
}

// Upsert accepts a zero period; stats then fail in the database.
func TestGetTrialStats_ZeroPeriodFails(t *testing.T) {
	requireDB(t)

	insertTrial(t, 1, 10, 0)

	_, err := testRepos.Trial.GetTrialStats(testCtx)
	require.Error(t, err)
	assert.Equal(t, sqlerr.DivisionByZero, sqlerr.CodeOf(err))
}

func TestCreateTrial_ActiveConflict(t *testing.T) {
	requireDB(t)

	filter := model.TrialFilter{Active: true}

	first, err := testRepos.Trial.CreateTrial(testCtx, filter)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := testRepos.Trial.CreateTrial(testCtx, filter)
	require.NoError(t, err)
	assert.Nil(t, second)
}

func TestCreateTrial_TimestampCollision(t *testing.T) {
	requireDB(t)

	// Occupy this second and the next two so the default ts always collides.
	_, err := testServer.DB.Pool.Exec(testCtx,
		"INSERT INTO trial (ts, size, period) SELECT "+nowEpoch+" + g, 1, 1 FROM generate_series(0, 2) AS g")
	require.NoError(t, err)

	ts, err := testRepos.Trial.CreateTrial(testCtx, model.TrialFilter{})
	require.NoError(t, err)
	assert.Nil(t, ts)
}

func TestCreateTrial_RecentCompletedSuppresses(t *testing.T) {
	requireDB(t)

	_, err := testServer.DB.Pool.Exec(testCtx,
		"INSERT INTO trial (ts, size, period) VALUES ("+nowEpoch+" - 10, 1, 1)")
	require.NoError(t, err)

	hour := int64(3600)
	ts, err := testRepos.Trial.CreateTrial(testCtx, model.TrialFilter{Period: &hour})
	require.NoError(t, err)
	assert.Nil(t, ts)

	five := int64(5)
	ts, err = testRepos.Trial.CreateTrial(testCtx, model.TrialFilter{Period: &five})
	require.NoError(t, err)
	assert.NotNil(t, ts)
}

func TestUpsertTrial_InsertThenUpdate(t *testing.T) {
	requireDB(t)

	insertTrial(t, 42, 1, 2)
	insertTrial(t, 42, 3, 4)

	trials, err := testRepos.Trial.ListTrials(testCtx, model.TrialFilter{})
	require.NoError(t, err)
	require.Len(t, trials, 1)
	assert.Equal(t, int64(42), trials[0].TS)
	assert.Equal(t, int64(3), *trials[0].Size)
	assert.Equal(t, int64(4), *trials[0].Period)
}

func TestUpsertTrial_CompletesActiveTrial(t *testing.T) {
	requireDB(t)

	ts := insertActiveTrial(t, 0)
	insertTrial(t, ts, 100, 5)

	active, err := testRepos.Trial.ListTrials(testCtx, model.TrialFilter{Active: true})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestInsertSurvey(t *testing.T) {
	requireDB(t)

	require.NoError(t, testRepos.Survey.InsertSurvey(testCtx, 1))

	var subj int
	require.NoError(t, testServer.DB.Pool.QueryRow(testCtx, "SELECT subj FROM survey").Scan(&subj))
	assert.Equal(t, 1, subj)
}

func TestInsertSurvey_RejectsUnknownCode(t *testing.T) {
	requireDB(t)

	err := testRepos.Survey.InsertSurvey(testCtx, 7)
	require.Error(t, err)
	assert.Equal(t, sqlerr.CheckViolation, sqlerr.CodeOf(err))
}
