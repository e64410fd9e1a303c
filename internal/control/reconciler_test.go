package control

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"link-service/internal/link"
	"link-service/internal/task"
)

// fakeLifecycle records calls in order.
type fakeLifecycle struct {
	role      task.Role
	hasWorker bool
	calls     []string
	createErr error
}

func (f *fakeLifecycle) SetRole(role task.Role) {
	f.calls = append(f.calls, "set_role:"+role.String())
	f.role = role
}

func (f *fakeLifecycle) Role() task.Role { return f.role }

func (f *fakeLifecycle) HasWorker() bool { return f.hasWorker }

func (f *fakeLifecycle) CreateWorker() error {
	f.calls = append(f.calls, "create")
	if f.createErr != nil {
		return f.createErr
	}
	f.hasWorker = true
	return nil
}

func (f *fakeLifecycle) DeleteWorker() {
	f.calls = append(f.calls, "delete")
	f.hasWorker = false
}

func (f *fakeLifecycle) RecreateWorker() error {
	f.calls = append(f.calls, "recreate")
	f.hasWorker = true
	return nil
}

type fixture struct {
	cfg   *link.Config
	coord *task.Coordinator
	sel   *Selector
	sw    *Switch
	rec   *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := link.NewConfig(link.DefaultSettings(), nil)
	require.NoError(t, err)
	coord, err := task.NewCoordinator(cfg, task.WithInterval(5*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, coord.Shutdown(ctx))
	})

	sel := NewSelector()
	sw := NewSwitch()
	rec, err := NewReconciler(sel, sw, coord, WithReplacements(cfg))
	require.NoError(t, err)

	return &fixture{cfg: cfg, coord: coord, sel: sel, sw: sw, rec: rec}
}

func (f *fixture) cycle(t *testing.T) CycleResult {
	t.Helper()
	res, err := f.rec.Cycle()
	require.NoError(t, err)
	return res
}

func TestNewReconciler_RequiresCollaborators(t *testing.T) {
	t.Parallel()

	_, err := NewReconciler(nil, NewSwitch(), &fakeLifecycle{})
	require.Error(t, err)
}

func TestReconciler_InitialState(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	res := f.cycle(t)
	assert.Equal(t, ActionNone, res.Action)
	assert.False(t, f.coord.HasWorker())
	assert.Equal(t, task.RoleResponder, f.coord.Role())
}

func TestReconciler_ConnectOnInitiatorScreen(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, _, err := f.sel.Select(ScreenInitiator)
	require.NoError(t, err)
	f.sw.Connect()

	res := f.cycle(t)
	assert.Equal(t, ActionCreated, res.Action)
	assert.True(t, res.RoleChanged)
	assert.True(t, f.coord.HasWorker())
	assert.Equal(t, task.RoleInitiator, f.coord.Role())
}

func TestReconciler_RoleSetBeforeCreate(t *testing.T) {
	t.Parallel()

	fake := &fakeLifecycle{}
	sel := NewSelector()
	sw := NewSwitch()
	rec, err := NewReconciler(sel, sw, fake)
	require.NoError(t, err)

	_, _, err = sel.Select(ScreenInitiator)
	require.NoError(t, err)
	sw.Connect()

	_, err = rec.Cycle()
	require.NoError(t, err)
	assert.Equal(t, []string{"set_role:initiator", "set_role:initiator", "create"}, fake.calls)
}

func TestReconciler_ConnectOnHomeDefaultsToResponder(t *testing.T) {
	t.Parallel()

	fake := &fakeLifecycle{role: task.RoleInitiator}
	sw := NewSwitch()
	rec, err := NewReconciler(NewSelector(), sw, fake)
	require.NoError(t, err)

	sw.Connect()
	res, err := rec.Cycle()
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, res.Action)
	assert.False(t, res.RoleChanged)
	assert.Equal(t, task.RoleResponder, res.Role)
	assert.Equal(t, []string{"set_role:responder", "create"}, fake.calls)
}

func TestReconciler_Disconnect(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.sw.Connect()
	f.cycle(t)
	require.True(t, f.coord.HasWorker())

	f.sw.Disconnect()
	res := f.cycle(t)
	assert.Equal(t, ActionDeleted, res.Action)
	assert.False(t, f.coord.HasWorker())

	res = f.cycle(t)
	assert.Equal(t, ActionNone, res.Action)
}

func TestReconciler_HomeKeepsRoleWhileConnected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, _, err := f.sel.Select(ScreenResponder)
	require.NoError(t, err)
	f.sw.Connect()
	f.cycle(t)
	require.True(t, f.coord.HasWorker())
	before := f.coord.Status().WorkerID

	_, _, err = f.sel.Select(ScreenHome)
	require.NoError(t, err)
	res := f.cycle(t)

	assert.Equal(t, ActionNone, res.Action)
	assert.False(t, res.RoleChanged)
	assert.Equal(t, task.RoleResponder, f.coord.Role())
	assert.Equal(t, before, f.coord.Status().WorkerID)
}

func TestReconciler_ScreenSwitchWhileConnectedOnlyChangesRole(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.sw.Connect()
	f.cycle(t)
	before := f.coord.Status().WorkerID

	_, _, err := f.sel.Select(ScreenInitiator)
	require.NoError(t, err)
	res := f.cycle(t)

	assert.True(t, res.RoleChanged)
	assert.Equal(t, ActionNone, res.Action)
	assert.Equal(t, task.RoleInitiator, f.coord.Role())
	assert.Equal(t, before, f.coord.Status().WorkerID)
}

func TestReconciler_RoleChangeWhileDisconnected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, _, err := f.sel.Select(ScreenInitiator)
	require.NoError(t, err)

	res := f.cycle(t)
	assert.True(t, res.RoleChanged)
	assert.Equal(t, ActionNone, res.Action)
	assert.Equal(t, task.RoleInitiator, f.coord.Role())
	assert.False(t, f.coord.HasWorker())
}

func TestReconciler_ReplaceRecreatesRunningWorker(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.sw.Connect()
	f.cycle(t)
	before := f.coord.Status().WorkerID

	next := link.DefaultSettings()
	next.BaudRate = 57600
	require.NoError(t, f.cfg.Replace(next))

	res := f.cycle(t)
	assert.Equal(t, ActionRecreated, res.Action)
	assert.NotEqual(t, before, f.coord.Status().WorkerID)

	res = f.cycle(t)
	assert.Equal(t, ActionNone, res.Action)
}

func TestReconciler_FieldEditDoesNotRecreate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.sw.Connect()
	f.cycle(t)
	before := f.coord.Status().WorkerID

	_, err := f.cfg.SetBaudRate(38400)
	require.NoError(t, err)

	res := f.cycle(t)
	assert.Equal(t, ActionNone, res.Action)
	assert.Equal(t, before, f.coord.Status().WorkerID)
}

func TestReconciler_CreateFailureIsReturned(t *testing.T) {
	t.Parallel()

	fake := &fakeLifecycle{createErr: task.ErrClosed}
	sw := NewSwitch()
	rec, err := NewReconciler(NewSelector(), sw, fake)
	require.NoError(t, err)

	sw.Connect()
	_, err = rec.Cycle()
	require.ErrorIs(t, err, task.ErrClosed)
}

func TestReconciler_CreateRaceWithExistingWorker(t *testing.T) {
	t.Parallel()

	fake := &fakeLifecycle{createErr: task.ErrWorkerExists}
	sw := NewSwitch()
	rec, err := NewReconciler(NewSelector(), sw, fake)
	require.NoError(t, err)

	sw.Connect()
	res, err := rec.Cycle()
	require.NoError(t, err)
	assert.Equal(t, ActionNone, res.Action)
	assert.True(t, res.Connected)
}
