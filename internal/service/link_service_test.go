package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"link-service/internal/config"
	"link-service/internal/control"
	"link-service/internal/link"
	"link-service/internal/metrics"
	"link-service/internal/model"
	"link-service/internal/task"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.LinkEvent
}

func (p *recordingPublisher) Publish(ev model.LinkEvent) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *recordingPublisher) types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.EventType)
	}
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		Link: config.LinkConfig{
			BaudRate:    9600,
			DataBits:    8,
			Parity:      "none",
			StopBits:    1,
			FlowControl: "none",
			Timeout:     100 * time.Millisecond,
		},
		Worker:      config.WorkerConfig{Interval: 5 * time.Millisecond, Body: "log"},
		Coordinator: config.CoordinatorConfig{RefreshInterval: 5 * time.Millisecond},
		Server:      config.ServerConfig{ShutdownTimeout: time.Second},
	}
}

func newTestLinkService(t *testing.T, opts ...LinkServiceOption) (*LinkService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	ls, err := NewLinkService(testConfig(), zaptest.NewLogger(t), append([]LinkServiceOption{WithPublisher(pub)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, ls.coordinator.Shutdown(ctx))
	})
	return ls, pub
}

func TestNewLinkService_InvalidSettings(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Link.Parity = "mark"
	_, err := NewLinkService(cfg, zaptest.NewLogger(t))
	require.ErrorIs(t, err, link.ErrInvalidSetting)

	cfg = testConfig()
	cfg.Worker.Interval = 0
	_, err = NewLinkService(cfg, zaptest.NewLogger(t))
	require.ErrorIs(t, err, task.ErrInvalidInterval)
}

func TestLinkService_ConnectOnInitiatorScreen(t *testing.T) {
	t.Parallel()

	ls, pub := newTestLinkService(t)

	res, err := ls.SelectScreen(control.ScreenInitiator)
	require.NoError(t, err)
	assert.True(t, res.RoleChanged)
	assert.Equal(t, control.ActionNone, res.Action)

	res, err = ls.Connect()
	require.NoError(t, err)
	assert.Equal(t, control.ActionCreated, res.Action)

	st := ls.Status()
	assert.True(t, st.Connected)
	assert.True(t, st.Worker.Running)
	assert.NotNil(t, st.Worker.StartedAt)
	assert.Equal(t, "initiator", st.Role)
	assert.Equal(t, "initiator", st.Screen)
	assert.Equal(t, "home", st.PreviousScreen)

	assert.Equal(t, []model.EventType{
		model.EventScreenChanged,
		model.EventRoleChanged,
		model.EventConnectionChanged,
		model.EventWorkerCreated,
	}, pub.types())
}

func TestLinkService_Disconnect(t *testing.T) {
	t.Parallel()

	ls, _ := newTestLinkService(t)
	_, err := ls.Connect()
	require.NoError(t, err)

	res, err := ls.Disconnect()
	require.NoError(t, err)
	assert.Equal(t, control.ActionDeleted, res.Action)
	assert.False(t, ls.Status().Worker.Running)
	assert.False(t, ls.Status().Connected)
}

func TestLinkService_RestartWorker(t *testing.T) {
	t.Parallel()

	ls, _ := newTestLinkService(t)

	_, err := ls.RestartWorker()
	require.ErrorIs(t, err, ErrNotConnected)

	_, err = ls.Connect()
	require.NoError(t, err)
	before := ls.Status().Worker.ID

	st, err := ls.RestartWorker()
	require.NoError(t, err)
	assert.True(t, st.HasWorker)
	assert.NotEqual(t, before, st.WorkerID)
}

func TestLinkService_SetRole(t *testing.T) {
	t.Parallel()

	ls, _ := newTestLinkService(t)
	require.NoError(t, ls.SetRole(task.RoleInitiator))
	assert.Equal(t, task.RoleInitiator, ls.Role())
	require.ErrorIs(t, ls.SetRole(task.Role(9)), task.ErrInvalidRole)
}

func TestLinkService_UpdateSettingsReachesWorker(t *testing.T) {
	t.Parallel()

	seen := make(chan uint32, 64)
	work := func(_ context.Context, it task.Iteration) error {
		select {
		case seen <- it.Settings.BaudRate:
		default:
		}
		return nil
	}
	ls, pub := newTestLinkService(t, WithWork(work))
	_, err := ls.Connect()
	require.NoError(t, err)
	before := ls.Status().Worker.ID

	baud := uint32(115200)
	after, changed, err := ls.UpdateSettings(link.Patch{BaudRate: &baud})
	require.NoError(t, err)
	assert.Equal(t, []string{"baud_rate"}, changed)
	assert.Equal(t, baud, after.BaudRate)

	require.Eventually(t, func() bool {
		for {
			select {
			case b := <-seen:
				if b == baud {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, time.Millisecond)

	// field edits never restart the worker
	_, err = ls.RunCycle()
	require.NoError(t, err)
	assert.Equal(t, before, ls.Status().Worker.ID)
	assert.Contains(t, pub.types(), model.EventSettingsUpdated)
}

func TestLinkService_UpdateSettingsRejectsInvalid(t *testing.T) {
	t.Parallel()

	ls, pub := newTestLinkService(t)
	zero := uint32(0)
	_, _, err := ls.UpdateSettings(link.Patch{BaudRate: &zero})
	require.ErrorIs(t, err, link.ErrInvalidSetting)
	assert.Empty(t, pub.types())
}

func TestLinkService_ReplaceSettingsRecreatesWorker(t *testing.T) {
	t.Parallel()

	ls, _ := newTestLinkService(t)
	_, err := ls.Connect()
	require.NoError(t, err)
	before := ls.Status().Worker.ID

	next := link.DefaultSettings()
	next.PortName = "/dev/ttyUSB3"
	_, res, err := ls.ReplaceSettings(next)
	require.NoError(t, err)
	assert.Equal(t, control.ActionRecreated, res.Action)

	st := ls.Status()
	assert.NotEqual(t, before, st.Worker.ID)
	assert.Equal(t, "/dev/ttyUSB3", st.Settings.PortName)
	assert.Equal(t, uint64(1), st.Replacements)
}

func TestLinkService_ReplaceWhileDisconnected(t *testing.T) {
	t.Parallel()

	ls, _ := newTestLinkService(t)
	_, res, err := ls.ReplaceSettings(link.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, control.ActionNone, res.Action)
	assert.False(t, ls.Status().Worker.Running)
}

func TestLinkService_Run(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	ls, _ := newTestLinkService(t, WithMetrics(m))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ls.Run(ctx) }()

	// the loop picks up a connect made without an explicit cycle
	ls.sw.Connect()
	require.Eventually(t, func() bool { return ls.Status().Worker.Running }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return ls.Status().Worker.Iterations > 0 }, time.Second, time.Millisecond)
	require.NoError(t, ls.Healthy())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.False(t, ls.Status().Worker.Running)
}
