// internal/service/link_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"link-service/internal/config"
	"link-service/internal/control"
	"link-service/internal/link"
	"link-service/internal/metrics"
	"link-service/internal/model"
	"link-service/internal/protocol/serial"
	"link-service/internal/task"
	"link-service/internal/utils"
)

// ErrNotConnected is returned by operations that need an active link
var ErrNotConnected = errors.New("link is not connected")

const eventSource = "link-service"

// EventPublisher fans link events out to subscribers. Publish must not block.
type EventPublisher interface {
	Publish(event model.LinkEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(model.LinkEvent) {}

// LinkService ties the shared link settings, the worker coordinator and the
// screen/connect state together for the API and the refresh loop
type LinkService struct {
	config      *link.Config
	coordinator *task.Coordinator
	selector    *control.Selector
	sw          *control.Switch
	reconciler  *control.Reconciler

	publisher EventPublisher
	metrics   *metrics.Metrics
	work      task.WorkFunc

	refreshInterval time.Duration
	shutdownTimeout time.Duration

	logger      *utils.ServiceLogger
	auditLogger *utils.AuditLogger
}

// LinkServiceOption customises a LinkService
type LinkServiceOption func(*LinkService)

func WithPublisher(publisher EventPublisher) LinkServiceOption {
	return func(ls *LinkService) {
		if publisher != nil {
			ls.publisher = publisher
		}
	}
}

func WithMetrics(m *metrics.Metrics) LinkServiceOption {
	return func(ls *LinkService) {
		ls.metrics = m
	}
}

// WithWork overrides the worker body selected by worker.body
func WithWork(work task.WorkFunc) LinkServiceOption {
	return func(ls *LinkService) {
		ls.work = work
	}
}

// NewLinkService creates a new link service instance
func NewLinkService(cfg *config.Config, logger *zap.Logger, opts ...LinkServiceOption) (*LinkService, error) {
	initial, err := SettingsFromConfig(cfg.Link)
	if err != nil {
		return nil, fmt.Errorf("invalid link settings: %w", err)
	}

	ls := &LinkService{
		publisher:       nopPublisher{},
		refreshInterval: cfg.Coordinator.RefreshInterval,
		shutdownTimeout: cfg.Server.ShutdownTimeout,
		logger:          utils.NewServiceLogger(logger, "link-service"),
		auditLogger:     utils.NewAuditLogger(logger),
	}
	for _, opt := range opts {
		opt(ls)
	}
	if ls.shutdownTimeout <= 0 {
		ls.shutdownTimeout = 5 * time.Second
	}
	if ls.work == nil {
		ls.work = newWorkFunc(cfg.Worker, logger)
	}
	if ls.metrics != nil {
		ls.work = ls.metrics.InstrumentWork(ls.work)
	}

	ls.config, err = link.NewConfig(initial, logger)
	if err != nil {
		return nil, err
	}

	ls.coordinator, err = task.NewCoordinator(ls.config,
		task.WithLogger(logger),
		task.WithInterval(cfg.Worker.Interval),
		task.WithWork(ls.work),
		task.WithObserver(ls.onCoordinatorEvent),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create coordinator: %w", err)
	}

	ls.selector = control.NewSelector()
	ls.sw = control.NewSwitch()
	ls.reconciler, err = control.NewReconciler(ls.selector, ls.sw, ls.coordinator,
		control.WithReconcilerLogger(logger),
		control.WithReplacements(ls.config),
	)
	if err != nil {
		return nil, err
	}

	return ls, nil
}

func newWorkFunc(cfg config.WorkerConfig, logger *zap.Logger) task.WorkFunc {
	if cfg.Body == "port" {
		return serial.NewPortWork(logger).Work
	}
	return task.LogWork(logger)
}

// Run drives the reconciliation cycle until ctx ends, then stops the worker
func (ls *LinkService) Run(ctx context.Context) error {
	ticker := time.NewTicker(ls.refreshInterval)
	defer ticker.Stop()

	ls.logger.Info("Link refresh loop started", zap.Duration("refresh_interval", ls.refreshInterval))

	for {
		select {
		case <-ctx.Done():
			ls.logger.Info("Link refresh loop stopping")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), ls.shutdownTimeout)
			defer cancel()
			if err := ls.coordinator.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to stop worker: %w", err)
			}
			return nil
		case <-ticker.C:
			_, _ = ls.RunCycle()
		}
	}
}

// RunCycle performs one reconciliation pass
func (ls *LinkService) RunCycle() (control.CycleResult, error) {
	res, err := ls.reconciler.Cycle()
	if err != nil {
		ls.logger.Error("Reconciliation cycle failed", zap.Error(err))
		ev := model.NewLinkEvent(model.EventCycleFailed, eventSource, model.JSONObject{"error": err.Error()})
		ev.Severity = "ERROR"
		ls.publisher.Publish(ev)
	}
	return res, err
}

// Connect records the operator's intent to bring the link up
func (ls *LinkService) Connect() (control.CycleResult, error) {
	if ls.sw.Connect() {
		ls.connectionChanged(true)
	}
	return ls.RunCycle()
}

// Disconnect records the operator's intent to take the link down
func (ls *LinkService) Disconnect() (control.CycleResult, error) {
	if ls.sw.Disconnect() {
		ls.connectionChanged(false)
	}
	return ls.RunCycle()
}

func (ls *LinkService) connectionChanged(connected bool) {
	if ls.metrics != nil {
		ls.metrics.SetConnected(connected)
	}
	command := "disconnect"
	if connected {
		command = "connect"
	}
	ls.auditLogger.LogLinkCommand(command, "api", true)
	ls.publisher.Publish(model.NewLinkEvent(model.EventConnectionChanged, eventSource, model.JSONObject{
		"connected": connected,
	}))
}

// SelectScreen switches the active screen and reconciles straight away
func (ls *LinkService) SelectScreen(screen control.Screen) (control.CycleResult, error) {
	previous, changed, err := ls.selector.Select(screen)
	if err != nil {
		return control.CycleResult{}, err
	}
	if changed {
		ls.logger.Info("Screen changed",
			zap.Stringer("from", previous),
			zap.Stringer("to", screen),
		)
		ls.publisher.Publish(model.NewLinkEvent(model.EventScreenChanged, eventSource, model.JSONObject{
			"previous": previous.String(),
			"current":  screen.String(),
		}))
	}
	return ls.RunCycle()
}

// SetRole sets the role directly. A running worker picks it up on its next iteration.
func (ls *LinkService) SetRole(role task.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %d", task.ErrInvalidRole, int32(role))
	}
	ls.coordinator.SetRole(role)
	return nil
}

func (ls *LinkService) Role() task.Role {
	return ls.coordinator.Role()
}

func (ls *LinkService) Settings() link.Settings {
	return ls.config.Snapshot()
}

// UpdateSettings applies a partial edit field by field; a running worker sees
// it on its next iteration without restarting
func (ls *LinkService) UpdateSettings(patch link.Patch) (link.Settings, []string, error) {
	before := ls.config.Snapshot()
	changed, err := ls.config.Apply(patch)
	if err != nil {
		return before, nil, err
	}

	after := ls.config.Snapshot()
	if len(changed) > 0 {
		ls.auditLogger.LogSettingsChange("update", "api", ToModelSettings(before), ToModelSettings(after))
		ls.publisher.Publish(model.NewLinkEvent(model.EventSettingsUpdated, eventSource, model.JSONObject{
			"changed":  changed,
			"settings": ToModelSettings(after),
		}))
	}
	return after, changed, nil
}

// ReplaceSettings swaps the whole record; a running worker is recreated by
// the next cycle, which runs before this returns
func (ls *LinkService) ReplaceSettings(settings link.Settings) (link.Settings, control.CycleResult, error) {
	before := ls.config.Snapshot()
	if err := ls.config.Replace(settings); err != nil {
		return before, control.CycleResult{}, err
	}

	after := ls.config.Snapshot()
	ls.auditLogger.LogSettingsChange("replace", "api", ToModelSettings(before), ToModelSettings(after))
	ls.publisher.Publish(model.NewLinkEvent(model.EventSettingsReplaced, eventSource, model.JSONObject{
		"settings": ToModelSettings(after),
	}))

	res, err := ls.RunCycle()
	return after, res, err
}

// RestartWorker replaces the running worker with a fresh one
func (ls *LinkService) RestartWorker() (task.Status, error) {
	if !ls.sw.Connected() {
		return ls.coordinator.Status(), ErrNotConnected
	}
	err := ls.coordinator.RecreateWorker()
	ls.auditLogger.LogLinkCommand("restart", "api", err == nil)
	if err != nil {
		return ls.coordinator.Status(), fmt.Errorf("failed to restart worker: %w", err)
	}
	return ls.coordinator.Status(), nil
}

// Status returns the combined link view
func (ls *LinkService) Status() model.LinkStatus {
	st := ls.coordinator.Status()

	out := model.LinkStatus{
		Connected:      ls.sw.Connected(),
		Screen:         ls.selector.Current().String(),
		PreviousScreen: ls.selector.Previous().String(),
		Role:           st.Role.String(),
		Settings:       ToModelSettings(ls.config.Snapshot()),
		Replacements:   ls.config.Replacements(),
		Worker: model.WorkerStatus{
			Running:    st.HasWorker,
			ID:         st.WorkerID,
			Iterations: st.Iterations,
			Failures:   st.Failures,
			Exited:     st.Exited,
		},
	}
	if st.HasWorker {
		started := st.StartedAt
		out.Worker.StartedAt = &started
	}
	return out
}

// Healthy reports whether the coordinator is in a usable state
func (ls *LinkService) Healthy() error {
	st := ls.coordinator.Status()
	if st.HasWorker && st.Exited {
		return fmt.Errorf("worker %s exited unexpectedly", st.WorkerID)
	}
	return nil
}

func (ls *LinkService) onCoordinatorEvent(ev task.Event) {
	if ls.metrics != nil {
		ls.metrics.ObserveEvent(ev)
	}

	var eventType model.EventType
	data := model.JSONObject{"role": ev.Role.String()}

	switch ev.Type {
	case task.EventWorkerCreated:
		eventType = model.EventWorkerCreated
		data["worker_id"] = ev.WorkerID.String()
	case task.EventWorkerDeleted:
		eventType = model.EventWorkerDeleted
		data["worker_id"] = ev.WorkerID.String()
	case task.EventRoleChanged:
		eventType = model.EventRoleChanged
		data["previous_role"] = ev.PreviousRole.String()
	default:
		return
	}

	event := model.NewLinkEvent(eventType, "coordinator", data)
	event.Timestamp = ev.Time
	ls.publisher.Publish(event)
}
