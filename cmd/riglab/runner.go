package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/riglab-core/internal/campaign"
	"github.com/nerrad567/riglab-core/internal/device"
	"github.com/nerrad567/riglab-core/internal/infrastructure/config"
	"github.com/nerrad567/riglab-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/riglab-core/internal/infrastructure/logging"
	"github.com/nerrad567/riglab-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/riglab-core/internal/monitor"
	"github.com/nerrad567/riglab-core/internal/pool"
	"github.com/nerrad567/riglab-core/internal/runlog"
)

// controlCommand is the payload accepted on the campaign control topic.
//
//	{"action":"start","params":{"offset":{"min":0,"max":5000,"step":100}, ...}}
//	{"action":"cancel"}
//
// Glitcher and Monitor name pool device ids; both are optional and fall
// back to task-based auto-selection.
type controlCommand struct {
	Action   string          `json:"action"`
	Glitcher string          `json:"glitcher"`
	Monitor  string          `json:"monitor"`
	Params   campaign.Params `json:"params"`
}

// campaignRunner owns the lifecycle of at most one campaign at a time,
// driven by MQTT control commands. It wires the pool, the monitor, the
// engine, and the telemetry sinks together for each run.
type campaignRunner struct {
	cfg    *config.Config
	pool   *pool.Pool
	runs   runlog.Repository
	mqtt   *mqtt.Client
	influx *influxdb.Client
	log    *logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func newCampaignRunner(cfg *config.Config, devicePool *pool.Pool, runs runlog.Repository, mqttClient *mqtt.Client, influxClient *influxdb.Client, log *logging.Logger) *campaignRunner {
	return &campaignRunner{
		cfg:    cfg,
		pool:   devicePool,
		runs:   runs,
		mqtt:   mqttClient,
		influx: influxClient,
		log:    log,
	}
}

// HandleControl processes one control payload. Campaigns run on their
// own goroutine; the MQTT handler must not block.
func (r *campaignRunner) HandleControl(ctx context.Context, payload []byte) {
	var cmd controlCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		r.log.Warn("invalid campaign control payload", "error", err)
		return
	}

	switch cmd.Action {
	case "start":
		r.start(ctx, cmd)
	case "cancel":
		r.CancelActive()
	default:
		r.log.Warn("unknown campaign control action", "action", cmd.Action)
	}
}

// start launches a campaign unless one is already running.
func (r *campaignRunner) start(ctx context.Context, cmd controlCommand) {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		r.log.Warn("campaign start rejected, one is already running")
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			r.mu.Lock()
			r.cancel = nil
			r.mu.Unlock()
		}()

		if err := r.execute(runCtx, cmd); err != nil {
			r.log.Error("campaign failed", "error", err)
		}
	}()
}

// CancelActive cancels the running campaign, if any. The engine returns
// its partial result, which is still persisted and published.
func (r *campaignRunner) CancelActive() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		r.log.Info("cancelling active campaign")
		cancel()
	}
}

// execute picks devices, coordinates the workflow, and cleans up.
func (r *campaignRunner) execute(ctx context.Context, cmd controlCommand) error {
	glitcherID := cmd.Glitcher
	if glitcherID == "" {
		id, err := r.pool.AutoSelect("glitch")
		if err != nil {
			return fmt.Errorf("selecting glitcher: %w", err)
		}
		glitcherID = id
	}

	monitorID := cmd.Monitor
	if monitorID == "" {
		id, err := r.pool.AutoSelect("serial monitor")
		if err != nil {
			return fmt.Errorf("selecting monitor: %w", err)
		}
		monitorID = id
	}

	params := cmd.Params
	if params.RunID == "" {
		params.RunID = uuid.NewString()
	}
	if params.SettleTime <= 0 {
		params.SettleTime = r.cfg.CampaignSettleTime()
	}
	if params.AttemptsPerSetting <= 0 {
		params.AttemptsPerSetting = r.cfg.Campaign.AttemptsPerSetting
	}

	r.log.Info("campaign accepted",
		"run", params.RunID,
		"glitcher", glitcherID,
		"monitor", monitorID,
	)

	wf := &glitchCampaign{runner: r, params: params}
	assignments := map[device.Role]string{
		device.RoleGlitcher: glitcherID,
		device.RoleMonitor:  monitorID,
	}

	return r.pool.Coordinate(ctx, wf, assignments)
}

// glitchCampaign is the workflow run under pool coordination: a fault
// injector swept by the engine while a serial monitor scores output.
type glitchCampaign struct {
	runner *campaignRunner
	params campaign.Params
}

func (w *glitchCampaign) Name() string { return "glitch-campaign" }

func (w *glitchCampaign) Roles() map[device.Role][]device.Capability {
	return map[device.Role][]device.Capability{
		device.RoleGlitcher: {device.CapFaultInject},
		device.RoleMonitor:  {device.CapUART},
	}
}

func (w *glitchCampaign) Run(ctx context.Context, session *pool.Session) error {
	r := w.runner

	stream, ok := session.Stream(device.RoleMonitor)
	if !ok {
		return fmt.Errorf("monitor backend does not expose a byte stream")
	}
	injector, ok := session.Injector(device.RoleGlitcher)
	if !ok {
		return fmt.Errorf("glitcher backend is not a fault injector")
	}

	mon := monitor.New(stream, monitor.Config{
		CheckInterval: r.cfg.MonitorCheckInterval(),
		ReadTimeout:   r.cfg.MonitorReadTimeout(),
		BufferCap:     r.cfg.Monitor.BufferCap,
		HistorySize:   r.cfg.Monitor.HistorySize,
	})
	mon.SetLogger(r.log)

	// The engine scores monitor match events, so every pattern the
	// campaign cares about must be registered as a condition.
	for i, pat := range w.params.SuccessPatterns {
		name := fmt.Sprintf("success-%d", i+1)
		if err := mon.Add(name, pat, r.conditionAction(name)); err != nil {
			return fmt.Errorf("registering success condition: %w", err)
		}
	}
	if w.params.OvershootPattern != "" {
		if err := mon.Add("overshoot", w.params.OvershootPattern, r.conditionAction("overshoot")); err != nil {
			return fmt.Errorf("registering overshoot condition: %w", err)
		}
	}

	if err := mon.Start(ctx); err != nil {
		return fmt.Errorf("starting monitor: %w", err)
	}
	defer func() {
		if err := mon.Stop(); err != nil {
			r.log.Warn("stopping monitor", "error", err)
		}
	}()

	engine := campaign.New(injector, mon)
	engine.SetLogger(r.log)
	engine.SetProgress(r.progressPublisher(w.params.RunID))
	engine.SetOnAttempt(r.attemptRecorder(w.params.RunID))

	run, err := engine.Run(ctx, w.params)
	if err != nil {
		return fmt.Errorf("campaign run: %w", err)
	}

	r.finishRun(run)
	return nil
}

// conditionAction publishes a condition match to the telemetry sinks.
func (r *campaignRunner) conditionAction(name string) monitor.Action {
	return func(ev monitor.MatchEvent) error {
		if r.influx != nil {
			r.influx.WriteConditionMatch(ev.Condition, len(ev.Text), ev.At)
		}
		if r.mqtt == nil {
			return nil
		}
		payload, err := json.Marshal(map[string]any{
			"condition": ev.Condition,
			"text":      ev.Text,
			"at":        ev.At.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return err
		}
		return r.mqtt.Publish(mqtt.Topics{}.EventConditionMatch(name), payload, byte(r.cfg.MQTT.QoS), false)
	}
}

// progressPublisher publishes per-attempt progress for one run.
func (r *campaignRunner) progressPublisher(runID string) campaign.ProgressFunc {
	return func(done, total int, fraction float64) {
		if r.mqtt == nil {
			return
		}
		payload, err := json.Marshal(map[string]any{
			"run_id":   runID,
			"done":     done,
			"total":    total,
			"fraction": fraction,
		})
		if err != nil {
			return
		}
		// QoS 0: progress is high-rate and any single update is disposable.
		//nolint:errcheck
		r.mqtt.Publish(mqtt.Topics{}.CampaignProgress(runID), payload, 0, false)
	}
}

// attemptRecorder streams one InfluxDB point per attempt for one run.
func (r *campaignRunner) attemptRecorder(runID string) campaign.AttemptFunc {
	return func(offset, width, attempt int, result string) {
		if r.influx == nil {
			return
		}
		r.influx.WriteGlitchAttempt(runID, offset, width, attempt, result)
	}
}

// finishRun persists the result and publishes the summary.
func (r *campaignRunner) finishRun(run campaign.Run) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.runs.Save(ctx, run); err != nil {
		r.log.Error("saving campaign run", "run", run.ID, "error", err)
	}

	if r.mqtt == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"run_id":        run.ID,
		"attempts":      run.Attempts,
		"planned":       run.Planned,
		"successes":     len(run.Successes),
		"cancelled":     run.Cancelled,
		"stopped_early": run.StoppedEarly,
		"io_errors":     run.IOErrors,
		"elapsed_ms":    run.Elapsed.Milliseconds(),
		"started_at":    run.StartedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		r.log.Error("marshalling campaign result", "run", run.ID, "error", err)
		return
	}
	if err := r.mqtt.Publish(mqtt.Topics{}.CampaignResult(run.ID), payload, byte(r.cfg.MQTT.QoS), true); err != nil {
		r.log.Warn("publishing campaign result", "run", run.ID, "error", err)
	}

	for _, s := range run.Successes {
		sp, err := json.Marshal(map[string]any{
			"run_id":  run.ID,
			"offset":  s.Offset,
			"width":   s.Width,
			"attempt": s.Attempt,
			"matched": s.Matched,
			"at":      s.At.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			continue
		}
		//nolint:errcheck // success events are also persisted in the runlog
		r.mqtt.Publish(mqtt.Topics{}.CampaignSuccess(run.ID), sp, byte(r.cfg.MQTT.QoS), false)
	}
}
