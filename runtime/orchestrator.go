package runtime

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"sus-lab/contract"
	"sus-lab/domain"
	"sus-lab/domain/event"
	"sus-lab/moderation"
	"sus-lab/runtime/workers"
)

//go:embed censored/*
var censoredFolder embed.FS

var _ contract.IOrchestrator = (*Orchestrator)(nil)

// Orchestrator wires the session loop, the event fanout and the telemetry
// worker under one supervisor, and fronts the session for the transport
// layer. It orchestrates the system without containing game rules.
type Orchestrator struct {
	log               *slog.Logger
	settings          Settings
	supervisor        contract.ISupervisor
	registry          contract.IRegistry
	progress          contract.ProgressStore
	catalog           domain.Catalog
	session           *Session
	bufferSize        int
	sinkTimeout       time.Duration
	telemetryInterval time.Duration
	charReplacement   rune
	rng               *rand.Rand
}

func NewOrchestrator(log *slog.Logger, supervisor *workers.Supervisor,
	registry *Registry, progress contract.ProgressStore,
	settings Settings, catalog domain.Catalog, rng *rand.Rand,
	bufferSize int, sinkTimeout, telemetryInterval time.Duration,
	charReplacement rune) *Orchestrator {
	return &Orchestrator{
		log:               log,
		settings:          settings,
		supervisor:        supervisor,
		registry:          registry,
		progress:          progress,
		catalog:           catalog,
		bufferSize:        bufferSize,
		sinkTimeout:       sinkTimeout,
		telemetryInterval: telemetryInterval,
		charReplacement:   charReplacement,
		rng:               rng,
	}
}

// Dispatch enqueues an inbound participant action for the session loop.
func (o *Orchestrator) Dispatch(cmd domain.Command) {
	if o.session == nil {
		o.log.Warn(fmt.Sprintf("Orchestrator not started, dropping %s", cmd.Kind()))
		return
	}
	o.session.Dispatch(cmd)
}

// RegisterParticipant attaches a connection's delivery sink. The join
// command itself is dispatched by the transport once the client announces
// its display name.
func (o *Orchestrator) RegisterParticipant(pID domain.ParticipantID, sink contract.EventSink) {
	o.registry.Subscribe(pID, sink)
}

// UnregisterParticipant detaches a closed connection.
func (o *Orchestrator) UnregisterParticipant(pID domain.ParticipantID) {
	o.registry.Unsubscribe(pID)
}

func (o *Orchestrator) Stats() contract.SessionStats {
	if o.session == nil {
		return contract.SessionStats{}
	}
	return o.session.Stats()
}

// Start initiates the orchestrator by preparing all components (moderation,
// session, pipeline) and then launching the supervisor. Heavy preparation
// (loading embedded files, building the Aho-Corasick automaton) happens
// before any worker runs.
func (o *Orchestrator) Start(ctx context.Context) error {
	moderator, err := o.prepareModeration("censored", o.charReplacement)
	if err != nil {
		return err
	}

	o.session = NewSession(o.log, o.settings, o.catalog, moderator,
		o.progress, o.rng, o.bufferSize)

	fanout, telemetry := o.preparePipeline()

	o.supervisor.Add(o.session)
	o.supervisor.Add(fanout)
	o.supervisor.Add(telemetry)

	o.log.Info("Starting orchestrator and all supervised workers")
	go o.supervisor.Run(ctx)
	return nil
}

// prepareModeration loads censored words and builds the Aho-Corasick automaton.
func (o *Orchestrator) prepareModeration(path string, charReplacement rune) (moderation.Moderator, error) {
	loader := NewCensoredLoader(censoredFolder)
	data, err := loader.LoadAll(path)
	if err != nil {
		return moderation.Moderator{}, err
	}

	o.log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	o.log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))

	return moderation.NewModerator(data.Words, charReplacement)
}

// preparePipeline initializes the fanout and the telemetry tail behind it.
func (o *Orchestrator) preparePipeline() (contract.Worker, contract.Worker) {
	telemetryChan := make(chan event.DomainEvent, o.bufferSize)
	fanout := workers.NewEventFanout(o.log, o.registry,
		o.session.Events(), telemetryChan, nil, o.sinkTimeout)
	telemetry := workers.NewTelemetryWorker(o.log, o.telemetryInterval, telemetryChan)
	return fanout, telemetry
}

// Stop initiates a graceful shutdown of the orchestrator by canceling the
// supervision context, which signals every worker to stop.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
