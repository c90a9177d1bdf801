package workers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"sus-lab/contract"
	"sus-lab/domain/event"
	"sus-lab/mocks"
)

func TestEventFanout_Delivers_To_Permanent_And_Audience_Sinks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)

	permanentSink := mocks.NewMockEventSink(ctrl)
	connSink := mocks.NewMockEventSink(ctrl)
	audienceSinks := []contract.EventSink{connSink, connSink}

	fanout := NewEventFanout(testLogger(), mockRegistry,
		make(chan event.DomainEvent, 1), make(chan event.DomainEvent, 1),
		[]contract.EventSink{permanentSink}, 10*time.Second)

	evt := event.DomainEvent{Name: event.RosterUpdateType, Audience: event.ToAll()}

	// Given the registry resolves the audience to two connections
	mockRegistry.EXPECT().SinksFor(evt.Audience).Return(audienceSinks).Times(1)
	// Then the permanent sink and both connection sinks consume the event
	permanentSink.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)
	connSink.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(2)

	fanout.Fanout(context.Background(), evt)
}

func TestEventFanout_Sink_Error_Does_Not_Stop_Delivery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)

	broken := mocks.NewMockEventSink(ctrl)
	healthy := mocks.NewMockEventSink(ctrl)

	fanout := NewEventFanout(testLogger(), mockRegistry,
		make(chan event.DomainEvent, 1), make(chan event.DomainEvent, 1),
		nil, 10*time.Second)

	evt := event.DomainEvent{Name: event.ChatMessageType, Audience: event.ToAll()}

	mockRegistry.EXPECT().SinksFor(evt.Audience).
		Return([]contract.EventSink{broken, healthy}).Times(1)
	broken.EXPECT().Consume(gomock.Any(), evt).Return(context.DeadlineExceeded).Times(1)
	// The healthy sink still gets the event after the broken one failed
	healthy.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)

	fanout.Fanout(context.Background(), evt)
}

func TestEventFanout_Sink_Timeout_Bounds_A_Stuck_Sink(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	stuck := mocks.NewMockEventSink(ctrl)

	sinkTimeout := 20 * time.Millisecond
	fanout := NewEventFanout(testLogger(), mockRegistry,
		make(chan event.DomainEvent, 1), make(chan event.DomainEvent, 1),
		nil, sinkTimeout)

	evt := event.DomainEvent{Name: event.RoundTimerUpdateType, Audience: event.ToAll()}

	mockRegistry.EXPECT().SinksFor(evt.Audience).
		Return([]contract.EventSink{stuck}).Times(1)
	stuck.EXPECT().Consume(gomock.Any(), evt).
		DoAndReturn(func(ctx context.Context, e event.DomainEvent) error {
			<-ctx.Done()     // Waiting for the timeout to trigger cancellation
			return ctx.Err() // Sending back "context deadline exceeded"
		}).
		Times(1)

	start := time.Now()
	fanout.Fanout(context.Background(), evt)
	require.Less(t, time.Since(start), 1*time.Second)
}

func TestEventFanout_Run_Forwards_To_Telemetry(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)

	domainEvents := make(chan event.DomainEvent, 1)
	telemetryChan := make(chan event.DomainEvent, 1)
	fanout := NewEventFanout(testLogger(), mockRegistry,
		domainEvents, telemetryChan, nil, 10*time.Second)

	evt := event.DomainEvent{Name: event.PlayerKilledType, Audience: event.ToAll()}
	mockRegistry.EXPECT().SinksFor(evt.Audience).Return(nil).Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fanout.Run(ctx) }()

	domainEvents <- evt

	select {
	case forwarded := <-telemetryChan:
		req.Equal(evt.Name, forwarded.Name)
	case <-time.After(1 * time.Second):
		req.Fail("Event was not forwarded to telemetry")
	}

	cancel()
	req.ErrorIs(<-done, context.Canceled)
}
