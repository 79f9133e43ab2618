package consumer

import (
	"context"
	"os"
	"testing"

	"github.com/slopetrace/slopetrace/internal/adapters/mq/queue"
	"github.com/slopetrace/slopetrace/internal/domain/model"
	"github.com/slopetrace/slopetrace/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeDelivery struct {
	body     []byte
	acked    int
	rejected int
	requeue  bool
}

func (d *fakeDelivery) Body() []byte { return d.body }

func (d *fakeDelivery) Ack() error {
	d.acked++
	return nil
}

func (d *fakeDelivery) Reject(requeue bool) error {
	d.rejected++
	d.requeue = requeue
	return nil
}

type fakeSink struct {
	tasks  []queue.Task
	accept bool
}

func (s *fakeSink) Enqueue(_ context.Context, t queue.Task) bool {
	if !s.accept {
		return false
	}
	s.tasks = append(s.tasks, t)
	return true
}

func encoded(t *testing.T) []byte {
	t.Helper()
	e := model.LiftRideEvent{ResortID: 1, SeasonID: 2024, DayID: 1, SkierID: 42,
		LiftRide: model.LiftRide{LiftID: 5, Time: 100}}
	b, err := e.Encode()
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func newHandlePool(sink Sink, policy AckPolicy) *Pool {
	return NewPool(nil, "lift_rides", sink, WithAckPolicy(policy))
}

func TestHandleDecodedEventReachesSink(t *testing.T) {
	sink := &fakeSink{accept: true}
	p := newHandlePool(sink, AckAuto)

	d := &fakeDelivery{body: encoded(t)}
	p.handle(context.Background(), p.log, d)

	if len(sink.tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(sink.tasks))
	}
	if sink.tasks[0].Event.SkierID != 42 {
		t.Errorf("unexpected event: %+v", sink.tasks[0].Event)
	}
	if sink.tasks[0].Ack != nil || sink.tasks[0].Reject != nil {
		t.Error("auto-ack tasks must not carry settle callbacks")
	}
}

func TestHandleOnSuccessAttachesCallbacks(t *testing.T) {
	sink := &fakeSink{accept: true}
	p := newHandlePool(sink, AckOnSuccess)

	d := &fakeDelivery{body: encoded(t)}
	p.handle(context.Background(), p.log, d)

	if len(sink.tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(sink.tasks))
	}
	tk := sink.tasks[0]
	if tk.Ack == nil || tk.Reject == nil {
		t.Fatal("on_success tasks must carry settle callbacks")
	}

	// The delivery is settled by the worker, not the consumer.
	if d.acked != 0 {
		t.Errorf("delivery settled prematurely: acked=%d", d.acked)
	}
	if err := tk.Ack(); err != nil {
		t.Fatal(err)
	}
	if d.acked != 1 {
		t.Errorf("expected 1 ack after worker settle, got %d", d.acked)
	}
}

func TestHandleDropsUndecodable(t *testing.T) {
	sink := &fakeSink{accept: true}
	p := newHandlePool(sink, AckAuto)

	p.handle(context.Background(), p.log, &fakeDelivery{body: []byte("{not json")})
	if len(sink.tasks) != 0 {
		t.Error("undecodable delivery must not reach the sink")
	}
}

func TestHandlePoisonSettledUnderManualAck(t *testing.T) {
	sink := &fakeSink{accept: true}
	p := newHandlePool(sink, AckOnSuccess)

	d := &fakeDelivery{body: []byte("{not json")}
	p.handle(context.Background(), p.log, d)
	if d.acked != 1 {
		t.Errorf("poison delivery must be acked away, acked=%d", d.acked)
	}
}

func TestHandleBufferFull(t *testing.T) {
	ctx := context.Background()

	t.Run("auto-ack loses the delivery", func(t *testing.T) {
		sink := &fakeSink{accept: false}
		p := newHandlePool(sink, AckAuto)
		d := &fakeDelivery{body: encoded(t)}
		p.handle(ctx, p.log, d)
		if d.rejected != 0 {
			t.Error("auto-ack deliveries cannot be rejected after settle")
		}
	})

	t.Run("on_success requeues", func(t *testing.T) {
		sink := &fakeSink{accept: false}
		p := newHandlePool(sink, AckOnSuccess)
		d := &fakeDelivery{body: encoded(t)}
		p.handle(ctx, p.log, d)
		if d.rejected != 1 || !d.requeue {
			t.Errorf("expected requeueing reject, rejected=%d requeue=%v", d.rejected, d.requeue)
		}
	})
}
