package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/slopetrace/slopetrace/internal/adapters/http/api"
	"github.com/slopetrace/slopetrace/internal/adapters/mq/rabbit"
	"github.com/slopetrace/slopetrace/internal/adapters/repository"
	service "github.com/slopetrace/slopetrace/internal/app"
	"github.com/slopetrace/slopetrace/internal/config"
	"github.com/slopetrace/slopetrace/internal/domain/model"
	"github.com/slopetrace/slopetrace/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeBroker routes published bodies to consumers of the same queue name,
// standing in for a broker within one process.
type fakeBroker struct {
	mu     sync.Mutex
	queues map[string]chan amqp.Delivery
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{queues: make(map[string]chan amqp.Delivery)}
}

func (b *fakeBroker) queue(name string) chan amqp.Delivery {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[name]
	if !ok {
		q = make(chan amqp.Delivery, 1000)
		b.queues[name] = q
	}
	return q
}

type fakeChannel struct {
	broker *fakeBroker

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func (c *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	c.broker.queue(name)
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	c.broker.queue(key) <- amqp.Delivery{Body: msg.Body}
	return nil
}

func (c *fakeChannel) ConsumeWithContext(ctx context.Context, queue, _ string, _, _, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	src := c.broker.queue(queue)
	out := make(chan amqp.Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case d := <-src:
				select {
				case out <- d:
				case <-ctx.Done():
					return
				case <-c.done:
					return
				}
			case <-ctx.Done():
				return
			case <-c.done:
				return
			}
		}
	}()
	return out, nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return nil
}

func (c *fakeChannel) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakeOpener struct {
	broker *fakeBroker
}

func (o *fakeOpener) OpenChannel() (rabbit.Channel, error) {
	return &fakeChannel{broker: o.broker, done: make(chan struct{})}, nil
}

func newTestService(t *testing.T, opts ...service.Option) (*service.Service, func()) {
	t.Helper()

	mr := miniredis.RunT(t)
	store := repository.NewRedisStore("",
		repository.WithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})))

	base := []service.Option{
		service.WithChannelOpener(&fakeOpener{broker: newFakeBroker()}),
		service.WithStore(store),
		service.WithConsumerCount(2),
		service.WithAggregationWorkers(2),
		service.WithBufferSize(100),
	}
	svc := service.New(append(base, opts...)...)

	ctx := context.Background()
	if err := svc.Start(ctx); err != nil {
		t.Fatal(err)
	}
	return svc, func() { svc.Stop(ctx) }
}

func rideEvent(skierID int) model.LiftRideEvent {
	return model.LiftRideEvent{
		ResortID: 1, SeasonID: 2024, DayID: 1, SkierID: skierID,
		LiftRide: model.LiftRide{LiftID: 5, Time: 100},
	}
}

func eventually(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestServicePipeline(t *testing.T) {
	Convey("Given a running service in the combined role", t, func() {
		svc, stop := newTestService(t)
		defer stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc, svc).Register(context.Background(), mux)

		post := func(path, body string) *httptest.ResponseRecorder {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
			return rec
		}
		get := func(path string) *httptest.ResponseRecorder {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			return rec
		}

		Convey("A posted ride flows through to the aggregates", func() {
			rec := post("/skiers/1/seasons/2024/days/1/skiers/123", `{"liftID": 5, "time": 100}`)
			So(rec.Code, ShouldEqual, http.StatusCreated)

			// liftID 5 contributes 50 vertical.
			ok := eventually(2*time.Second, func() bool {
				return get("/skiers/1/seasons/2024/days/1/skiers/123").Body.String() == "50"
			})
			So(ok, ShouldBeTrue)

			So(get("/resorts/1/seasons/2024/days/1/skiers").Body.String(),
				ShouldContainSubstring, `"uniqueSkiers":1`)
			So(get("/skiers/123/vertical?resort=1&season=2024").Body.String(),
				ShouldContainSubstring, `"totalVert":50`)
			So(get("/skiers/123/vertical?resort=1").Body.String(),
				ShouldContainSubstring, `"totalVert":50`)
		})

		Convey("Rides accumulate across skiers and lifts", func() {
			So(post("/skiers/1/seasons/2024/days/1/skiers/201", `{"liftID": 10, "time": 10}`).Code,
				ShouldEqual, http.StatusCreated)
			So(post("/skiers/1/seasons/2024/days/1/skiers/201", `{"liftID": 20, "time": 20}`).Code,
				ShouldEqual, http.StatusCreated)
			So(post("/skiers/1/seasons/2024/days/1/skiers/202", `{"liftID": 30, "time": 30}`).Code,
				ShouldEqual, http.StatusCreated)

			ok := eventually(2*time.Second, func() bool {
				return get("/skiers/1/seasons/2024/days/1/skiers/201").Body.String() == "300"
			})
			So(ok, ShouldBeTrue)

			So(get("/resorts/1/seasons/2024/days/1/skiers").Body.String(),
				ShouldContainSubstring, `"uniqueSkiers":2`)
		})

		Convey("Reads before any write report missing data", func() {
			So(get("/skiers/9/seasons/2024/days/9/skiers/999").Body.String(),
				ShouldEqual, "Data not found")
			So(get("/resorts/9/seasons/2024/days/9/skiers").Body.String(),
				ShouldEqual, "Data not found")
		})
	})
}

func TestServiceRoles(t *testing.T) {
	Convey("Given role-restricted services", t, func() {
		Convey("A gateway-only service publishes but runs no consumers", func() {
			svc, stop := newTestService(t, service.WithRole(config.RoleGateway))
			defer stop()

			stats := svc.GetStats()
			So(stats["role"], ShouldEqual, config.RoleGateway)
			So(stats, ShouldNotContainKey, "bufferLength")

			err := svc.Publish(context.Background(), rideEvent(1))
			So(err, ShouldBeNil)
		})

		Convey("A consumer-only service refuses to publish", func() {
			svc, stop := newTestService(t, service.WithRole(config.RoleConsumer))
			defer stop()

			err := svc.Publish(context.Background(), rideEvent(1))
			So(err, ShouldEqual, service.ErrNotStarted)
		})

		Convey("An unknown role fails startup", func() {
			svc := service.New(service.WithRole("sidecar"))
			err := svc.Start(context.Background())
			So(err, ShouldWrap, service.ErrUnknownRole)
		})
	})
}

func TestServiceStopDrains(t *testing.T) {
	Convey("Given a service with buffered work at shutdown", t, func() {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		store := repository.NewRedisStore("", repository.WithClient(client))

		svc := service.New(
			service.WithChannelOpener(&fakeOpener{broker: newFakeBroker()}),
			service.WithStore(store),
			service.WithConsumerCount(2),
			service.WithAggregationWorkers(2),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		for i := 0; i < 20; i++ {
			So(svc.Publish(ctx, rideEvent(i)), ShouldBeNil)
		}

		ok := eventually(2*time.Second, func() bool {
			n, err := store.UniqueSkiers(ctx, 1, 2024, 1)
			return err == nil && n == 20
		})
		So(ok, ShouldBeTrue)
		svc.Stop(ctx)

		// Stop closes the injected store; verify persistence through a fresh
		// client against the same backing instance.
		after := repository.NewRedisStore("",
			repository.WithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})))
		defer after.Close()
		n, err := after.UniqueSkiers(ctx, 1, 2024, 1)
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 20)
	})
}
