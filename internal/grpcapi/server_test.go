package grpcapi_test

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"go.uber.org/goleak"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/grpcapi"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/whatsapp"
)

type fakeDB struct{ down atomic.Bool }

func (d *fakeDB) PingContext(context.Context) error {
	if d.down.Load() {
		return errors.New("database is closed")
	}
	return nil
}

type staticSender struct{ ready bool }

func (staticSender) Send(context.Context, string, string) error { return nil }
func (s staticSender) Status() whatsapp.Status {
	return whatsapp.Status{Ready: s.ready, Service: "static"}
}

func startServer(t *testing.T, d grpcapi.Dependencies) (*grpcapi.Server, healthpb.HealthClient) {
	t.Helper()

	d.Logger = log.New(io.Discard, "", 0)
	srv := grpcapi.NewServer(d)

	lis := bufconn.Listen(1 << 20)
	served := make(chan struct{})
	go func() {
		defer close(served)
		_ = srv.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		<-served
	})
	return srv, healthpb.NewHealthClient(conn)
}

func check(t *testing.T, c healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := c.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("Check(%q): %v", service, err)
	}
	return resp.GetStatus()
}

func TestHealth_ServingWhenDBAndSenderReady(t *testing.T) {
	_, c := startServer(t, grpcapi.Dependencies{DB: &fakeDB{}, Sender: staticSender{ready: true}})

	if got := check(t, c, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("overall = %v", got)
	}
	if got := check(t, c, grpcapi.WhatsappService); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("whatsapp = %v", got)
	}
}

func TestHealth_SenderNotReady(t *testing.T) {
	_, c := startServer(t, grpcapi.Dependencies{DB: &fakeDB{}, Sender: staticSender{ready: false}})

	if got := check(t, c, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("overall should only follow the db, got %v", got)
	}
	if got := check(t, c, grpcapi.WhatsappService); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("whatsapp = %v", got)
	}
}

func TestHealth_RefreshPicksUpDBOutage(t *testing.T) {
	db := &fakeDB{}
	clk := testclock.NewClock(time.Now())
	_, c := startServer(t, grpcapi.Dependencies{
		DB:       db,
		Sender:   staticSender{ready: true},
		Clock:    clk,
		Interval: 10 * time.Second,
	})

	db.down.Store(true)
	if err := clk.WaitAdvance(10*time.Second, time.Second, 1); err != nil {
		t.Fatalf("advance: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for check(t, c, "") != healthpb.HealthCheckResponse_NOT_SERVING {
		if time.Now().After(deadline) {
			t.Fatal("db outage not reflected")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHealth_ShutdownStopsWatcher(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("google.golang.org/grpc/internal/grpcsync.(*CallbackSerializer).run"),
	)

	srv := grpcapi.NewServer(grpcapi.Dependencies{Logger: log.New(io.Discard, "", 0), DB: &fakeDB{}})
	lis := bufconn.Listen(1 << 10)
	served := make(chan struct{})
	go func() {
		defer close(served)
		_ = srv.Serve(lis)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	srv.Shutdown(ctx)
	<-served
}
