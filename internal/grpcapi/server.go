// Package grpcapi exposes the standard gRPC health service so orchestrators
// can probe the database and the WhatsApp bridge.
package grpcapi

import (
	"context"
	"log"
	"net"
	"time"

	"github.com/juju/clock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/whatsapp"
)

// WhatsappService is the health service name covering the messaging bridge.
const WhatsappService = "timetracker.whatsapp"

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Dependencies struct {
	Logger   *log.Logger
	Addr     string
	DB       Pinger
	Sender   whatsapp.Sender
	Clock    clock.Clock
	Interval time.Duration // between health refreshes, 30s by default
}

type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	logger     *log.Logger
	addr       string
	db         Pinger
	sender     whatsapp.Sender
	clock      clock.Clock
	interval   time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

func NewServer(d Dependencies) *Server {
	if d.Clock == nil {
		d.Clock = clock.WallClock
	}
	if d.Interval <= 0 {
		d.Interval = 30 * time.Second
	}

	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	s := &Server{
		grpcServer: gs,
		health:     hs,
		logger:     d.Logger,
		addr:       d.Addr,
		db:         d.DB,
		sender:     d.Sender,
		clock:      d.Clock,
		interval:   d.Interval,
		done:       make(chan struct{}),
	}
	s.Refresh(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.watch(ctx)
	return s
}

// Start listens on Addr and serves until Shutdown.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

// Serve serves on lis until Shutdown.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// Shutdown stops the refresh loop, marks every service NOT_SERVING, then stops gracefully, falling
// back to a hard stop when ctx expires.
func (s *Server) Shutdown(ctx context.Context) {
	s.cancel()
	<-s.done
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		s.grpcServer.Stop()
		<-stopped
	}
}

// Refresh recomputes the serving status. The overall service ("") follows
// the database; WhatsappService also needs a ready sender.
func (s *Server) Refresh(ctx context.Context) {
	dbOK := true
	if s.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := s.db.PingContext(pingCtx); err != nil {
			s.logger.Printf("health: db ping failed: %v", err)
			dbOK = false
		}
	}
	senderOK := s.sender != nil && s.sender.Status().Ready

	s.health.SetServingStatus("", servingStatus(dbOK))
	s.health.SetServingStatus(WhatsappService, servingStatus(dbOK && senderOK))
}

func (s *Server) watch(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(s.interval):
			s.Refresh(ctx)
		}
	}
}

func servingStatus(ok bool) healthpb.HealthCheckResponse_ServingStatus {
	if ok {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}
