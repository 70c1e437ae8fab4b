package main

import (
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/danielpatrickdp/tray-ico/go-controller/internal/codec"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/env"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/physics"
	"google.golang.org/grpc"
)

// #region main
// envserver exposes one simulator over gRPC: the raw physics service for a remote
// controller and the delivery environment for external trainers.
func main() {
	addr := envOr("ENV_ADDR", "localhost:50061")

	sim := physics.NewSim(physics.DefaultSimConfig())
	srv := grpc.NewServer()
	codec.NewPhysicsServer(sim).Register(srv)
	codec.NewEnvServer(env.New(sim, env.DefaultEnvConfig())).Register(srv)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("failed to listen on %s: %v", addr, err)
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Printf("[INFO] shutting down")
		srv.GracefulStop()
	}()

	log.Printf("[INFO] serving %s and %s on %s", codec.PhysicsServiceName, codec.EnvironmentServiceName, addr)
	if err := srv.Serve(lis); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
// #endregion helpers
