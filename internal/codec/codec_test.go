package codec

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/danielpatrickdp/tray-ico/go-controller/internal/env"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/physics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region helpers
// serve starts an in-memory gRPC server with the given registrations and
// returns a client connection to it.
func serve(t *testing.T, register func(grpc.ServiceRegistrar)) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	register(srv)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufnet: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func physicsPair(t *testing.T) (*PhysicsClient, *physics.Sim) {
	t.Helper()
	sim := physics.NewSim(physics.DefaultSimConfig())
	conn := serve(t, NewPhysicsServer(sim).Register)
	return NewPhysicsClientWithConn(conn), sim
}

type failingEngine struct {
	physics.Engine
}

func (failingEngine) Position(physics.Body) (physics.Vec2, error) {
	return physics.Vec2{}, errors.New("engine offline")
}

// #endregion helpers

// #region physics-tests
func TestPhysics_GetBody(t *testing.T) {
	client, sim := physicsPair(t)
	sim.SetVelocity(physics.Payload, physics.Vec2{X: 12.5, Y: -1})

	pos, err := client.Position(physics.Payload)
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if pos != (physics.Vec2{X: 100, Y: 75}) {
		t.Errorf("expected payload home, got %+v", pos)
	}
	vel, err := client.Velocity(physics.Payload)
	if err != nil {
		t.Fatalf("Velocity: %v", err)
	}
	if vel != (physics.Vec2{X: 12.5, Y: -1}) {
		t.Errorf("expected velocity to cross the wire intact, got %+v", vel)
	}
}

func TestPhysics_SetAndStep(t *testing.T) {
	client, sim := physicsPair(t)

	if err := client.SetPosition(physics.Tray, physics.Vec2{X: 200, Y: 25}); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	if err := client.SetVelocity(physics.Tray, physics.Vec2{X: 60}); err != nil {
		t.Fatalf("SetVelocity: %v", err)
	}
	if err := client.Step(0.5); err != nil {
		t.Fatalf("Step: %v", err)
	}

	tp, _ := sim.Position(physics.Tray)
	if tp.X != 230 {
		t.Fatalf("expected remote step to move tray to 230, got %v", tp.X)
	}
}

func TestPhysics_ResetBodiesRemote(t *testing.T) {
	client, sim := physicsPair(t)
	sim.SetPosition(physics.Tray, physics.Vec2{X: 600, Y: 25})

	cfg := sim.Config()
	if err := physics.ResetBodies(client, cfg.TrayHome, cfg.PayloadHome); err != nil {
		t.Fatalf("ResetBodies over gRPC: %v", err)
	}
	tp, _ := sim.Position(physics.Tray)
	if tp != cfg.TrayHome {
		t.Fatalf("expected tray home, got %+v", tp)
	}
}

func TestPhysics_InvalidStep(t *testing.T) {
	client, _ := physicsPair(t)

	err := client.Step(0)
	if err == nil {
		t.Fatal("expected error for zero dt")
	}
	if status.Code(errors.Unwrap(err)) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestPhysics_EngineFailure(t *testing.T) {
	conn := serve(t, NewPhysicsServer(failingEngine{}).Register)
	client := NewPhysicsClientWithConn(conn)

	_, err := client.Position(physics.Tray)
	if status.Code(errors.Unwrap(err)) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
}

func TestPhysics_UnknownBodyRejected(t *testing.T) {
	_, sim := physicsPair(t)
	conn := serve(t, NewPhysicsServer(sim).Register)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := invoke(ctx, conn, PhysicsServiceName, "GetBody", &structpb.Struct{
		Fields: map[string]*structpb.Value{"body": structpb.NewStringValue("lid")},
	})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestPhysicsClient_CloseWithoutOwnConn(t *testing.T) {
	client, _ := physicsPair(t)
	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewPhysicsClient(t *testing.T) {
	client, err := NewPhysicsClient("localhost:0")
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}
	defer client.Close()
}

// #endregion physics-tests

// #region env-tests
func envPair(t *testing.T) (*EnvClient, *physics.Sim) {
	t.Helper()
	sim := physics.NewSim(physics.DefaultSimConfig())
	conn := serve(t, NewEnvServer(env.New(sim, env.DefaultEnvConfig())).Register)
	return NewEnvClientWithConn(conn), sim
}

func TestEnv_ResetAndStep(t *testing.T) {
	client, _ := envPair(t)
	ctx := context.Background()

	obs, info, err := client.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if obs != (env.Observation{TrayX: 100, PayloadX: 100}) {
		t.Fatalf("unexpected reset observation %+v", obs)
	}
	if info == nil {
		t.Fatal("expected non-nil info")
	}

	res, err := client.Step(ctx, 30)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if res.Observation.TrayVX != 300 {
		t.Errorf("expected tray vx 300, got %v", res.Observation.TrayVX)
	}
	if res.Terminated || res.Truncated || res.Reward != 0 {
		t.Errorf("expected a quiet step, got %+v", res)
	}
}

func TestEnv_TerminalStep(t *testing.T) {
	client, sim := envPair(t)
	sim.SetPosition(physics.Payload, physics.Vec2{X: 50, Y: 75})

	res, err := client.Step(context.Background(), 0)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if res.Reward != -1 || !res.Terminated {
		t.Fatalf("expected failed delivery, got %+v", res)
	}
}

func TestEnv_MissingAction(t *testing.T) {
	_, sim := envPair(t)
	conn := serve(t, NewEnvServer(env.New(sim, env.DefaultEnvConfig())).Register)

	_, err := invoke(context.Background(), conn, EnvironmentServiceName, "Step", nil)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

// #endregion env-tests

// #region field-tests
func TestFieldHelpers(t *testing.T) {
	s := &structpb.Struct{Fields: map[string]*structpb.Value{
		"n":    number(1.5),
		"s":    structpb.NewStringValue("tray"),
		"b":    structpb.NewBoolValue(true),
		"list": numberList([]float64{1, 2, 3}),
	}}

	if n, err := numberField(s, "n"); err != nil || n != 1.5 {
		t.Errorf("numberField: %v, %v", n, err)
	}
	if _, err := numberField(s, "s"); err == nil {
		t.Error("numberField: expected type error")
	}
	if _, err := numberField(s, "absent"); err == nil {
		t.Error("numberField: expected missing error")
	}
	if str, err := stringField(s, "s"); err != nil || str != "tray" {
		t.Errorf("stringField: %v, %v", str, err)
	}
	if b, err := boolField(s, "b"); err != nil || !b {
		t.Errorf("boolField: %v, %v", b, err)
	}
	list, err := numberListField(s, "list")
	if err != nil || len(list) != 3 || list[2] != 3 {
		t.Errorf("numberListField: %v, %v", list, err)
	}
	if _, err := numberListField(s, "n"); err == nil {
		t.Error("numberListField: expected type error")
	}
	if m := infoMap(s); len(m) != 0 {
		t.Errorf("expected empty info map, got %v", m)
	}
}

// #endregion field-tests
