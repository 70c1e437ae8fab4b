package codec

import (
	"context"
	"fmt"
	"time"

	"github.com/danielpatrickdp/tray-ico/go-controller/internal/physics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// DefaultCallTimeout bounds each physics RPC. The tick loop has no other deadline.
const DefaultCallTimeout = 2 * time.Second

// #region physics-server
type physicsHandler interface {
	getBody(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	setVelocity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	setPosition(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	step(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var physicsServiceDesc = grpc.ServiceDesc{
	ServiceName: PhysicsServiceName,
	HandlerType: (*physicsHandler)(nil),
	Methods: []grpc.MethodDesc{
		unary(PhysicsServiceName, "GetBody", func(srv any, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
			return srv.(physicsHandler).getBody(ctx, req)
		}),
		unary(PhysicsServiceName, "SetVelocity", func(srv any, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
			return srv.(physicsHandler).setVelocity(ctx, req)
		}),
		unary(PhysicsServiceName, "SetPosition", func(srv any, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
			return srv.(physicsHandler).setPosition(ctx, req)
		}),
		unary(PhysicsServiceName, "Step", func(srv any, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
			return srv.(physicsHandler).step(ctx, req)
		}),
	},
	Metadata: "trayico/physics",
}

// PhysicsServer exposes a physics.Engine over gRPC.
type PhysicsServer struct {
	engine physics.Engine
}

// NewPhysicsServer wraps engine. The engine must be safe for concurrent use.
func NewPhysicsServer(engine physics.Engine) *PhysicsServer {
	return &PhysicsServer{engine: engine}
}

// Register adds the physics service to r.
func (s *PhysicsServer) Register(r grpc.ServiceRegistrar) {
	r.RegisterService(&physicsServiceDesc, s)
}

func (s *PhysicsServer) getBody(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	b, err := bodyField(req)
	if err != nil {
		return nil, badRequest(err)
	}
	pos, err := s.engine.Position(b)
	if err != nil {
		return nil, internalErr(err)
	}
	vel, err := s.engine.Velocity(b)
	if err != nil {
		return nil, internalErr(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"x":  number(pos.X),
		"y":  number(pos.Y),
		"vx": number(vel.X),
		"vy": number(vel.Y),
	}}, nil
}

func (s *PhysicsServer) setVelocity(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	b, v, err := bodyVec(req)
	if err != nil {
		return nil, badRequest(err)
	}
	if err := s.engine.SetVelocity(b, v); err != nil {
		return nil, internalErr(err)
	}
	return &structpb.Struct{}, nil
}

func (s *PhysicsServer) setPosition(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	b, p, err := bodyVec(req)
	if err != nil {
		return nil, badRequest(err)
	}
	if err := s.engine.SetPosition(b, p); err != nil {
		return nil, internalErr(err)
	}
	return &structpb.Struct{}, nil
}

func (s *PhysicsServer) step(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	dt, err := numberField(req, "dt")
	if err != nil {
		return nil, badRequest(err)
	}
	if err := s.engine.Step(dt); err != nil {
		return nil, badRequest(err)
	}
	return &structpb.Struct{}, nil
}

func bodyField(req *structpb.Struct) (physics.Body, error) {
	name, err := stringField(req, "body")
	if err != nil {
		return 0, err
	}
	return physics.ParseBody(name)
}

func bodyVec(req *structpb.Struct) (physics.Body, physics.Vec2, error) {
	b, err := bodyField(req)
	if err != nil {
		return 0, physics.Vec2{}, err
	}
	x, err := numberField(req, "x")
	if err != nil {
		return 0, physics.Vec2{}, err
	}
	y, err := numberField(req, "y")
	if err != nil {
		return 0, physics.Vec2{}, err
	}
	return b, physics.Vec2{X: x, Y: y}, nil
}
// #endregion physics-server

// #region physics-client
// PhysicsClient is a physics.Engine backed by a remote PhysicsServer.
type PhysicsClient struct {
	conn    *grpc.ClientConn
	cc      grpc.ClientConnInterface
	timeout time.Duration
}

// NewPhysicsClient connects to a physics server at addr.
func NewPhysicsClient(addr string) (*PhysicsClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &PhysicsClient{conn: conn, cc: conn, timeout: DefaultCallTimeout}, nil
}

// NewPhysicsClientWithConn uses an existing connection. Close is then the caller's job.
func NewPhysicsClientWithConn(cc grpc.ClientConnInterface) *PhysicsClient {
	return &PhysicsClient{cc: cc, timeout: DefaultCallTimeout}
}

// Close shuts down the gRPC connection if this client opened it.
func (c *PhysicsClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *PhysicsClient) call(method string, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	resp, err := invoke(ctx, c.cc, PhysicsServiceName, method, req)
	if err != nil {
		return nil, fmt.Errorf("physics %s rpc: %w", method, err)
	}
	return resp, nil
}

func (c *PhysicsClient) body(b physics.Body) (pos, vel physics.Vec2, err error) {
	resp, err := c.call("GetBody", &structpb.Struct{Fields: map[string]*structpb.Value{
		"body": structpb.NewStringValue(b.String()),
	}})
	if err != nil {
		return pos, vel, err
	}
	for _, f := range []struct {
		key string
		dst *float64
	}{{"x", &pos.X}, {"y", &pos.Y}, {"vx", &vel.X}, {"vy", &vel.Y}} {
		if *f.dst, err = numberField(resp, f.key); err != nil {
			return pos, vel, fmt.Errorf("physics GetBody response: %w", err)
		}
	}
	return pos, vel, nil
}

func (c *PhysicsClient) Position(b physics.Body) (physics.Vec2, error) {
	pos, _, err := c.body(b)
	return pos, err
}

func (c *PhysicsClient) Velocity(b physics.Body) (physics.Vec2, error) {
	_, vel, err := c.body(b)
	return vel, err
}

func (c *PhysicsClient) SetVelocity(b physics.Body, v physics.Vec2) error {
	_, err := c.call("SetVelocity", vecRequest(b, v))
	return err
}

func (c *PhysicsClient) SetPosition(b physics.Body, p physics.Vec2) error {
	_, err := c.call("SetPosition", vecRequest(b, p))
	return err
}

func (c *PhysicsClient) Step(dt float64) error {
	_, err := c.call("Step", &structpb.Struct{Fields: map[string]*structpb.Value{"dt": number(dt)}})
	return err
}

func vecRequest(b physics.Body, v physics.Vec2) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"body": structpb.NewStringValue(b.String()),
		"x":    number(v.X),
		"y":    number(v.Y),
	}}
}
// #endregion physics-client
