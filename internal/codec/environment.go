package codec

import (
	"context"
	"fmt"
	"sync"

	"github.com/danielpatrickdp/tray-ico/go-controller/internal/env"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region env-server
type environmentHandler interface {
	reset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	step(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var environmentServiceDesc = grpc.ServiceDesc{
	ServiceName: EnvironmentServiceName,
	HandlerType: (*environmentHandler)(nil),
	Methods: []grpc.MethodDesc{
		unary(EnvironmentServiceName, "Reset", func(srv any, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
			return srv.(environmentHandler).reset(ctx, req)
		}),
		unary(EnvironmentServiceName, "Step", func(srv any, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
			return srv.(environmentHandler).step(ctx, req)
		}),
	},
	Metadata: "trayico/environment",
}

// EnvServer exposes a DeliveryEnv to an external trainer. Calls are serialized
// because a reset or step spans several physics operations.
type EnvServer struct {
	mu  sync.Mutex
	env *env.DeliveryEnv
}

// NewEnvServer wraps e.
func NewEnvServer(e *env.DeliveryEnv) *EnvServer {
	return &EnvServer{env: e}
}

// Register adds the environment service to r.
func (s *EnvServer) Register(r grpc.ServiceRegistrar) {
	r.RegisterService(&environmentServiceDesc, s)
}

func (s *EnvServer) reset(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obs, info, err := s.env.Reset()
	if err != nil {
		return nil, internalErr(err)
	}
	iv, err := infoValue(info)
	if err != nil {
		return nil, internalErr(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"observation": numberList(obs.Vector()),
		"info":        iv,
	}}, nil
}

func (s *EnvServer) step(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	action, err := numberField(req, "action")
	if err != nil {
		return nil, badRequest(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.env.Step(action)
	if err != nil {
		return nil, internalErr(err)
	}
	iv, err := infoValue(res.Info)
	if err != nil {
		return nil, internalErr(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"observation": numberList(res.Observation.Vector()),
		"reward":      number(res.Reward),
		"terminated":  structpb.NewBoolValue(res.Terminated),
		"truncated":   structpb.NewBoolValue(res.Truncated),
		"info":        iv,
	}}, nil
}
// #endregion env-server

// #region env-client
// EnvClient drives a remote EnvServer.
type EnvClient struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// NewEnvClient connects to an environment server at addr.
func NewEnvClient(addr string) (*EnvClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &EnvClient{conn: conn, cc: conn}, nil
}

// NewEnvClientWithConn uses an existing connection.
func NewEnvClientWithConn(cc grpc.ClientConnInterface) *EnvClient {
	return &EnvClient{cc: cc}
}

// Close shuts down the gRPC connection if this client opened it.
func (c *EnvClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Reset starts a new delivery episode.
func (c *EnvClient) Reset(ctx context.Context) (env.Observation, map[string]any, error) {
	resp, err := invoke(ctx, c.cc, EnvironmentServiceName, "Reset", nil)
	if err != nil {
		return env.Observation{}, nil, fmt.Errorf("env reset rpc: %w", err)
	}
	obs, err := observationField(resp)
	if err != nil {
		return env.Observation{}, nil, fmt.Errorf("env reset response: %w", err)
	}
	return obs, infoMap(resp), nil
}

// Step applies one action.
func (c *EnvClient) Step(ctx context.Context, action float64) (env.StepResult, error) {
	resp, err := invoke(ctx, c.cc, EnvironmentServiceName, "Step", &structpb.Struct{
		Fields: map[string]*structpb.Value{"action": number(action)},
	})
	if err != nil {
		return env.StepResult{}, fmt.Errorf("env step rpc: %w", err)
	}

	var res env.StepResult
	if res.Observation, err = observationField(resp); err != nil {
		return env.StepResult{}, fmt.Errorf("env step response: %w", err)
	}
	if res.Reward, err = numberField(resp, "reward"); err != nil {
		return env.StepResult{}, fmt.Errorf("env step response: %w", err)
	}
	if res.Terminated, err = boolField(resp, "terminated"); err != nil {
		return env.StepResult{}, fmt.Errorf("env step response: %w", err)
	}
	if res.Truncated, err = boolField(resp, "truncated"); err != nil {
		return env.StepResult{}, fmt.Errorf("env step response: %w", err)
	}
	res.Info = infoMap(resp)
	return res, nil
}

func observationField(resp *structpb.Struct) (env.Observation, error) {
	vec, err := numberListField(resp, "observation")
	if err != nil {
		return env.Observation{}, err
	}
	return env.ObservationFromVector(vec)
}
// #endregion env-client
