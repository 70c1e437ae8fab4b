package codec

import (
	"context"
	"fmt"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Message bodies on both services are google.protobuf.Struct, so no generated
// stubs are needed on either side of the bridge.

const (
	PhysicsServiceName     = "trayico.Physics"
	EnvironmentServiceName = "trayico.Environment"
)

// #region method-desc
type structCall func(srv any, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// unary builds a MethodDesc for a Struct-in, Struct-out method.
func unary(service, method string, call structCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(service, method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv, ctx, req.(*structpb.Struct))
			})
		},
	}
}

func fullMethod(service, method string) string {
	return "/" + service + "/" + method
}

// invoke performs one unary call and returns the decoded response body.
func invoke(ctx context.Context, cc grpc.ClientConnInterface, service, method string, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	resp := new(structpb.Struct)
	if err := cc.Invoke(ctx, fullMethod(service, method), req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
// #endregion method-desc

// #region fields
func number(v float64) *structpb.Value {
	return structpb.NewNumberValue(v)
}

func numberList(vs []float64) *structpb.Value {
	list := make([]*structpb.Value, len(vs))
	for i, v := range vs {
		list[i] = structpb.NewNumberValue(v)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: list})
}

func numberField(s *structpb.Struct, key string) (float64, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, fmt.Errorf("missing field %q", key)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("field %q is not a number", key)
	}
	if math.IsNaN(n.NumberValue) {
		return 0, fmt.Errorf("field %q is NaN", key)
	}
	return n.NumberValue, nil
}

func stringField(s *structpb.Struct, key string) (string, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return "", fmt.Errorf("missing field %q", key)
	}
	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("field %q is not a string", key)
	}
	return str.StringValue, nil
}

func boolField(s *structpb.Struct, key string) (bool, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return false, fmt.Errorf("missing field %q", key)
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, fmt.Errorf("field %q is not a bool", key)
	}
	return b.BoolValue, nil
}

func numberListField(s *structpb.Struct, key string) ([]float64, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil, fmt.Errorf("missing field %q", key)
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("field %q is not a list", key)
	}
	out := make([]float64, len(list.GetValues()))
	for i, item := range list.GetValues() {
		n, ok := item.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("field %q[%d] is not a number", key, i)
		}
		out[i] = n.NumberValue
	}
	return out, nil
}

// infoMap converts the optional "info" field back to a plain map.
func infoMap(s *structpb.Struct) map[string]any {
	if v, ok := s.GetFields()["info"]; ok && v.GetStructValue() != nil {
		return v.GetStructValue().AsMap()
	}
	return map[string]any{}
}

func infoValue(info map[string]any) (*structpb.Value, error) {
	st, err := structpb.NewStruct(info)
	if err != nil {
		return nil, fmt.Errorf("encode info: %w", err)
	}
	return structpb.NewStructValue(st), nil
}

func badRequest(err error) error {
	return status.Error(codes.InvalidArgument, err.Error())
}

func internalErr(err error) error {
	return status.Error(codes.Internal, err.Error())
}
// #endregion fields
