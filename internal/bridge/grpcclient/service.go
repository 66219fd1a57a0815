// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package grpcclient

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Fully qualified names of the GraphQL service. Requests and responses are
// google.protobuf.Struct values:
//
//	request:  {"document": string, "operationName": string, "variables": object}
//	response: {"data": object|null, "errors": [{"message", "path", "extensions"}]}
const (
	ServiceName     = "graphwatch.v1.GraphQL"
	ExecuteMethod   = "/graphwatch.v1.GraphQL/Execute"
	SubscribeMethod = "/graphwatch.v1.GraphQL/Subscribe"
)

// GraphQLServer is the server API of the GraphQL service.
type GraphQLServer interface {
	// Execute answers a query or mutation with one response.
	Execute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// Subscribe answers a subscription or live query with a response per change.
	Subscribe(req *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error
}

// RegisterGraphQLServer registers srv with s.
func RegisterGraphQLServer(s grpc.ServiceRegistrar, srv GraphQLServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func executeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GraphQLServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ExecuteMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GraphQLServer).Execute(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(GraphQLServer).Subscribe(in, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

var subscribeStreamDesc = grpc.StreamDesc{
	StreamName:    "Subscribe",
	Handler:       subscribeHandler,
	ServerStreams: true,
}

// ServiceDesc is the grpc.ServiceDesc for the GraphQL service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GraphQLServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Execute", Handler: executeHandler},
	},
	Streams:  []grpc.StreamDesc{subscribeStreamDesc},
	Metadata: "graphwatch/v1/graphql.proto",
}
