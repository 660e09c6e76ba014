// Package grpcstore exposes a store.Store as the usergraph.RecordService
// gRPC service and consumes it through a pooled client.
//
// Every method takes and returns a google.protobuf.Struct:
//
//	Find   {collection, id}             -> record
//	List   {collection, filter}         -> {records: [record...]}
//	Create {collection, record}         -> record
//	Update {collection, id, record}     -> record
//	Delete {collection, id}             -> {id}
//
// store.ErrNotFound travels as codes.NotFound and store.ErrExists as
// codes.AlreadyExists.
package grpcstore

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/hanpama/usergraph/internal/store"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "usergraph.RecordService"

const (
	methodFind   = "Find"
	methodList   = "List"
	methodCreate = "Create"
	methodUpdate = "Update"
	methodDelete = "Delete"
)

type recordService interface {
	call(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error)
}

// Server serves a store.Store over gRPC.
type Server struct {
	store store.Store
}

// Register adds the record service backed by s to r.
func Register(r grpc.ServiceRegistrar, s store.Store) {
	r.RegisterService(&serviceDesc, &Server{store: s})
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*recordService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: methodFind, Handler: handler(methodFind)},
		{MethodName: methodList, Handler: handler(methodList)},
		{MethodName: methodCreate, Handler: handler(methodCreate)},
		{MethodName: methodUpdate, Handler: handler(methodUpdate)},
		{MethodName: methodDelete, Handler: handler(methodDelete)},
	},
	Metadata: "usergraph/record_service.proto",
}

func handler(method string) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		svc := srv.(recordService)
		if interceptor == nil {
			return svc.call(ctx, method, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return svc.call(ctx, method, req.(*structpb.Struct))
		})
	}
}

func (s *Server) call(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	collection := fields["collection"].GetStringValue()
	id := fields["id"].GetStringValue()
	if collection == "" {
		return nil, status.Error(codes.InvalidArgument, "collection is required")
	}

	var (
		rec store.Record
		err error
	)
	switch method {
	case methodFind:
		rec, err = s.store.Find(ctx, collection, id)
	case methodCreate:
		rec, err = s.store.Create(ctx, collection, fields["record"].GetStructValue().AsMap())
	case methodUpdate:
		rec, err = s.store.Update(ctx, collection, id, fields["record"].GetStructValue().AsMap())
	case methodDelete:
		var deleted string
		if deleted, err = s.store.Delete(ctx, collection, id); err == nil {
			rec = store.Record{"id": deleted}
		}
	case methodList:
		var recs []store.Record
		recs, err = s.store.List(ctx, collection, fields["filter"].GetStructValue().AsMap())
		if err == nil {
			return encodeList(recs)
		}
	default:
		return nil, status.Errorf(codes.Unimplemented, "unknown method %s", method)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(rec)
}

func encode(rec store.Record) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(rec)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode record: %v", err)
	}
	return out, nil
}

func encodeList(recs []store.Record) (*structpb.Struct, error) {
	items := make([]any, len(recs))
	for i, r := range recs {
		items[i] = map[string]any(r)
	}
	out, err := structpb.NewStruct(map[string]any{"records": items})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode records: %v", err)
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, store.ErrExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Internal, err.Error())
}

func fromStatus(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return errors.Wrap(store.ErrNotFound, status.Convert(err).Message())
	case codes.AlreadyExists:
		return errors.Wrap(store.ErrExists, status.Convert(err).Message())
	}
	return err
}
