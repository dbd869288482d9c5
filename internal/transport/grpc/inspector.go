package grpcx

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cwrk-planet/board-service/internal/domain"
	"github.com/cwrk-planet/board-service/internal/errs"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName       = "roomsync.v1.RoomInspector"
	MethodListRooms   = "/" + ServiceName + "/ListRooms"
	MethodGetRoom     = "/" + ServiceName + "/GetRoom"
	inspectorMetadata = "roomsync/v1/inspector.proto"
)

// Rooms: чтение состояния комнат для инспекции.
type Rooms interface {
	List() []domain.RoomSummary
	Snapshot(roomID string) (domain.Snapshot, error)
}

// InspectorServer: read-only сервис над реестром комнат. Сообщения используют well-known
// типы (Empty, StringValue, Struct), поэтому сгенерированный код не нужен.
type InspectorServer interface {
	ListRooms(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetRoom(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

type Server struct {
	rooms Rooms
}

func NewServer(rooms Rooms) *Server {
	return &Server{rooms: rooms}
}

func Register(grpcServer *grpc.Server, s InspectorServer) {
	grpcServer.RegisterService(&inspectorDesc, s)
}

func (s *Server) ListRooms(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	list := s.rooms.List()
	items := make([]roomView, 0, len(list))
	for _, r := range list {
		items = append(items, roomView{
			ID:           r.ID,
			Participants: r.Participants,
			Sessions:     r.Sessions,
			Actions:      r.Actions,
			LastActiveAt: r.LastActiveAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		})
	}
	return toStruct(map[string]any{"rooms": items})
}

func (s *Server) GetRoom(_ context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	id := strings.TrimSpace(in.GetValue())
	if id == "" {
		return nil, status.Error(errs.ToGRPC(errs.ErrInvalidInput), "room id is required")
	}
	snap, err := s.rooms.Snapshot(id)
	if err != nil {
		return nil, status.Error(errs.ToGRPC(err), err.Error())
	}
	view := snapshotView{ID: snap.RoomID, Actions: snap.Actions, Participants: snap.Participants}
	if view.Actions == nil {
		view.Actions = []domain.Action{}
	}
	if view.Participants == nil {
		view.Participants = []domain.Identity{}
	}
	return toStruct(view)
}

type roomView struct {
	ID           string `json:"id"`
	Participants int    `json:"participants"`
	Sessions     int    `json:"sessions"`
	Actions      int    `json:"actions"`
	LastActiveAt string `json:"lastActiveAt"`
}

type snapshotView struct {
	ID           string            `json:"id"`
	Actions      []domain.Action   `json:"actions"`
	Participants []domain.Identity `json:"participants"`
}

// toStruct: JSON представление → google.protobuf.Struct через protojson.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(errs.ToGRPC(err), fmt.Sprintf("marshal: %v", err))
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Error(errs.ToGRPC(err), fmt.Sprintf("struct: %v", err))
	}
	return out, nil
}

// --- service descriptor ---

var inspectorDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InspectorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListRooms", Handler: listRoomsHandler},
		{MethodName: "GetRoom", Handler: getRoomHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: inspectorMetadata,
}

func listRoomsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InspectorServer).ListRooms(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodListRooms}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InspectorServer).ListRooms(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getRoomHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InspectorServer).GetRoom(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetRoom}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InspectorServer).GetRoom(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// --- client ---

type InspectorClient struct {
	cc grpc.ClientConnInterface
}

func NewInspectorClient(cc grpc.ClientConnInterface) *InspectorClient {
	return &InspectorClient{cc: cc}
}

func (c *InspectorClient) ListRooms(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodListRooms, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InspectorClient) GetRoom(ctx context.Context, roomID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetRoom, wrapperspb.String(roomID), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
