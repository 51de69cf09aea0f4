package chatv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// unaryHandler adapts a typed server method to the grpc.MethodDesc handler signature.
func unaryHandler[S any, Req any, Resp any](fullMethod string, call func(S, context.Context, *Req) (*Resp, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(S), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(S), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in interface{}, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

const (
	ChatService_SendMessage_FullMethodName       = "/chat.v1.ChatService/SendMessage"
	ChatService_ListMessages_FullMethodName      = "/chat.v1.ChatService/ListMessages"
	ChatService_MarkRead_FullMethodName          = "/chat.v1.ChatService/MarkRead"
	ChatService_DeleteMessage_FullMethodName     = "/chat.v1.ChatService/DeleteMessage"
	ChatService_ToggleReaction_FullMethodName    = "/chat.v1.ChatService/ToggleReaction"
	ChatService_ListConversations_FullMethodName = "/chat.v1.ChatService/ListConversations"
	ChatService_SendRequest_FullMethodName       = "/chat.v1.ChatService/SendRequest"
	ChatService_AcceptRequest_FullMethodName     = "/chat.v1.ChatService/AcceptRequest"
)

// ChatServiceServer is the server API for ChatService.
type ChatServiceServer interface {
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error)
	MarkRead(context.Context, *MarkReadRequest) (*MarkReadResponse, error)
	DeleteMessage(context.Context, *DeleteMessageRequest) (*DeleteMessageResponse, error)
	ToggleReaction(context.Context, *ToggleReactionRequest) (*ToggleReactionResponse, error)
	ListConversations(context.Context, *ListConversationsRequest) (*ListConversationsResponse, error)
	SendRequest(context.Context, *SendRequestRequest) (*SendRequestResponse, error)
	AcceptRequest(context.Context, *AcceptRequestRequest) (*AcceptRequestResponse, error)
}

// UnimplementedChatServiceServer can be embedded to have forward compatible implementations.
type UnimplementedChatServiceServer struct{}

func (UnimplementedChatServiceServer) SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SendMessage not implemented")
}

func (UnimplementedChatServiceServer) ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListMessages not implemented")
}

func (UnimplementedChatServiceServer) MarkRead(context.Context, *MarkReadRequest) (*MarkReadResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method MarkRead not implemented")
}

func (UnimplementedChatServiceServer) DeleteMessage(context.Context, *DeleteMessageRequest) (*DeleteMessageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteMessage not implemented")
}

func (UnimplementedChatServiceServer) ToggleReaction(context.Context, *ToggleReactionRequest) (*ToggleReactionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ToggleReaction not implemented")
}

func (UnimplementedChatServiceServer) ListConversations(context.Context, *ListConversationsRequest) (*ListConversationsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListConversations not implemented")
}

func (UnimplementedChatServiceServer) SendRequest(context.Context, *SendRequestRequest) (*SendRequestResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SendRequest not implemented")
}

func (UnimplementedChatServiceServer) AcceptRequest(context.Context, *AcceptRequestRequest) (*AcceptRequestResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AcceptRequest not implemented")
}

var ChatService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "chat.v1.ChatService",
	HandlerType: (*ChatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SendMessage",
			Handler:    unaryHandler(ChatService_SendMessage_FullMethodName, ChatServiceServer.SendMessage),
		},
		{
			MethodName: "ListMessages",
			Handler:    unaryHandler(ChatService_ListMessages_FullMethodName, ChatServiceServer.ListMessages),
		},
		{
			MethodName: "MarkRead",
			Handler:    unaryHandler(ChatService_MarkRead_FullMethodName, ChatServiceServer.MarkRead),
		},
		{
			MethodName: "DeleteMessage",
			Handler:    unaryHandler(ChatService_DeleteMessage_FullMethodName, ChatServiceServer.DeleteMessage),
		},
		{
			MethodName: "ToggleReaction",
			Handler:    unaryHandler(ChatService_ToggleReaction_FullMethodName, ChatServiceServer.ToggleReaction),
		},
		{
			MethodName: "ListConversations",
			Handler:    unaryHandler(ChatService_ListConversations_FullMethodName, ChatServiceServer.ListConversations),
		},
		{
			MethodName: "SendRequest",
			Handler:    unaryHandler(ChatService_SendRequest_FullMethodName, ChatServiceServer.SendRequest),
		},
		{
			MethodName: "AcceptRequest",
			Handler:    unaryHandler(ChatService_AcceptRequest_FullMethodName, ChatServiceServer.AcceptRequest),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chat/v1/chat.json",
}

func RegisterChatServiceServer(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&ChatService_ServiceDesc, srv)
}

type ChatServiceClient interface {
	SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error)
	ListMessages(ctx context.Context, in *ListMessagesRequest, opts ...grpc.CallOption) (*ListMessagesResponse, error)
	MarkRead(ctx context.Context, in *MarkReadRequest, opts ...grpc.CallOption) (*MarkReadResponse, error)
	DeleteMessage(ctx context.Context, in *DeleteMessageRequest, opts ...grpc.CallOption) (*DeleteMessageResponse, error)
	ToggleReaction(ctx context.Context, in *ToggleReactionRequest, opts ...grpc.CallOption) (*ToggleReactionResponse, error)
	ListConversations(ctx context.Context, in *ListConversationsRequest, opts ...grpc.CallOption) (*ListConversationsResponse, error)
	SendRequest(ctx context.Context, in *SendRequestRequest, opts ...grpc.CallOption) (*SendRequestResponse, error)
	AcceptRequest(ctx context.Context, in *AcceptRequestRequest, opts ...grpc.CallOption) (*AcceptRequestResponse, error)
}

type chatServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewChatServiceClient(cc grpc.ClientConnInterface) ChatServiceClient {
	return &chatServiceClient{cc}
}

func (c *chatServiceClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	return invoke[SendMessageResponse](ctx, c.cc, ChatService_SendMessage_FullMethodName, in, opts)
}

func (c *chatServiceClient) ListMessages(ctx context.Context, in *ListMessagesRequest, opts ...grpc.CallOption) (*ListMessagesResponse, error) {
	return invoke[ListMessagesResponse](ctx, c.cc, ChatService_ListMessages_FullMethodName, in, opts)
}

func (c *chatServiceClient) MarkRead(ctx context.Context, in *MarkReadRequest, opts ...grpc.CallOption) (*MarkReadResponse, error) {
	return invoke[MarkReadResponse](ctx, c.cc, ChatService_MarkRead_FullMethodName, in, opts)
}

func (c *chatServiceClient) DeleteMessage(ctx context.Context, in *DeleteMessageRequest, opts ...grpc.CallOption) (*DeleteMessageResponse, error) {
	return invoke[DeleteMessageResponse](ctx, c.cc, ChatService_DeleteMessage_FullMethodName, in, opts)
}

func (c *chatServiceClient) ToggleReaction(ctx context.Context, in *ToggleReactionRequest, opts ...grpc.CallOption) (*ToggleReactionResponse, error) {
	return invoke[ToggleReactionResponse](ctx, c.cc, ChatService_ToggleReaction_FullMethodName, in, opts)
}

func (c *chatServiceClient) ListConversations(ctx context.Context, in *ListConversationsRequest, opts ...grpc.CallOption) (*ListConversationsResponse, error) {
	return invoke[ListConversationsResponse](ctx, c.cc, ChatService_ListConversations_FullMethodName, in, opts)
}

func (c *chatServiceClient) SendRequest(ctx context.Context, in *SendRequestRequest, opts ...grpc.CallOption) (*SendRequestResponse, error) {
	return invoke[SendRequestResponse](ctx, c.cc, ChatService_SendRequest_FullMethodName, in, opts)
}

func (c *chatServiceClient) AcceptRequest(ctx context.Context, in *AcceptRequestRequest, opts ...grpc.CallOption) (*AcceptRequestResponse, error) {
	return invoke[AcceptRequestResponse](ctx, c.cc, ChatService_AcceptRequest_FullMethodName, in, opts)
}

const (
	AuthService_Register_FullMethodName      = "/chat.v1.AuthService/Register"
	AuthService_Login_FullMethodName         = "/chat.v1.AuthService/Login"
	AuthService_UpdateProfile_FullMethodName = "/chat.v1.AuthService/UpdateProfile"
)

// AuthServiceServer is the server API for AuthService.
type AuthServiceServer interface {
	Register(context.Context, *RegisterRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*UpdateProfileResponse, error)
}

// UnimplementedAuthServiceServer can be embedded to have forward compatible implementations.
type UnimplementedAuthServiceServer struct{}

func (UnimplementedAuthServiceServer) Register(context.Context, *RegisterRequest) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}

func (UnimplementedAuthServiceServer) Login(context.Context, *LoginRequest) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}

func (UnimplementedAuthServiceServer) UpdateProfile(context.Context, *UpdateProfileRequest) (*UpdateProfileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateProfile not implemented")
}

var AuthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "chat.v1.AuthService",
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Register",
			Handler:    unaryHandler(AuthService_Register_FullMethodName, AuthServiceServer.Register),
		},
		{
			MethodName: "Login",
			Handler:    unaryHandler(AuthService_Login_FullMethodName, AuthServiceServer.Login),
		},
		{
			MethodName: "UpdateProfile",
			Handler:    unaryHandler(AuthService_UpdateProfile_FullMethodName, AuthServiceServer.UpdateProfile),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chat/v1/auth.json",
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthService_ServiceDesc, srv)
}

type AuthServiceClient interface {
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*UpdateProfileResponse, error)
}

type authServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) AuthServiceClient {
	return &authServiceClient{cc}
}

func (c *authServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, AuthService_Register_FullMethodName, in, opts)
}

func (c *authServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, AuthService_Login_FullMethodName, in, opts)
}

func (c *authServiceClient) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*UpdateProfileResponse, error) {
	return invoke[UpdateProfileResponse](ctx, c.cc, AuthService_UpdateProfile_FullMethodName, in, opts)
}
