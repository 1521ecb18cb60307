// Package proto describes the AuthService wire contract shared by the server
// and the CLI client. Messages are google.protobuf.Struct values keyed by the
// Field* names below and travel over the default gRPC proto codec.
package proto

import (
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "infosec.auth.AuthService"

const (
	MethodSignup        = "Signup"
	MethodLogin         = "Login"
	MethodRefreshToken  = "RefreshToken"
	MethodCheckUsername = "CheckUsername"
	MethodCheckEmail    = "CheckEmail"
	MethodMe            = "Me"
	MethodPing          = "Ping"
)

// FullMethod returns the gRPC method path, e.g. "/infosec.auth.AuthService/Login".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldName            = "name"
	FieldPhone           = "phone"
	FieldBirthDate       = "birth_date"
	FieldGender          = "gender"
	FieldUsernameOrEmail = "username_or_email"
	FieldRefreshToken    = "refresh_token"
	FieldAccessToken     = "access_token"
	FieldTokenType       = "token_type"
	FieldID              = "id"
	FieldRoles           = "roles"
	FieldAvailable       = "available"
	FieldStatus          = "status"
)

// NewMessage builds a message from plain Go values. Lists must be []any;
// use StringList for string slices.
func NewMessage(fields map[string]any) (*structpb.Struct, error) {
	return structpb.NewStruct(fields)
}

// String returns the string field key, or "" when absent or not a string.
func String(m *structpb.Struct, key string) string {
	return m.GetFields()[key].GetStringValue()
}

func Bool(m *structpb.Struct, key string) bool {
	return m.GetFields()[key].GetBoolValue()
}

// Strings returns the string elements of a list field.
func Strings(m *structpb.Struct, key string) []string {
	values := m.GetFields()[key].GetListValue().GetValues()
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.GetKind().(*structpb.Value_StringValue); ok {
			out = append(out, s.StringValue)
		}
	}
	return out
}

func StringList(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
