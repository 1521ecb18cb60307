package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestFullMethod(t *testing.T) {
	assert.Equal(t, "/infosec.auth.AuthService/Login", FullMethod(MethodLogin))
}

func TestMessageAccessors(t *testing.T) {
	m, err := NewMessage(map[string]any{
		FieldUsername:  "neo",
		FieldAvailable: true,
		FieldRoles:     StringList([]string{"ROLE_ADMIN", "ROLE_USER"}),
	})
	require.NoError(t, err)

	raw, err := proto.Marshal(m)
	require.NoError(t, err)
	decoded := &structpb.Struct{}
	require.NoError(t, proto.Unmarshal(raw, decoded))

	assert.Equal(t, "neo", String(decoded, FieldUsername))
	assert.True(t, Bool(decoded, FieldAvailable))
	assert.Equal(t, []string{"ROLE_ADMIN", "ROLE_USER"}, Strings(decoded, FieldRoles))

	assert.Equal(t, "", String(decoded, FieldEmail))
	assert.False(t, Bool(decoded, FieldUsername))
	assert.Empty(t, Strings(decoded, FieldEmail))
	assert.Equal(t, "", String(nil, FieldEmail))
}
