package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "transport",
			err:  Transport("server unreachable", stderrors.New("dial tcp: connection refused")),
			want: KindTransport,
		},
		{
			name: "authorization",
			err:  Authorization("authentication required"),
			want: KindAuthorization,
		},
		{
			name: "application",
			err:  Application("not enough AP"),
			want: KindApplication,
		},
		{
			name: "validation",
			err:  Validation("message is empty"),
			want: KindValidation,
		},
		{
			name: "wrapped",
			err:  fmt.Errorf("failed to load character: %w", Application("character not found")),
			want: KindApplication,
		},
		{
			name: "unclassified",
			err:  stderrors.New("boom"),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
			if tt.want != 0 {
				assert.True(t, IsKind(tt.err, tt.want))
			}
		})
	}
}

func TestMessage(t *testing.T) {
	cause := stderrors.New("connection reset")

	assert.Equal(t, "fallback", Message(nil, "fallback"))
	assert.Equal(t, "not enough AP", Message(Application("not enough AP"), "fallback"))
	assert.Equal(t, "not enough AP", Message(fmt.Errorf("action: %w", Application("not enough AP")), "fallback"))
	assert.Equal(t, "connection reset", Message(cause, "fallback"))
}

func TestErrorUnwrap(t *testing.T) {
	cause := stderrors.New("timeout")
	err := Transport("server unreachable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "transport")
	assert.Contains(t, err.Error(), "server unreachable")
}
