package errors

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError(t *testing.T) {
	tests := []struct {
		name    string
		code    ErrorCode
		message string
	}{
		{name: "InvalidConfiguration", code: InvalidConfiguration, message: "bad config"},
		{name: "MissingObjective", code: MissingObjective, message: "objective missing"},
		{name: "InvariantViolation", code: InvariantViolation, message: "invariant broken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message)

			customErr, ok := err.(*Error)
			require.True(t, ok, "should be a custom *Error")
			assert.Equal(t, tt.code, customErr.Code())
			assert.Equal(t, tt.message, customErr.Error())
			assert.Nil(t, customErr.Unwrap())
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(InvalidInput, "unknown benchmark %q", "zdt9")
	assert.Equal(t, `unknown benchmark "zdt9"`, err.Error())
	assert.True(t, HasCode(err, InvalidInput))
}

func TestWrap(t *testing.T) {
	original := stderrors.New("disk full")
	err := Wrap(original, SerializationFailed, "writing population file")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing population file")
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, HasCode(err, SerializationFailed))
	assert.True(t, stderrors.Is(err, err))

	var e *Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, original, e.Unwrap())

	assert.Nil(t, Wrap(nil, SerializationFailed, "no-op"))
}

func TestWithFields(t *testing.T) {
	err := WithFields(New(ShapeMismatch, "footprints differ"), Fields{"len0": 2, "len1": 3})

	var e *Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, ShapeMismatch, e.Code())
	assert.Equal(t, 2, e.Fields()["len0"])
	assert.Contains(t, err.Error(), "footprints differ")
}

func TestHasCode(t *testing.T) {
	err := Wrap(New(EvaluationFailed, "inner"), Unknown, "outer")

	// The outermost code wins.
	assert.True(t, HasCode(err, Unknown))
	assert.False(t, HasCode(stderrors.New("plain"), Unknown))
	assert.False(t, HasCode(nil, Unknown))
}

func TestCheckContext(t *testing.T) {
	assert.NoError(t, CheckContext(context.Background(), "op"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := CheckContext(ctx, "generation loop")
	require.Error(t, err)
	assert.True(t, HasCode(err, Canceled))
	assert.Contains(t, err.Error(), "generation loop canceled")
}
