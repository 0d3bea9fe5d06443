package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMatchesByKind(t *testing.T) {
	err := New(KindConflict, "add friend", "already friends")

	require.ErrorIs(t, err, ErrConflict)
	require.NotErrorIs(t, err, ErrNotFound)
	require.Equal(t, "add friend: already friends", err.Error())

	wrapped := fmt.Errorf("handler: %w", err)
	require.Equal(t, KindConflict, KindOf(wrapped))
	require.Equal(t, "already friends", MessageOf(wrapped))
}

func TestInternalHidesDetails(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("list friends", cause)

	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, ErrInternal)
	require.NotErrorIs(t, err, ErrNotFound)
	require.Equal(t, KindInternal, KindOf(err))
	require.Equal(t, "internal error", MessageOf(err))
	require.Equal(t, KindInternal, KindOf(cause))
	require.NoError(t, Wrap(nil, KindNotFound, "op", "msg"))
}

func TestMessageFallsBackToKind(t *testing.T) {
	err := &Error{Kind: KindUnauthorized}
	require.Equal(t, "unauthorized", MessageOf(err))
	require.Equal(t, "unauthorized", err.Error())
}
