package users

import (
	"context"
	"errors"
	"testing"

	"maintenance_backend/platform/httpkit"
	"maintenance_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNames struct {
	name string
	err  error
}

func (s stubNames) GetDisplayName(context.Context, uuid.UUID) (string, error) {
	return s.name, s.err
}

func TestCurrentUserDefaultsToSystem(t *testing.T) {
	actor, err := NewContextProvider(nil, nil).CurrentUser(context.Background())
	require.NoError(t, err)
	assert.True(t, actor.IsSystem())
	assert.Equal(t, "system", actor.Name)
}

func TestCurrentUserPrefersTokenName(t *testing.T) {
	id := uuid.New()
	ctx := context.WithValue(context.Background(), logger.UserIDKey, id.String())
	ctx = context.WithValue(ctx, httpkit.UserNameKey, "Ada Lovelace")

	actor, err := NewContextProvider(stubNames{name: "ignored"}, nil).CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, Actor{ID: id, Name: "Ada Lovelace"}, actor)
}

func TestCurrentUserLooksUpName(t *testing.T) {
	id := uuid.New()
	ctx := context.WithValue(context.Background(), logger.UserIDKey, id.String())

	actor, err := NewContextProvider(stubNames{name: "Grace Hopper"}, nil).CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", actor.Name)

	actor, err = NewContextProvider(stubNames{err: errors.New("db down")}, nil).CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, Actor{ID: id}, actor)
}

func TestCurrentUserRejectsMalformedID(t *testing.T) {
	ctx := context.WithValue(context.Background(), logger.UserIDKey, "not-a-uuid")
	_, err := NewContextProvider(nil, nil).CurrentUser(ctx)
	assert.Error(t, err)
}

func TestWithActorRoundTrip(t *testing.T) {
	actor := Actor{ID: uuid.New(), Name: "Planner"}
	got, err := NewContextProvider(nil, nil).CurrentUser(WithActor(context.Background(), actor))
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestComposeName(t *testing.T) {
	s := func(v string) *string { return &v }
	assert.Equal(t, "Display", composeName(s("Display"), s("A"), s("B")))
	assert.Equal(t, "A B", composeName(nil, s("A"), s("B")))
	assert.Equal(t, "B", composeName(s(" "), nil, s("B")))
}
