package service_test

import (
	"context"
	"testing"

	"github.com/fieldsafe/go-sssp/command"
	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/fieldsafe/go-sssp/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestService_ActivityDataMaskedBeforeSink(t *testing.T) {
	store := newMTActivityStore()
	svc := service.New(service.Config{
		ActivitySink: store,
	})

	actor := types.ActorRef{ID: uuid.New(), Type: types.ActorRoleCompanyAdmin}
	err := svc.Commands().LogActivity.Execute(context.Background(), command.ActivityLogInput{
		Verb:    "auth.login",
		Channel: "tests",
		Actor:   actor,
		Data: map[string]any{
			"password": "hunter2",
			"token":    "abcd1234",
			"note":     "shift change",
		},
	})
	require.NoError(t, err)

	require.Len(t, store.records, 1)
	stored := store.records[0]
	require.NotEqual(t, "hunter2", stored.Data["password"])
	require.NotEqual(t, "abcd1234", stored.Data["token"])
	require.Equal(t, "shift change", stored.Data["note"])
}
