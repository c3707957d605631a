package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotify(t *testing.T) {
	ctx := context.Background()
	change := EventChange{Type: ChangeEventUpdated, EventID: "abc", Published: true}

	ok := &recordingNotifier{}
	notify(ctx, ok, change)
	assert.Equal(t, []EventChange{change}, ok.changes)

	failing := &recordingNotifier{err: errors.New("boom")}
	assert.NotPanics(t, func() { notify(ctx, failing, change) })
	assert.Len(t, failing.changes, 1)

	assert.NotPanics(t, func() { notify(ctx, nil, change) })
	assert.NoError(t, NopNotifier{}.Notify(ctx, change))
}
