package runner

import (
	"context"

	"github.com/simplygenius/atmos-sub001/internal/notify"
	"github.com/simplygenius/atmos-sub001/internal/remediate"
)

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, string) (notify.Result, error) {
	return notify.Result{Success: true}, nil
}

type nopInvoker struct{}

func (nopInvoker) Invoke(context.Context, []string, map[string]string) (remediate.Result, error) {
	return remediate.Result{}, nil
}

type nopConfirmer struct{}

func (nopConfirmer) Confirm(context.Context, string, bool) (bool, error) { return false, nil }
