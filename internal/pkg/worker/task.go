package worker

import (
	"context"
	"errors"
)

var errPanicked = errors.New("task panicked")

// FuncTask 以函数形式定义任务
type FuncTask struct {
	TaskName string
	Fn       func(ctx context.Context) error
}

func (t FuncTask) Name() string { return t.TaskName }

func (t FuncTask) Execute(ctx context.Context) error { return t.Fn(ctx) }
