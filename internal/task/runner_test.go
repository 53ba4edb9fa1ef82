package task_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/groundwork-dev/groundwork/internal/remote"
	"github.com/groundwork-dev/groundwork/internal/task"
	"github.com/groundwork-dev/groundwork/internal/testutils"
)

type mockStep struct {
	name           string
	needsExecution bool
	executed       int
	err            error
}

func (m *mockStep) Name() string { return m.name }
func (m *mockStep) NeedsExecution(ctx context.Context, exec remote.Executor) (bool, error) {
	return m.needsExecution, nil
}
func (m *mockStep) Execute(ctx context.Context, exec remote.Executor) error {
	m.executed++
	return m.err
}

func TestRunner_Run(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := task.NewRunner(logger)
	exec := testutils.NewFakeExecutor("mock-server")

	t.Run("Step needs execution", func(t *testing.T) {
		ms := &mockStep{name: "test-step", needsExecution: true}
		err := runner.Run(context.Background(), exec, ms)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if ms.executed != 1 {
			t.Error("step should have been executed")
		}
	})

	t.Run("Step does not need execution", func(t *testing.T) {
		ms := &mockStep{name: "test-step", needsExecution: false}
		err := runner.Run(context.Background(), exec, ms)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if ms.executed != 0 {
			t.Error("step should not have been executed")
		}
	})

	t.Run("Step fails", func(t *testing.T) {
		expectedErr := errors.New("execution failed")
		ms := &mockStep{name: "test-step", needsExecution: true, err: expectedErr}
		err := runner.Run(context.Background(), exec, ms)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
	})

	t.Run("Failure aborts remaining steps", func(t *testing.T) {
		failing := &mockStep{name: "failing", needsExecution: true, err: errors.New("boom")}
		after := &mockStep{name: "after", needsExecution: true}
		err := runner.Run(context.Background(), exec, failing, after)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if after.executed != 0 {
			t.Error("steps after a failure must not run")
		}
	})
}
