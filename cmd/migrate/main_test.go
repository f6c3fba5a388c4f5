package main

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
)

type fakeMigrator struct {
	calls   []string
	steps   int
	forced  int
	version uint
	err     error
}

func (f *fakeMigrator) Up() error {
	f.calls = append(f.calls, "up")
	return f.err
}

func (f *fakeMigrator) Down() error {
	f.calls = append(f.calls, "down")
	return f.err
}

func (f *fakeMigrator) Steps(n int) error {
	f.calls = append(f.calls, "steps")
	f.steps = n
	return f.err
}

func (f *fakeMigrator) Version() (uint, bool, error) {
	f.calls = append(f.calls, "version")
	return f.version, false, f.err
}

func (f *fakeMigrator) Force(version int) error {
	f.calls = append(f.calls, "force")
	f.forced = version
	return f.err
}

// TestRun verifies each command reaches the migrator
func TestRun(t *testing.T) {
	testCases := []struct {
		command  string
		args     []string
		expected string
	}{
		{"up", nil, "up"},
		{"down", nil, "down"},
		{"steps", []string{"-1"}, "steps"},
		{"version", nil, "version"},
		{"force", []string{"1"}, "force"},
	}

	for _, tc := range testCases {
		t.Run(tc.command, func(t *testing.T) {
			f := &fakeMigrator{}
			if err := run(f, tc.command, tc.args); err != nil {
				t.Fatalf("run() failed: %v", err)
			}
			if len(f.calls) != 1 || f.calls[0] != tc.expected {
				t.Errorf("calls = %v, want [%s]", f.calls, tc.expected)
			}
		})
	}
}

// TestRunArguments verifies numeric arguments are parsed and required
func TestRunArguments(t *testing.T) {
	f := &fakeMigrator{}
	if err := run(f, "force", []string{"3"}); err != nil || f.forced != 3 {
		t.Errorf("force 3: err = %v, forced = %d", err, f.forced)
	}
	if err := run(f, "steps", []string{"-2"}); err != nil || f.steps != -2 {
		t.Errorf("steps -2: err = %v, steps = %d", err, f.steps)
	}

	for _, command := range []string{"force", "steps"} {
		if err := run(&fakeMigrator{}, command, nil); err == nil {
			t.Errorf("%s without a number should fail", command)
		}
		if err := run(&fakeMigrator{}, command, []string{"two"}); err == nil {
			t.Errorf("%s with a non-numeric argument should fail", command)
		}
	}
}

// TestRunErrors verifies no-change is success and other errors propagate
func TestRunErrors(t *testing.T) {
	if err := run(&fakeMigrator{err: migrate.ErrNoChange}, "up", nil); err != nil {
		t.Errorf("up with no change failed: %v", err)
	}
	if err := run(&fakeMigrator{err: migrate.ErrNilVersion}, "version", nil); err != nil {
		t.Errorf("version on an empty database failed: %v", err)
	}

	boom := errors.New("connection reset")
	if err := run(&fakeMigrator{err: boom}, "up", nil); !errors.Is(err, boom) {
		t.Errorf("run(up) error = %v, want %v", err, boom)
	}
	if err := run(&fakeMigrator{}, "sideways", nil); err == nil {
		t.Error("unknown command should fail")
	}
}
