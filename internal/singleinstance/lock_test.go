package singleinstance

import (
	"errors"
	"os/user"
	"strings"
	"testing"
)

func uniqueName(t *testing.T) string {
	t.Helper()
	t.Setenv("TMPDIR", t.TempDir())
	return "gopherlol-shell-test-" + sanitizeUsername(t.Name())
}

func TestTryLock(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T)
	}{
		{
			name: "first lock succeeds",
			run: func(t *testing.T) {
				lock, err := TryLock(uniqueName(t))
				if err != nil {
					t.Fatalf("TryLock failed: %v", err)
				}
				if err := lock.Release(); err != nil {
					t.Fatalf("Release failed: %v", err)
				}
			},
		},
		{
			name: "second lock returns ErrAlreadyRunning",
			run: func(t *testing.T) {
				name := uniqueName(t)
				lock1, err := TryLock(name)
				if err != nil {
					t.Fatalf("first TryLock failed: %v", err)
				}
				defer lock1.Release()

				lock2, err := TryLock(name)
				if !errors.Is(err, ErrAlreadyRunning) {
					t.Fatalf("second TryLock: got err=%v, want ErrAlreadyRunning", err)
				}
				if lock2 != nil {
					t.Fatal("second TryLock returned non-nil lock on ErrAlreadyRunning")
				}
			},
		},
		{
			name: "lock reacquirable after release",
			run: func(t *testing.T) {
				name := uniqueName(t)
				lock1, err := TryLock(name)
				if err != nil {
					t.Fatalf("first TryLock failed: %v", err)
				}
				if err := lock1.Release(); err != nil {
					t.Fatalf("Release failed: %v", err)
				}
				lock2, err := TryLock(name)
				if err != nil {
					t.Fatalf("TryLock after release failed: %v", err)
				}
				defer lock2.Release()
			},
		},
		{
			name: "release idempotent",
			run: func(t *testing.T) {
				lock, err := TryLock(uniqueName(t))
				if err != nil {
					t.Fatalf("TryLock failed: %v", err)
				}
				if err := lock.Release(); err != nil {
					t.Fatalf("first Release failed: %v", err)
				}
				if err := lock.Release(); err != nil {
					t.Fatalf("second Release should be no-op, got: %v", err)
				}
			},
		},
		{
			name: "nil lock release safe",
			run: func(t *testing.T) {
				var lock *Lock
				if err := lock.Release(); err != nil {
					t.Fatalf("nil Release should be no-op, got: %v", err)
				}
			},
		},
		{
			name: "empty name returns error",
			run: func(t *testing.T) {
				lock, err := TryLock("")
				if err == nil {
					t.Fatal("TryLock with empty name should fail")
				}
				if lock != nil {
					lock.Release()
					t.Fatal("TryLock with empty name returned non-nil lock")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.run)
	}
}

func TestDefaultName(t *testing.T) {
	t.Setenv("USERNAME", `CORP\alice`)

	if got, want := DefaultName(), "gopherlol-shell-CORP_alice"; got != want {
		t.Fatalf("DefaultName() = %q, want %q", got, want)
	}
}

func TestDefaultNameFallsBackToCurrentUser(t *testing.T) {
	original := currentUserFn
	t.Cleanup(func() { currentUserFn = original })
	currentUserFn = func() (*user.User, error) { return &user.User{Username: "bob"}, nil }
	t.Setenv("USERNAME", "")
	t.Setenv("USER", "")

	if got := DefaultName(); !strings.HasSuffix(got, "-bob") {
		t.Fatalf("DefaultName() = %q, want suffix -bob", got)
	}
}

func TestSanitizeUsername(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"alice", "alice"},
		{"DOMAIN\\user", "DOMAIN_user"},
		{"user@domain.com", "user_domain.com"},
		{"TestTryLock/first_lock", "TestTryLock_first_lock"},
		{"", "unknown"},
		{"  ", "unknown"},
	}
	for _, tt := range tests {
		if got := sanitizeUsername(tt.input); got != tt.want {
			t.Errorf("sanitizeUsername(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
