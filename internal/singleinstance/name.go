// Package singleinstance keeps a second shell from starting while one is
// already running for the same user.
package singleinstance

import (
	"errors"
	"os"
	"os/user"
	"regexp"
	"strings"
)

// ErrAlreadyRunning is returned by TryLock when another instance holds the lock.
var ErrAlreadyRunning = errors.New("another instance is already running")

const appName = "gopherlol-shell"

var invalidNameRune = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

var currentUserFn = user.Current

// DefaultName returns the per-user lock name.
func DefaultName() string {
	return appName + "-" + sanitizeUsername(currentUsername())
}

func currentUsername() string {
	for _, key := range []string{"USERNAME", "USER"} {
		if name := strings.TrimSpace(os.Getenv(key)); name != "" {
			return name
		}
	}
	if current, err := currentUserFn(); err == nil {
		return current.Username
	}
	return ""
}

// sanitizeUsername keeps only characters that are safe in mutex and file names.
func sanitizeUsername(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return invalidNameRune.ReplaceAllString(value, "_")
}
