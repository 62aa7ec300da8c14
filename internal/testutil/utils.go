// Package testutil holds helpers shared by the package test suites.
package testutil

import (
	"io"
	"log"
	"testing"
)

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

// TestLogger returns a logger whose output lands in the test log, so it
// only shows up for failing or verbose runs.
func TestLogger(t *testing.T) *log.Logger {
	logger := log.New(testWriter{t}, "", 0)
	t.Cleanup(func() {
		logger.SetOutput(io.Discard)
	})
	return logger
}
