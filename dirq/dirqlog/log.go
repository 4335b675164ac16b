// Package dirqlog gives every dirq queue flavor a single, swappable
// logger, following the teacher's convention of routing all log
// output through one package-level sink rather than letting callers
// configure logrus directly.
package dirqlog

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu     sync.RWMutex
	logger logrus.FieldLogger = logrus.StandardLogger()
)

// SetLogger replaces the package-level logger. Tests install a
// buffering logger here to assert on emitted lines without touching
// the real stdout/stderr.
func SetLogger(l logrus.FieldLogger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

func current() logrus.FieldLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debugf logs a benign, expected condition: lock contention, a purge
// reclaiming a stale marker, a permissive call finding its element
// already gone.
func Debugf(subject any, format string, args ...any) {
	log(current().Debugf, subject, format, args...)
}

// Infof logs a normal lifecycle event worth recording at default
// verbosity: an element removed, a purge pass summary.
func Infof(subject any, format string, args ...any) {
	log(current().Infof, subject, format, args...)
}

// Errorf logs an unexpected filesystem failure at the point it was
// observed, before it is wrapped and returned to the caller.
func Errorf(subject any, format string, args ...any) {
	log(current().Errorf, subject, format, args...)
}

func log(fn func(string, ...any), subject any, format string, args ...any) {
	if subject == nil {
		fn(format, args...)
		return
	}
	fn("%v: "+format, append([]any{subject}, args...)...)
}
