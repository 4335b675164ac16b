package dirqlog

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func withCapture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	prev := current()
	SetLogger(l)
	t.Cleanup(func() { SetLogger(prev) })
	return &buf
}

func TestDebugfIncludesSubject(t *testing.T) {
	buf := withCapture(t)
	Debugf("abc12345/000000000000a1", "lock contention, retrying")
	assert.Contains(t, buf.String(), "abc12345/000000000000a1")
	assert.Contains(t, buf.String(), "lock contention, retrying")
}

func TestErrorfWithoutSubject(t *testing.T) {
	buf := withCapture(t)
	Errorf(nil, "purge of %s failed", "/tmp/q")
	assert.Contains(t, buf.String(), "purge of /tmp/q failed")
}
