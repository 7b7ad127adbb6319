package hostlog

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlog(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlog(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	l.Log("fabric ready")
	l.LogF32("push over pull", 1.5)
	l.WithLevel(slog.LevelDebug).LogU32("countdown", 1000)

	out := buf.String()
	assert.Contains(t, out, "level=INFO msg=\"fabric ready\"")
	assert.Contains(t, out, `msg="push over pull" value=1.5`)
	assert.Contains(t, out, "level=DEBUG msg=countdown value=1000")
}

func TestFunc(t *testing.T) {
	type entry struct {
		msg     string
		payload any
	}
	var got []entry
	var l Logger = Func(func(msg string, payload any) {
		got = append(got, entry{msg, payload})
	})

	l.Log("a")
	l.LogF32("b", 1.5)
	l.LogU32("c", 7)

	assert.Equal(t, []entry{{"a", nil}, {"b", float32(1.5)}, {"c", uint32(7)}}, got)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop.Log("x")
		Nop.LogF32("x", 1)
		Nop.LogU32("x", 1)
	})
}
