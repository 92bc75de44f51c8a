package logging

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc123")
	assert.Equal(t, "abc123", RequestID(ctx))
	assert.Equal(t, "", RequestID(context.Background()))
}

func TestLoggerIncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	NewLogger(WithRequestID(context.Background(), "rid-1")).LogError("fetch", errors.New("boom"))
	NewLogger(context.Background()).LogInfof("fetch", "page=%d", 2)
	NewLogger(WithRequestID(context.Background(), "cron")).LogErrorf("publish", "watch=%s error=%v", "ti", errors.New("down"))

	out := buf.String()
	assert.Contains(t, out, "[error] request_id=rid-1 operation=fetch error=boom")
	assert.Contains(t, out, "[info] request_id=unknown operation=fetch page=2")
	assert.Contains(t, out, "[error] request_id=cron operation=publish watch=ti error=down")
}
