package context_test

import (
	"context"
	"testing"
	"time"

	bcontext "github.com/sandcastle-helpers/helpbuild/pkg/context"
)

func TestTracingFields(t *testing.T) {
	fields := bcontext.TracingFields(context.Background())
	if len(fields) != 0 {
		t.Errorf("empty context should have no fields, got %v", fields)
	}

	ctx := bcontext.WithBuildID(context.Background(), "build_7")
	ctx = bcontext.WithEngine(ctx, "conceptual")
	ctx = bcontext.WithStep(ctx, "BuildAssembler")
	ctx = bcontext.WithStartTime(ctx, time.Now().Add(-time.Second))

	fields = bcontext.TracingFields(ctx)
	if fields["build_id"] != "build_7" {
		t.Errorf("build_id = %v", fields["build_id"])
	}
	if fields["engine"] != "conceptual" {
		t.Errorf("engine = %v", fields["engine"])
	}
	if fields["step"] != "BuildAssembler" {
		t.Errorf("step = %v", fields["step"])
	}
	ms, ok := fields["duration_ms"].(int64)
	if !ok || ms < 1000 {
		t.Errorf("duration_ms = %v", fields["duration_ms"])
	}
}

func TestEnrichContext(t *testing.T) {
	ctx := bcontext.EnrichContext(bcontext.WithBuildID(context.Background(), "build_1"))
	if got := bcontext.GetBuildID(ctx); got != "build_1" {
		t.Errorf("existing build id replaced: %s", got)
	}
	if _, ok := bcontext.GetStartTime(ctx); !ok {
		t.Error("expected start time")
	}

	fresh := bcontext.EnrichContext(context.Background())
	if bcontext.GetBuildID(fresh) == "unknown-build" {
		t.Error("expected generated build id")
	}
}
