package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestInit(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{
		ServiceName:  "moneymosaic-test",
		Environment:  "sandbox",
		OTLPEndpoint: "localhost:4317",
		MetricsPort:  "0",
	})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if shutdown == nil {
		t.Fatal("Init() returned nil shutdown")
	}

	// No collector is listening, so flushing may fail; shutdown just has to
	// return within the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	shutdown(ctx)
}
