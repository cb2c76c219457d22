package queue

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/config"
)

func TestNewPromoCouponSyncTask(t *testing.T) {
	task, err := NewPromoCouponSyncTask(PromoCouponSyncPayload{Mode: "test", Codes: []string{"NOEL2026"}, Force: true})
	if err != nil {
		t.Fatalf("create task failed: %v", err)
	}
	if task.Type() != TaskPromoCouponSync {
		t.Fatalf("unexpected task type: %s", task.Type())
	}
	var payload PromoCouponSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if payload.Mode != "test" || !payload.Force || len(payload.Codes) != 1 || payload.Codes[0] != "NOEL2026" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestDisabledClientRejectsEnqueue(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueuePromoCouponMirror(PromoCouponMirrorPayload{PromoCodeID: 1}); !errors.Is(err, ErrQueueDisabled) {
		t.Fatalf("expected ErrQueueDisabled, got %v", err)
	}
	if _, err := client.EnqueuePromoCouponSync(PromoCouponSyncPayload{}); !errors.Is(err, ErrQueueDisabled) {
		t.Fatalf("expected ErrQueueDisabled, got %v", err)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: "redis", Port: 6380, DB: 2})
	if opt.Addr != "redis:6380" || opt.DB != 2 {
		t.Fatalf("unexpected redis opt: %+v", opt)
	}
	if cfg.Concurrency != 10 || cfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
}
