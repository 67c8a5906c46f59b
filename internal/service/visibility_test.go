package service

import (
	"testing"
	"time"
)

func TestMessageVisible(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	before := base.Add(-time.Hour)
	after := base.Add(time.Hour)

	if !MessageVisible(base, nil, nil) {
		t.Fatalf("message must be visible without watermarks")
	}
	if MessageVisible(base, nil, &base) {
		t.Fatalf("soft-deleted member must see nothing")
	}
	if MessageVisible(base, &after, nil) {
		t.Fatalf("message before the watermark must be hidden")
	}
	if MessageVisible(base, &base, nil) {
		t.Fatalf("message exactly at the watermark must be hidden")
	}
	if !MessageVisible(base, &before, nil) {
		t.Fatalf("message after the watermark must be visible")
	}
}
