package domain

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    FeedbackStatus
		wantErr bool
	}{
		{raw: "pending", want: StatusPending},
		{raw: " Approved ", want: StatusApproved},
		{raw: "REJECTED", want: StatusRejected},
		{raw: "deleted", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.raw)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidStatus) {
				t.Fatalf("ParseStatus(%q) error = %v, want ErrInvalidStatus", tt.raw, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseStatus(%q) = %v, %v; want %v", tt.raw, got, err, tt.want)
		}
	}
}

func TestStatusPredicates(t *testing.T) {
	if !StatusPending.Listable() || !StatusApproved.Listable() || StatusRejected.Listable() {
		t.Fatalf("only pending and approved are listable")
	}
	if StatusPending.IsModeration() || !StatusApproved.IsModeration() || !StatusRejected.IsModeration() {
		t.Fatalf("only approved and rejected are moderation targets")
	}
}

func TestParseOrphanPolicy(t *testing.T) {
	if ParseOrphanPolicy("promote") != OrphanPromote {
		t.Fatalf("expected promote")
	}
	for _, raw := range []string{"", "drop", "reject"} {
		if ParseOrphanPolicy(raw) != OrphanDrop {
			t.Fatalf("ParseOrphanPolicy(%q) should fall back to drop", raw)
		}
	}
}
