package model

import (
	"testing"

	"TMProject/tools/errs"
)

func TestCanonicalPairOrderInsensitive(t *testing.T) {
	lo1, hi1, err := CanonicalPair("bob", "alice")
	if err != nil {
		t.Fatalf("CanonicalPair: %v", err)
	}
	lo2, hi2, err := CanonicalPair("alice", "bob")
	if err != nil {
		t.Fatalf("CanonicalPair: %v", err)
	}
	if lo1 != lo2 || hi1 != hi2 {
		t.Fatalf("pair not canonical: (%s,%s) vs (%s,%s)", lo1, hi1, lo2, hi2)
	}
	if lo1 != "alice" || hi1 != "bob" {
		t.Fatalf("expected lexicographic order, got (%s,%s)", lo1, hi1)
	}
}

func TestCanonicalPairTrimsWhitespace(t *testing.T) {
	lo, hi, err := CanonicalPair("  u1 ", "u2")
	if err != nil {
		t.Fatalf("CanonicalPair: %v", err)
	}
	if lo != "u1" || hi != "u2" {
		t.Fatalf("got (%q,%q)", lo, hi)
	}
}

func TestCanonicalPairRejectsSelfAndEmpty(t *testing.T) {
	if _, _, err := CanonicalPair("u1", "u1"); !errs.ErrInvalidParticipants.Is(err) {
		t.Fatalf("self pair: want invalid participants, got %v", err)
	}
	if _, _, err := CanonicalPair("", "u2"); !errs.ErrInvalidParticipants.Is(err) {
		t.Fatalf("empty id: want invalid participants, got %v", err)
	}
	// 修剪后相等也算自聊
	if _, _, err := CanonicalPair("u1 ", " u1"); !errs.ErrInvalidParticipants.Is(err) {
		t.Fatalf("trimmed self pair: want invalid participants, got %v", err)
	}
}

func TestParticipantHelpers(t *testing.T) {
	c := Conversation{ID: "c1", ParticipantA: "alice", ParticipantB: "bob"}
	if !c.HasParticipant("alice") || !c.HasParticipant("bob") {
		t.Fatal("participants not recognized")
	}
	if c.HasParticipant("mallory") || c.HasParticipant("") {
		t.Fatal("non-participant recognized")
	}
	if got := c.OtherParticipant("alice"); got != "bob" {
		t.Fatalf("OtherParticipant(alice) = %q", got)
	}
	if got := c.OtherParticipant("mallory"); got != "" {
		t.Fatalf("OtherParticipant(mallory) = %q", got)
	}
}
