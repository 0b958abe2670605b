package help_test

import (
	"testing"

	"github.com/zhouzirui/pill-reminder/backend/internal/model/help"
)

func TestMemoryStoreTipsAreCopied(t *testing.T) {
	store := help.NewMemoryStore(help.SeedTips(), help.SeedTopics())

	tips := store.Tips()
	if len(tips) != 8 {
		t.Fatalf("expected 8 tips, got %d", len(tips))
	}
	tips[0] = "mutated"

	if store.Tips()[0] == "mutated" {
		t.Fatal("store tips must not be affected by caller mutation")
	}
}

func TestMemoryStoreFindTopic(t *testing.T) {
	store := help.NewMemoryStore(help.SeedTips(), help.SeedTopics())

	topic, ok := store.FindTopic("notifications")
	if !ok {
		t.Fatal("expected notifications topic")
	}
	if topic.Title != "Setting Up Notifications" {
		t.Fatalf("unexpected title: %s", topic.Title)
	}

	if _, ok := store.FindTopic("missing"); ok {
		t.Fatal("expected missing topic lookup to fail")
	}
}
