package web

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

func newTestPushService(t *testing.T) *pushService {
	t.Helper()
	p, err := newPushService(Config{
		PushVAPIDPublicKey:  "pub",
		PushVAPIDPrivateKey: "priv",
		PushStatePath:       filepath.Join(t.TempDir(), PushSubscriptionsFile),
	})
	if err != nil {
		t.Fatalf("newPushService: %v", err)
	}
	return p
}

func TestNewPushServiceRequiresKeys(t *testing.T) {
	if _, err := newPushService(Config{}); err == nil {
		t.Error("missing VAPID keys should disable push")
	}
}

func TestNewPushServiceStatePath(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "subs.json")
	p, err := newPushService(Config{
		PushVAPIDPublicKey:  "pub",
		PushVAPIDPrivateKey: "priv",
		PushStatePath:       statePath,
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.statePath != statePath {
		t.Errorf("statePath = %q, want the configured %q", p.statePath, statePath)
	}
}

func TestPushSubscriptionValidate(t *testing.T) {
	sub := pushSubscription{
		Endpoint: "https://push.example/abc",
		Keys:     pushSubscriptionKeys{P256DH: "p", Auth: "a"},
	}
	if err := sub.validate(); err != nil {
		t.Errorf("valid subscription rejected: %v", err)
	}

	for _, broken := range []pushSubscription{
		{Keys: pushSubscriptionKeys{P256DH: "p", Auth: "a"}},
		{Endpoint: "https://x", Keys: pushSubscriptionKeys{Auth: "a"}},
		{Endpoint: "https://x", Keys: pushSubscriptionKeys{P256DH: "p"}},
	} {
		if err := broken.validate(); err == nil {
			t.Errorf("incomplete subscription accepted: %+v", broken)
		}
	}
}

func TestUpsertAndRemove(t *testing.T) {
	p := newTestPushService(t)

	sub := pushSubscription{
		Endpoint: "https://push.example/abc",
		Keys:     pushSubscriptionKeys{P256DH: "p1", Auth: "a1"},
	}
	if err := p.upsert(sub); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Upserting the same endpoint replaces, not duplicates
	sub.Keys.P256DH = "p2"
	if err := p.upsert(sub); err != nil {
		t.Fatal(err)
	}

	f, err := p.loadSubscriptions()
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Subscriptions) != 1 {
		t.Fatalf("expected 1 subscription, got %d", len(f.Subscriptions))
	}
	if f.Subscriptions[0].Keys.P256DH != "p2" {
		t.Errorf("upsert did not replace keys: %+v", f.Subscriptions[0])
	}

	if err := p.removeByEndpoint(sub.Endpoint); err != nil {
		t.Fatal(err)
	}
	f, err = p.loadSubscriptions()
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Subscriptions) != 0 {
		t.Errorf("expected no subscriptions after remove, got %+v", f.Subscriptions)
	}
}

func TestConcurrentUpserts(t *testing.T) {
	p := newTestPushService(t)

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = p.upsert(pushSubscription{
				Endpoint: fmt.Sprintf("https://push.example/%d", i),
				Keys:     pushSubscriptionKeys{P256DH: "p", Auth: "a"},
			})
		}(i)
	}
	wg.Wait()

	f, err := p.loadSubscriptions()
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Subscriptions) != n {
		t.Errorf("lost subscriptions under concurrency: got %d, want %d", len(f.Subscriptions), n)
	}
}
