package web

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"golang.org/x/time/rate"

	"github.com/twistedxcom/woodeye/internal/status"
)

// PushSubscriptionsFile is the default subscription state file inside the
// status directory.
const PushSubscriptionsFile = "web_push_subscriptions.json"

type pushSubscription struct {
	Endpoint string               `json:"endpoint"`
	Keys     pushSubscriptionKeys `json:"keys"`
}

type pushSubscriptionKeys struct {
	P256DH string `json:"p256dh"`
	Auth   string `json:"auth"`
}

func (p pushSubscription) validate() error {
	if strings.TrimSpace(p.Endpoint) == "" {
		return fmt.Errorf("endpoint is required")
	}
	if strings.TrimSpace(p.Keys.P256DH) == "" {
		return fmt.Errorf("keys.p256dh is required")
	}
	if strings.TrimSpace(p.Keys.Auth) == "" {
		return fmt.Errorf("keys.auth is required")
	}
	return nil
}

type pushSubscriptionFile struct {
	UpdatedAt     time.Time          `json:"updatedAt"`
	Subscriptions []pushSubscription `json:"subscriptions"`
}

// pushNotification is the payload shown by the service worker.
type pushNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Path  string `json:"path"`
}

// pushService sends web push notifications when a session transitions into
// a pending-input state.
type pushService struct {
	vapidPublic  string
	vapidPrivate string
	subject      string
	statePath    string

	limiter *rate.Limiter

	mu          sync.Mutex
	lastPending map[string]bool // path -> needed attention at last sync
}

func newPushService(cfg Config) (*pushService, error) {
	if cfg.PushVAPIDPublicKey == "" || cfg.PushVAPIDPrivateKey == "" {
		return nil, fmt.Errorf("push VAPID keys not configured")
	}

	statePath := cfg.PushStatePath
	if statePath == "" {
		statePath = filepath.Join(status.DefaultDir(), PushSubscriptionsFile)
	}

	subject := cfg.PushVAPIDSubject
	if subject == "" {
		subject = "mailto:woodeye@localhost"
	}

	return &pushService{
		vapidPublic:  cfg.PushVAPIDPublicKey,
		vapidPrivate: cfg.PushVAPIDPrivateKey,
		subject:      subject,
		statePath:    statePath,
		limiter:      rate.NewLimiter(rate.Every(5*time.Second), 2),
		lastPending:  make(map[string]bool),
	}, nil
}

// TriggerSync re-evaluates pending sessions and notifies subscribers about
// paths that newly need attention. Runs asynchronously; rate-limited.
func (p *pushService) TriggerSync(resolver *status.Resolver, paths []string) {
	if len(paths) == 0 || !p.limiter.Allow() {
		return
	}

	go func() {
		statuses := resolver.StatusForAll(paths)

		p.mu.Lock()
		var newlyPending []string
		for path, ws := range statuses {
			if ws.HasPendingInput && !p.lastPending[path] {
				newlyPending = append(newlyPending, path)
			}
			p.lastPending[path] = ws.HasPendingInput
		}
		p.mu.Unlock()

		for _, path := range newlyPending {
			p.notifyAll(pushNotification{
				Title: "Session needs attention",
				Body:  filepath.Base(path) + " is waiting for you",
				Path:  path,
			})
		}
	}()
}

func (p *pushService) notifyAll(n pushNotification) {
	// The prune below rewrites the subscription file; without the lock a
	// concurrent subscribe could be lost to the overwrite.
	p.mu.Lock()
	defer p.mu.Unlock()

	subs, err := p.loadSubscriptions()
	if err != nil || len(subs.Subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return
	}

	var live []pushSubscription
	for _, sub := range subs.Subscriptions {
		resp, err := webpush.SendNotification(payload, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.Keys.P256DH,
				Auth:   sub.Keys.Auth,
			},
		}, &webpush.Options{
			Subscriber:      p.subject,
			VAPIDPublicKey:  p.vapidPublic,
			VAPIDPrivateKey: p.vapidPrivate,
			TTL:             60,
		})
		if err != nil {
			webLog.Debug("push_send_failed", slog.String("error", err.Error()))
			live = append(live, sub)
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		// Gone endpoints are pruned; anything else is kept.
		if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
			webLog.Debug("push_subscription_pruned", slog.Int("code", resp.StatusCode))
			continue
		}
		live = append(live, sub)
	}

	if len(live) != len(subs.Subscriptions) {
		subs.Subscriptions = live
		_ = p.saveSubscriptions(subs)
	}
}

func (p *pushService) loadSubscriptions() (pushSubscriptionFile, error) {
	var f pushSubscriptionFile
	data, err := os.ReadFile(p.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return f, err
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return pushSubscriptionFile{}, err
	}
	return f, nil
}

func (p *pushService) saveSubscriptions(f pushSubscriptionFile) error {
	f.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.statePath), 0755); err != nil {
		return err
	}

	tmpPath := p.statePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, p.statePath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func (p *pushService) upsert(sub pushSubscription) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := p.loadSubscriptions()
	if err != nil {
		return err
	}

	for i, existing := range f.Subscriptions {
		if existing.Endpoint == sub.Endpoint {
			f.Subscriptions[i] = sub
			return p.saveSubscriptions(f)
		}
	}
	f.Subscriptions = append(f.Subscriptions, sub)
	return p.saveSubscriptions(f)
}

func (p *pushService) removeByEndpoint(endpoint string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := p.loadSubscriptions()
	if err != nil {
		return err
	}

	var kept []pushSubscription
	for _, sub := range f.Subscriptions {
		if sub.Endpoint != endpoint {
			kept = append(kept, sub)
		}
	}
	f.Subscriptions = kept
	return p.saveSubscriptions(f)
}

// --- HTTP handlers ---

func (s *Server) handlePushConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if !s.authorizeRequest(r) {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	if s.push == nil {
		writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled":   true,
		"publicKey": s.push.vapidPublic,
	})
}

func (s *Server) handlePushSubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if !s.authorizeRequest(r) {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	if s.push == nil {
		writeAPIError(w, http.StatusServiceUnavailable, "PUSH_DISABLED", "push is not configured")
		return
	}

	var sub pushSubscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid subscription")
		return
	}
	if err := sub.validate(); err != nil {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if err := s.push.upsert(sub); err != nil {
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to store subscription")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handlePushUnsubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if !s.authorizeRequest(r) {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	if s.push == nil {
		writeAPIError(w, http.StatusServiceUnavailable, "PUSH_DISABLED", "push is not configured")
		return
	}

	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Endpoint) == "" {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "endpoint is required")
		return
	}

	if err := s.push.removeByEndpoint(req.Endpoint); err != nil {
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to remove subscription")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
