package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"backend/services"
)

// WebhooksHandler receives provider webhook deliveries on the public
// ingress and turns them into stored events.
type WebhooksHandler struct {
	Registry *services.Registry
	Manager  *services.SubscriptionManager
}

// verifySignature checks the delivery against the webhook secret. GitHub
// style deliveries carry an HMAC-SHA256 of the body, GitLab style ones echo
// the plain secret. Both are compared in constant time.
func verifySignature(r *http.Request, body []byte, secret string) bool {
	if secret == "" {
		return true
	}

	if sig := r.Header.Get("X-Hub-Signature-256"); sig != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
		return hmac.Equal([]byte(expected), []byte(sig))
	}

	if token := r.Header.Get("X-Gitlab-Token"); token != "" {
		return hmac.Equal([]byte(token), []byte(secret))
	}

	return false
}

// gitlabEvents translates GitLab's spelled-out event header values into the
// hook flags the modules declare.
var gitlabEvents = map[string]string{
	"Push Hook":          "push_events",
	"Merge Request Hook": "merge_requests_events",
	"Issue Hook":         "issues_events",
}

// deliveryEvent extracts the normalized event id from the provider headers.
func deliveryEvent(r *http.Request) string {
	if event := r.Header.Get("X-GitHub-Event"); event != "" {
		return event
	}
	if event := r.Header.Get("X-Gitlab-Event"); event != "" {
		if normalized, ok := gitlabEvents[event]; ok {
			return normalized
		}
		return strings.ToLower(strings.ReplaceAll(event, " ", "_"))
	}
	return r.Header.Get("X-Event-Type")
}

// deliveryID extracts the provider's delivery id from whichever header the
// sender uses, for deduplicating retried deliveries.
func deliveryID(r *http.Request) string {
	if id := r.Header.Get("X-GitHub-Delivery"); id != "" {
		return id
	}
	if id := r.Header.Get("X-Gitlab-Event-UUID"); id != "" {
		return id
	}
	return r.Header.Get("X-Delivery-Id")
}
