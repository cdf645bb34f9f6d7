package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestVerifySignatureHMAC(t *testing.T) {
	body := []byte(`{"ref":"refs/heads/main"}`)
	secret := "s3cret"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	sig := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	r := httptest.NewRequest("POST", "/webhooks/github", strings.NewReader(string(body)))
	r.Header.Set("X-Hub-Signature-256", sig)
	if !verifySignature(r, body, secret) {
		t.Error("expected valid signature to verify")
	}

	r.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")
	if verifySignature(r, body, secret) {
		t.Error("expected tampered signature to fail")
	}
}

func TestVerifySignatureGitlabToken(t *testing.T) {
	body := []byte(`{}`)

	r := httptest.NewRequest("POST", "/webhooks/gitlab", strings.NewReader("{}"))
	r.Header.Set("X-Gitlab-Token", "s3cret")
	if !verifySignature(r, body, "s3cret") {
		t.Error("expected matching token to verify")
	}

	r.Header.Set("X-Gitlab-Token", "wrong")
	if verifySignature(r, body, "s3cret") {
		t.Error("expected wrong token to fail")
	}
}

func TestVerifySignatureWithoutSecret(t *testing.T) {
	r := httptest.NewRequest("POST", "/webhooks/github", strings.NewReader("{}"))
	if !verifySignature(r, []byte("{}"), "") {
		t.Error("expected no-secret hooks to accept unsigned deliveries")
	}
}

func TestVerifySignatureUnsignedWithSecret(t *testing.T) {
	r := httptest.NewRequest("POST", "/webhooks/github", strings.NewReader("{}"))
	if verifySignature(r, []byte("{}"), "s3cret") {
		t.Error("expected unsigned delivery to fail when a secret is set")
	}
}

func TestDeliveryEvent(t *testing.T) {
	r := httptest.NewRequest("POST", "/webhooks/github", nil)
	r.Header.Set("X-GitHub-Event", "push")
	if got := deliveryEvent(r); got != "push" {
		t.Errorf("expected push, got %q", got)
	}

	r = httptest.NewRequest("POST", "/webhooks/gitlab", nil)
	r.Header.Set("X-Gitlab-Event", "Push Hook")
	if got := deliveryEvent(r); got != "push_events" {
		t.Errorf("expected push_events, got %q", got)
	}

	r = httptest.NewRequest("POST", "/webhooks/gitlab", nil)
	r.Header.Set("X-Gitlab-Event", "Tag Push Hook")
	if got := deliveryEvent(r); got != "tag_push_hook" {
		t.Errorf("expected lowered fallback, got %q", got)
	}

	r = httptest.NewRequest("POST", "/webhooks/timer", nil)
	if got := deliveryEvent(r); got != "" {
		t.Errorf("expected empty event, got %q", got)
	}
}

func TestDeliveryID(t *testing.T) {
	r := httptest.NewRequest("POST", "/webhooks/github", nil)
	r.Header.Set("X-GitHub-Delivery", "gh-1")
	if got := deliveryID(r); got != "gh-1" {
		t.Errorf("expected gh-1, got %q", got)
	}

	r = httptest.NewRequest("POST", "/webhooks/gitlab", nil)
	r.Header.Set("X-Gitlab-Event-UUID", "gl-1")
	if got := deliveryID(r); got != "gl-1" {
		t.Errorf("expected gl-1, got %q", got)
	}

	r = httptest.NewRequest("POST", "/webhooks/other", nil)
	r.Header.Set("X-Delivery-Id", "generic-1")
	if got := deliveryID(r); got != "generic-1" {
		t.Errorf("expected generic-1, got %q", got)
	}

	r = httptest.NewRequest("POST", "/webhooks/timer", nil)
	if got := deliveryID(r); got != "" {
		t.Errorf("expected empty id, got %q", got)
	}
}
