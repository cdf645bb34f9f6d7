package services

import (
	"fmt"
	"os"
	"strings"
)

// EnvCredentials reads a provider's OAuth app credentials from the
// environment, keyed SERVICE_<ID>_CLIENT_ID / _CLIENT_SECRET /
// _REDIRECT_URI.
func EnvCredentials(provider string) (clientID, clientSecret, redirectURL string) {
	prefix := "SERVICE_" + strings.ToUpper(provider)
	return os.Getenv(prefix + "_CLIENT_ID"),
		os.Getenv(prefix + "_CLIENT_SECRET"),
		os.Getenv(prefix + "_REDIRECT_URI")
}

// WebhookIngressURL builds the public ingress URL provider webhooks are
// pointed at, from WEBHOOK_BASE_URL.
func WebhookIngressURL(service string) string {
	base := strings.TrimRight(os.Getenv("WEBHOOK_BASE_URL"), "/")
	return fmt.Sprintf("%s/webhooks/%s", base, service)
}

// WebhookSecret returns the shared secret registered with providers and
// checked on ingress.
func WebhookSecret() string {
	return os.Getenv("WEBHOOK_SECRET")
}
