package database

// Tables lists every model migrated at startup, leaf tables first.
var Tables = []interface{}{
	&User{},
	&Session{},
	&UserToken{},
	&UserOAuthProvider{},
	&UserServiceSubscription{},
	&ExternalWebhook{},
	&Mapping{},
	&WebhookEvent{},
}
