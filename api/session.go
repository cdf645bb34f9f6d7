package api

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"backend/database"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func GenerateToken(tokenBase string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(tokenBase), bcrypt.DefaultCost)

	if err != nil {
		panic(fmt.Errorf("failed to generate token: %w", err))
	}

	hasher := md5.New()
	hasher.Write(hash)
	return hex.EncodeToString(hasher.Sum(nil))
}

// IssueSession creates a session row for the user and returns the cookie
// carrying its token. Shared by password login and OAuth login.
func IssueSession(DB *gorm.DB, w http.ResponseWriter, r *http.Request, user *database.User, domain string, expiry time.Time) (string, error) {
	token := GenerateToken(fmt.Sprintf("%d:%s:%d", user.ID, user.Email, expiry.UnixNano()))

	session := database.Session{
		UserId: user.ID,
		Token:  token,
		Expiry: expiry,
	}
	if err := DB.Create(&session).Error; err != nil {
		return "", err
	}

	cookie := CreateSessionToken(w, r, domain, token, expiry)
	http.SetCookie(w, cookie)
	return token, nil
}

func CreateSessionToken(w http.ResponseWriter, r *http.Request, domain string, token string, expiry time.Time) *http.Cookie {
	secure := false
	if r != nil {
		if r.TLS != nil {
			secure = true
		}
		if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
			secure = true
		}
	}

	cookie := &http.Cookie{
		Name:     "session_id",
		Value:    token,
		Path:     "/",
		Domain:   domain,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	if expiry.IsZero() {
		cookie.Expires = time.Unix(1, 0)
		cookie.MaxAge = -1
	} else {
		cookie.Expires = time.Unix(expiry.Unix()+1, 0)
		cookie.MaxAge = int(time.Until(expiry).Seconds() + 1)
	}

	return cookie
}
