package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"backend/api"
	"backend/database"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserLogin struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login a user
//
//	@Summary      Login a user
//	@Description  Authenticate with email and password, receive a session cookie
//	@Tags         user
//	@Accept       json
//	@Produce      json
//	@Param        request body UserLogin true "Login credentials"
//	@Success      200  {string}  string "Login successful"
//	@Failure      400  {string}  string "Invalid JSON"
//	@Failure      401  {string}  string "Invalid email or password"
//	@Router       /api/v1/user/login [post]
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var data UserLogin
	var defaultErrorMessage = "Invalid email or password"

	DB, ok := r.Context().Value("db").(*gorm.DB)
	if !ok {
		http.Error(w, "Unable to get database", http.StatusBadRequest)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if data.Password == "" {
		http.Error(w, defaultErrorMessage, http.StatusBadRequest)
		return
	}

	user, err := LoginUser(DB, data.Email, data.Password)
	if err != nil {
		http.Error(w, defaultErrorMessage, http.StatusUnauthorized)
		return
	}

	expiry := time.Now().Add(24 * time.Hour)
	if _, err := api.IssueSession(DB, w, r, user, h.CookieDomain, expiry); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := user.StampLastLogin(DB); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Login successful"))
}

// LoginUser checks the credentials and returns the matching user.
func LoginUser(DB *gorm.DB, email string, password string) (*database.User, error) {
	var user database.User
	q := DB.First(&user, "email = ?", email)
	if q.Error != nil {
		return nil, errors.New("user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.New("invalid password")
	}
	return &user, nil
}
