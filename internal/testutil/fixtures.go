package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tgrieger/inkwell/internal/domain"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	email    string
	name     string
	password string
	role     domain.Role
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		email:    fmt.Sprintf("testuser_%s@example.com", suffix),
		name:     fmt.Sprintf("testuser_%s", suffix),
		password: "testpassword123",
		role:     domain.RoleUser,
	}
}

// WithEmail sets the email
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

// WithName sets the display name
func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.name = name
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// WithRole sets the role
func (b *UserBuilder) WithRole(role domain.Role) *UserBuilder {
	b.role = role
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        b.email,
		Name:         b.name,
		PasswordHash: string(hashedPassword),
		Role:         b.role,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// AuthResponse matches the API auth response
type AuthResponse struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// BuildAndAuthenticate creates a user via the API and returns the user
// and both tokens
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, AuthResponse) {
	t.Helper()

	reqBody := map[string]string{
		"email":    b.email,
		"name":     b.name,
		"password": b.password,
	}
	body, _ := json.Marshal(reqBody)

	resp, err := http.Post(ts.APIURL("/auth/register"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	userID, _ := uuid.Parse(authResp.User.ID)
	user := &domain.User{
		ID:    userID,
		Email: authResp.User.Email,
		Name:  authResp.User.Name,
	}

	return user, authResp
}

// PostBuilder creates test posts with a builder pattern
type PostBuilder struct {
	author *domain.User
	title  string
	body   string
}

// NewPostBuilder creates a new PostBuilder with default values
func NewPostBuilder(author *domain.User) *PostBuilder {
	return &PostBuilder{
		author: author,
		title:  "test post",
		body:   "test body",
	}
}

// WithTitle sets the title
func (b *PostBuilder) WithTitle(title string) *PostBuilder {
	b.title = title
	return b
}

// Build creates the post in the database
func (b *PostBuilder) Build(t *testing.T, db *gorm.DB) *domain.Post {
	t.Helper()

	post := &domain.Post{
		ID:        uuid.New(),
		AuthorID:  b.author.ID,
		Title:     b.title,
		Body:      b.body,
		Tags:      datatypes.JSON(`[]`),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := db.Create(post).Error; err != nil {
		t.Fatalf("failed to create post: %v", err)
	}

	return post
}
