package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmaas/internal/db"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService handles account registration, credential checks and the
// bearer tokens every API request carries.
type AuthService struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
}

// Claims are the JWT payload: the account plus the tenant every query is
// scoped to.
type Claims struct {
	UserID   uint `json:"uid"`
	TenantID uint `json:"tid"`
	jwt.RegisteredClaims
}

// NewAuthService creates an AuthService instance.
func NewAuthService(gdb *gorm.DB, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{db: gdb, secret: []byte(secret), ttl: ttl}
}

// Register creates a tenant and its first user account.
func (s *AuthService) Register(email, password, name string) (db.User, error) {
	trimmedEmail := strings.ToLower(strings.TrimSpace(email))
	if trimmedEmail == "" || strings.TrimSpace(password) == "" {
		return db.User{}, ErrInvalidCredentials
	}

	var existing db.User
	err := s.db.Where("email = ?", trimmedEmail).First(&existing).Error
	if err == nil {
		return db.User{}, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return db.User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return db.User{}, err
	}

	user := db.User{Email: trimmedEmail, Password: string(hashed), Name: strings.TrimSpace(name)}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		tenant := db.Tenant{Name: trimmedEmail}
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}
		user.TenantID = tenant.ID
		return tx.Create(&user).Error
	})
	if err != nil {
		return db.User{}, fmt.Errorf("register user: %w", err)
	}
	return user, nil
}

// Authenticate verifies the credentials and returns the account.
func (s *AuthService) Authenticate(email, password string) (db.User, error) {
	trimmedEmail := strings.ToLower(strings.TrimSpace(email))

	var user db.User
	if err := s.db.Where("email = ?", trimmedEmail).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return db.User{}, ErrInvalidCredentials
		}
		return db.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return db.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken signs a bearer token for the user.
func (s *AuthService) IssueToken(user db.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		TenantID: user.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken validates a bearer token and returns its claims.
func (s *AuthService) ParseToken(token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	return *claims, nil
}
