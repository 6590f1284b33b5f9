package handler

import (
	"errors"
	"net/http"

	"github.com/cmaas/internal/db"
	"github.com/cmaas/internal/service"
	"github.com/gin-gonic/gin"
)

type userResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Register 创建新租户及其首个账号并签发令牌。
func (a *API) Register(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := a.auth.Register(input.Email, input.Password, input.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "email is already registered"})
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		}
		return
	}

	a.respondWithToken(c, user)
}

// Login 校验凭证并签发令牌。
func (a *API) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := a.auth.Authenticate(input.Email, input.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log in"})
		return
	}

	a.respondWithToken(c, user)
}

// Me returns the authenticated account.
func (a *API) Me(c *gin.Context) {
	claims := currentClaims(c)

	var user db.User
	if err := a.db.First(&user, claims.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, userResponse{ID: user.ID, Email: user.Email, Name: user.Name})
}

func (a *API) respondWithToken(c *gin.Context, user db.User) {
	token, err := a.auth.IssueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userResponse{ID: user.ID, Email: user.Email, Name: user.Name},
	})
}
