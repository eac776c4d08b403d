package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zaylabs/erp/internal/adapters/http/middleware"
	"github.com/zaylabs/erp/internal/core/user"
)

// AuthHandler はログインと自分自身の情報取得を提供します。
type AuthHandler struct {
	users  user.UseCase
	tokens *middleware.TokenManager
}

// NewAuthHandler は AuthHandler を生成します。
func NewAuthHandler(users user.UseCase, tokens *middleware.TokenManager) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  string(u.Role),
	}
}

// Login はメールアドレスとパスワードを検証し、アクセストークンを発行します。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	authenticated, err := h.users.Authenticate(c.Request.Context(), user.AuthenticateInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.tokens.Issue(authenticated)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  toUserResponse(authenticated),
	})
}

// Me は認証済みユーザー自身の情報を返します。
func (h *AuthHandler) Me(c *gin.Context) {
	userID, _, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	found, err := h.users.GetUser(c.Request.Context(), user.GetUserInput{ID: userID})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(found)})
}
