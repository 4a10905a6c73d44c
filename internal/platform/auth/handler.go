package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc        AuthService
	cookieName string
	secure     bool
}

// RegisterPublicRoutes mounts the routes reachable without a session.
func RegisterPublicRoutes(r gin.IRoutes, svc AuthService, cookieName string, secure bool) {
	h := &AuthHandler{svc: svc, cookieName: cookieName, secure: secure}
	r.POST("/login", h.Login)
	r.POST("/register", h.Register)
	r.POST("/logout", h.Logout)
}

// RegisterRoutes mounts the session routes; r must already run RequireAuth.
func RegisterRoutes(r gin.IRoutes, svc AuthService) {
	h := &AuthHandler{svc: svc}
	r.GET("/me", h.Me)
	r.DELETE("/accounts/:id", RequireRole(RoleAdmin), h.DeleteAccount)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary  Log in with e-mail and password
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body LoginRequest true "credentials"
// @Success  200 {object} map[string]any
// @Failure  401 {object} map[string]string
// @Router   /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	sess, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "E-mail ou senha inválidos"})
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, sess.Token, maxAge, "/", "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{
		"token":      sess.Token,
		"expires_at": sess.ExpiresAt.UTC().Format(time.RFC3339),
		"user":       accountDTO(sess.Account),
		"message":    "Login successful",
	})
}

// RegisterRequest always creates a plain user; admins come from `ponto user add`.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

// Register godoc
// @Summary  Create an account
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body RegisterRequest true "account"
// @Success  201 {object} map[string]string
// @Failure  400 {object} map[string]string
// @Failure  409 {object} map[string]string
// @Router   /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	in := RegisterInput{Email: req.Email, Password: req.Password, Name: req.Name, Role: RoleUser}

	err := h.svc.Register(c.Request.Context(), in)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"message": "registered"})
	case errors.Is(err, ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "e-mail already registered"})
	case errors.Is(err, ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": strings.TrimPrefix(err.Error(), ErrInvalidInput.Error()+": ")})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "register failed"})
	}
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.secure, true)
	c.Status(http.StatusNoContent)
}

// Me godoc
// @Summary  Current session subject
// @Tags     auth
// @Produce  json
// @Success  200 {object} map[string]any
// @Failure  401 {object} map[string]string
// @Router   /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	acct, err := h.svc.Get(c.Request.Context(), c.GetString(CtxUserIDKey))
	if errors.Is(err, ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, unauthorized)
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, accountDTO(acct))
}

func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	id := c.Param("id")

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func accountDTO(a *Account) gin.H {
	if a == nil {
		return nil
	}
	return gin.H{
		"email":      a.ID,
		"name":       a.Name,
		"role":       a.Role,
		"created_at": a.CreatedAt.UTC().Format(time.RFC3339),
	}
}
