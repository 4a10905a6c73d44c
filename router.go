package main

import (
	"context"
	"database/sql"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"PONTO-backend/internal/assistant"
	"PONTO-backend/internal/platform/auth"
	"PONTO-backend/internal/platform/config"
	"PONTO-backend/internal/platform/middleware"
	"PONTO-backend/internal/presence"
)

// app is everything the router needs. A nil chat leaves /api/chat unmounted.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	conn     *sql.DB
	presence *presence.Service
	auth     auth.AuthService
	chat     *assistant.Orchestrator
	web      fs.FS
}

func newRouter(a *app) *gin.Engine {
	if !a.cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(a.log))
	_ = r.SetTrustedProxies(nil)

	if a.cfg.IsDev() {
		// CORS is only needed while the frontend runs on its own dev server
		r.Use(cors.New(cors.Config{
			AllowOrigins:     a.cfg.CORS.AllowOrigins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
			ExposeHeaders:    []string{"Content-Length", "Location", middleware.HeaderRequestID, "X-Vercel-AI-UI-Message-Stream"},
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// health
	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := a.conn.PingContext(ctx); err != nil {
			_ = c.Error(err)
			c.String(http.StatusServiceUnavailable, "db unavailable")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/api")
	auth.RegisterPublicRoutes(api, a.auth, a.cfg.Auth.CookieName, !a.cfg.IsDev())

	protected := api.Group("", auth.RequireAuth([]byte(a.cfg.Auth.JWTSecret), a.cfg.Auth.CookieName))
	auth.RegisterRoutes(protected, a.auth)
	presence.RegisterRoutes(protected, a.presence)
	if a.chat != nil {
		assistant.RegisterRoutes(protected, a.chat)
	}

	if a.web != nil {
		r.NoRoute(spaHandler(a.web))
	}
	return r
}

// spaHandler serves the built frontend: real files as-is, everything else
// falls back to index.html. /api/ paths are never rewritten.
func spaHandler(fsys fs.FS) gin.HandlerFunc {
	files := http.FS(fsys)
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		reqPath := strings.TrimPrefix(path.Clean(c.Request.URL.Path), "/")
		if reqPath == "" {
			reqPath = "index.html"
		}
		if serveFile(c, files, reqPath) {
			return
		}
		if !serveFile(c, files, "index.html") {
			c.Status(http.StatusNotFound)
		}
	}
}

func serveFile(c *gin.Context, files http.FileSystem, name string) bool {
	f, err := files.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		c.Header("Content-Type", ct)
	}
	if name != "index.html" {
		c.Header("Cache-Control", "public, max-age=86400, immutable")
	}
	http.ServeContent(c.Writer, c.Request, name, info.ModTime(), f)
	return true
}
