// admin.go - privacy-conscious admin area: login, inbox and visitor metrics
package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/portfolio/internal/store"
)

const (
	adminCookie      = "admin_token"
	visitorRetention = 365 * 24 * time.Hour
	pruneInterval    = 24 * time.Hour
)

// adminAuth holds the session token and the salt visitor IPs are hashed
// with. Both are regenerated on every start.
type adminAuth struct {
	token    string
	salt     string
	username string
	password string
}

func newAdminAuth(username, password string, logger *zap.Logger) *adminAuth {
	a := &adminAuth{
		token:    randomHex(),
		salt:     randomHex(),
		username: username,
		password: password,
	}
	if password == "admin123" && gin.Mode() == gin.DebugMode {
		logger.Warn("using default admin password, set ADMIN_PASSWORD")
	}
	return a
}

func randomHex() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("admin: reading random bytes: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// hashIP returns a stable, salted, truncated digest of ip.
func (a *adminAuth) hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + a.salt))
	return hex.EncodeToString(sum[:])[:16]
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (a *adminAuth) checkCredentials(username, password string) bool {
	// evaluate both so timing does not reveal which one was wrong
	u := equal(username, a.username)
	p := equal(password, a.password)
	return u && p
}

func (a *adminAuth) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || !equal(token, a.token) {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

var untrackedPrefixes = []string{"/static/", "/images/", "/admin/", "/api/", "/favicon", "/privacy"}

// visitorTrackingMiddleware records page views with hashed addresses. It
// skips assets, admin pages and HTMX fragments and honours Do Not Track.
func (s *server) visitorTrackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method != http.MethodGet || c.GetHeader("DNT") == "1" || isHTMX(c) {
			c.Next()
			return
		}
		for _, prefix := range untrackedPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		hashed := s.admin.hashIP(c.ClientIP())
		ua := c.GetHeader("User-Agent")
		s.tracking.Add(1)
		go func() {
			defer s.tracking.Done()
			if err := s.store.RecordVisit(context.Background(), hashed, ua, path); err != nil {
				s.logger.Warn("recording visit", zap.Error(err))
			}
		}()
		c.Next()
	}
}

// pruneVisits removes visitor data past the retention window.
func (s *server) pruneVisits(ctx context.Context) {
	n, err := s.store.PruneVisits(ctx, visitorRetention)
	if err != nil {
		s.logger.Error("pruning visitor data", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("pruned old visitor data", zap.Int64("rows", n))
	}
}

// pruneLoop prunes now and then once a day until ctx is done.
func (s *server) pruneLoop(ctx context.Context) {
	s.pruneVisits(ctx)
	t := time.NewTicker(pruneInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.pruneVisits(ctx)
		}
	}
}

func (s *server) setupAdminRoutes(r *gin.Engine) {
	r.GET("/privacy", func(c *gin.Context) {
		data := pageData(c, "")
		data["title"] = "Privacy Policy"
		c.HTML(http.StatusOK, "privacy.html", data)
	})

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{"title": "Admin Login"})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		logger := loggerFrom(c, s.logger)
		client := s.admin.hashIP(c.ClientIP())

		if !s.admin.checkCredentials(c.PostForm("username"), c.PostForm("password")) {
			logger.Warn("failed admin login", zap.String("client", client))
			c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
				"title": "Admin Login",
				"error": "Invalid credentials",
			})
			return
		}

		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(adminCookie, s.admin.token, 3600*24, "/admin", "", false, true)
		logger.Info("admin login", zap.String("client", client))
		c.Redirect(http.StatusFound, "/admin/dashboard")
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", false, true)
		c.Redirect(http.StatusFound, "/admin/login")
	})

	admin := r.Group("/admin")
	admin.Use(s.admin.middleware())

	admin.GET("/dashboard", func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context())
		if err != nil {
			loggerFrom(c, s.logger).Error("loading admin stats", zap.Error(err))
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{"error": "Failed to load statistics"})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{"stats": stats})
	})

	admin.GET("/api/stats", func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load statistics"})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	admin.GET("/messages", func(c *gin.Context) {
		messages, err := s.store.ListMessages(c.Request.Context(), 200)
		if err != nil {
			loggerFrom(c, s.logger).Error("loading messages", zap.Error(err))
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{"error": "Failed to load messages"})
			return
		}
		c.HTML(http.StatusOK, "admin-messages.html", gin.H{"messages": messages})
	})

	admin.GET("/messages/:id", func(c *gin.Context) {
		m, err := s.store.Message(c.Request.Context(), c.Param("id"))
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load message"})
			return
		}
		c.JSON(http.StatusOK, m)
	})

	admin.DELETE("/messages/:id", func(c *gin.Context) {
		id := c.Param("id")
		err := s.store.DeleteMessage(c.Request.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		if err != nil {
			loggerFrom(c, s.logger).Error("deleting message", zap.String("message_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete message"})
			return
		}
		loggerFrom(c, s.logger).Info("message deleted", zap.String("message_id", id))
		c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
	})

	admin.GET("/visitors", func(c *gin.Context) {
		visits, err := s.store.ListVisits(c.Request.Context(), 200)
		if err != nil {
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{"error": "Failed to load visitors"})
			return
		}
		c.HTML(http.StatusOK, "admin-visitors.html", gin.H{"visitors": visits})
	})

	admin.POST("/privacy/delete-visitor-data", func(c *gin.Context) {
		s.pruneVisits(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup complete"})
	})

	admin.GET("/export/stats", func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load statistics"})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		c.JSON(http.StatusOK, stats)
	})
}
