// admin.go - privacy-conscious admin dashboard over the visit log
package server

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

const adminCookie = "admin_token"

// adminAuth holds the configured credentials and the token handed out on login.
// The token is regenerated on every start, so restarting logs everyone out.
type adminAuth struct {
	username string
	password string
	token    string
}

func newAdminAuth(username, password string) (*adminAuth, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	return &adminAuth{username: username, password: password, token: token}, nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to generate admin token")
	}
	return hex.EncodeToString(buf), nil
}

func (a *adminAuth) checkCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	return userOK && passOK
}

// middleware redirects to the login page unless the request carries the admin token.
func (a *adminAuth) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// hashForLog hides client IPs in log lines.
func (s *Server) hashForLog(ip string) string {
	if s.analytics != nil {
		return s.analytics.HashIP(ip)
	}
	sum := sha256.Sum256([]byte(ip + s.logSalt))
	return hex.EncodeToString(sum[:])[:16]
}

func (s *Server) setupAdminRoutes(r *gin.Engine) {
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"Title":         "Privacy Policy",
			"RetentionDays": int(s.cfg.Analytics.Retention.Hours() / 24),
		})
	})

	if s.analytics == nil || s.admin == nil {
		return
	}

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{"Title": "Admin Login"})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		if !s.admin.checkCredentials(c.PostForm("username"), c.PostForm("password")) {
			s.log.Warnf("Failed admin login attempt from %s", s.hashForLog(c.ClientIP()))
			c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
				"Title": "Admin Login",
				"Error": "Invalid credentials",
			})
			return
		}

		c.SetCookie(adminCookie, s.admin.token, 3600*24, "/admin", "", false, true)
		s.log.Infof("Admin login successful from %s", s.hashForLog(c.ClientIP()))
		c.Redirect(http.StatusFound, "/admin/dashboard")
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", false, true)
		s.log.Infof("Admin logout from %s", s.hashForLog(c.ClientIP()))
		c.Redirect(http.StatusFound, "/admin/login")
	})

	adminGroup := r.Group("/admin")
	adminGroup.Use(s.admin.middleware())

	adminGroup.GET("/dashboard", func(c *gin.Context) {
		stats, err := s.analytics.Stats(c.Request.Context())
		if err != nil {
			s.log.Errorf("Error loading admin stats: %v", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"Title": "Error",
				"Error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"Title":     "Dashboard",
			"Stats":     stats,
			"LiveViews": s.views.Len(),
		})
	})

	adminGroup.GET("/api/stats", func(c *gin.Context) {
		stats, err := s.analytics.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	adminGroup.GET("/visitors", func(c *gin.Context) {
		visits, err := s.analytics.Recent(c.Request.Context(), 200)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"visitors": visits})
	})

	adminGroup.POST("/privacy/cleanup", func(c *gin.Context) {
		deleted, err := s.analytics.Cleanup(c.Request.Context(), s.cfg.Analytics.Retention)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": deleted})
	})

	adminGroup.GET("/export/stats", func(c *gin.Context) {
		stats, err := s.analytics.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		s.log.Infof("Admin stats exported by %s", s.hashForLog(c.ClientIP()))
		c.JSON(http.StatusOK, stats)
	})
}
