package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func loginRouter(rl *RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(rl.Middleware())
	router.POST("/api/auth/login", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return router
}

func loginAttempt(router *gin.Engine, ip string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/auth/login", nil)
	req.RemoteAddr = ip + ":12345"
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_AllowsNormalTraffic(t *testing.T) {
	router := loginRouter(NewRateLimiter(10, 10))

	if code := loginAttempt(router, "192.168.1.1"); code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, code)
	}
}

func TestRateLimit_BlocksGuessingBurst(t *testing.T) {
	router := loginRouter(NewRateLimiter(1, 2))

	// Hammering past the burst budget must end in 429s.
	var lastCode int
	for i := 0; i < 5; i++ {
		lastCode = loginAttempt(router, "10.0.0.1")
	}

	if lastCode != http.StatusTooManyRequests {
		t.Errorf("expected status %d after burst exceeded, got %d", http.StatusTooManyRequests, lastCode)
	}
}

func TestRateLimit_BudgetIsPerIP(t *testing.T) {
	router := loginRouter(NewRateLimiter(1, 1))

	if code := loginAttempt(router, "10.0.0.1"); code != http.StatusOK {
		t.Errorf("first IP: expected %d, got %d", http.StatusOK, code)
	}

	// One client burning its budget must not lock out another.
	if code := loginAttempt(router, "10.0.0.2"); code != http.StatusOK {
		t.Errorf("second IP: expected %d, got %d", http.StatusOK, code)
	}
}
