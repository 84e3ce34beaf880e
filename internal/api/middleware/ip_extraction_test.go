package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func ginContextWithHeaders(headers map[string]string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.RemoteAddr = "10.0.0.1:4567"
	for k, v := range headers {
		c.Request.Header.Set(k, v)
	}
	return c
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"cloudflare tem prioridade", map[string]string{
			"CF-Connecting-IP": "203.0.113.7",
			"X-Forwarded-For":  "198.51.100.1",
		}, "203.0.113.7"},
		{"primeiro IP válido do X-Forwarded-For", map[string]string{
			"X-Forwarded-For": "lixo, 198.51.100.1, 10.0.0.2",
		}, "198.51.100.1"},
		{"X-Real-IP como fallback", map[string]string{
			"X-Real-IP": "192.0.2.9",
		}, "192.0.2.9"},
		{"header inválido cai para o RemoteAddr", map[string]string{
			"CF-Connecting-IP": "não-é-ip",
		}, "10.0.0.1"},
		{"sem headers usa o RemoteAddr", nil, "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ginContextWithHeaders(tt.headers)
			if got := GetClientIP(c); got != tt.want {
				t.Errorf("GetClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateIP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"203.0.113.7", "203.0.113.7"},
		{"  203.0.113.7  ", "203.0.113.7"},
		{"203.0.113.7:8080", "203.0.113.7"},
		{"", ""},
		{"abc", ""},
	}
	for _, tt := range tests {
		if got := validateIP(tt.in); got != tt.want {
			t.Errorf("validateIP(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
