package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// IPRestrict limits access to localhost plus a configured allowlist of IPs
// or CIDR ranges. Used for operational endpoints like /metrics.
type IPRestrict struct {
	logger     *logrus.Logger
	allowedIPs []string
}

// NewIPRestrict creates a new IPRestrict middleware
func NewIPRestrict(logger *logrus.Logger, allowedIPs []string) *IPRestrict {
	return &IPRestrict{
		logger:     logger,
		allowedIPs: allowedIPs,
	}
}

// Restrict rejects requests from addresses outside the allowlist.
func (m *IPRestrict) Restrict() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if !m.isAllowed(clientIP) {
			// ClientIP follows X-Forwarded-For when proxies are trusted;
			// a direct loopback connection is still allowed regardless.
			remoteIP, _, _ := net.SplitHostPort(c.Request.RemoteAddr)
			if remoteIP == clientIP || !isLoopback(remoteIP) {
				m.logger.WithFields(logrus.Fields{
					"client_ip": clientIP,
					"path":      c.Request.URL.Path,
				}).Warn("Rejected access to restricted endpoint")
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"message": "This endpoint is only accessible from allowed IP addresses",
				})
				return
			}
		}
		c.Next()
	}
}

func (m *IPRestrict) isAllowed(ip string) bool {
	if isLoopback(ip) {
		return true
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}

	for _, allowed := range m.allowedIPs {
		allowed = strings.TrimSpace(allowed)
		if strings.Contains(allowed, "/") {
			_, ipNet, err := net.ParseCIDR(allowed)
			if err != nil {
				m.logger.WithField("cidr", allowed).Warn("Invalid CIDR in allowed IPs")
				continue
			}
			if ipNet.Contains(parsedIP) {
				return true
			}
		} else if allowedIP := net.ParseIP(allowed); allowedIP != nil && allowedIP.Equal(parsedIP) {
			return true
		}
	}
	return false
}

func isLoopback(ip string) bool {
	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return ip == "localhost"
	}
	return parsedIP.IsLoopback()
}
