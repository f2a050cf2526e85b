package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AllowIPs restricts a route to the listed addresses or CIDR ranges. An empty list
// allows everyone.
func AllowIPs(allowed []string) gin.HandlerFunc {
	var nets []*net.IPNet
	var ips []net.IP
	for _, a := range allowed {
		if _, n, err := net.ParseCIDR(a); err == nil {
			nets = append(nets, n)
			continue
		}
		if ip := net.ParseIP(a); ip != nil {
			ips = append(ips, ip)
		}
	}

	return func(c *gin.Context) {
		if len(allowed) == 0 {
			c.Next()
			return
		}
		ip := net.ParseIP(c.ClientIP())
		if ip != nil {
			for _, n := range nets {
				if n.Contains(ip) {
					c.Next()
					return
				}
			}
			for _, a := range ips {
				if a.Equal(ip) {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	}
}
