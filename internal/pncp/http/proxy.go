package http

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/logging"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/metrics"
)

// hopHeaders are connection-scoped and must not be forwarded.
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
	"Host":                true,
	"Origin":              true,
	"Referer":             true,
}

// Proxy forwards browser calls to the public PNCP API, which does not send
// CORS headers itself.
type Proxy struct {
	UpstreamURL string
	client      *http.Client
}

func NewProxy(upstreamURL string, timeout time.Duration) *Proxy {
	return &Proxy{
		UpstreamURL: strings.TrimRight(upstreamURL, "/"),
		client:      &http.Client{Timeout: timeout},
	}
}

func (p *Proxy) Register(rg *gin.RouterGroup) {
	rg.Any("/pncp/*path", p.forward)
}

func (p *Proxy) forward(c *gin.Context) {
	setCORS(c)
	if c.Request.Method == http.MethodOptions {
		c.Status(http.StatusNoContent)
		return
	}

	url := p.UpstreamURL + c.Param("path")
	if qs := c.Request.URL.RawQuery; qs != "" {
		url += "?" + qs
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, url, c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
		return
	}
	for k, vs := range c.Request.Header {
		if hopHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	metrics.RecordUpstreamCall("pncp_proxy", time.Since(start), err)
	if err != nil {
		logging.NewLogger(c.Request.Context()).LogError("pncp_proxy", err)
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
		return
	}
	defer resp.Body.Close()

	proxyResponse(c, resp)
}

// proxyResponse forwards an HTTP response from upstream to the client
func proxyResponse(c *gin.Context, resp *http.Response) {
	for k, v := range resp.Header {
		if hopHeaders[k] || strings.HasPrefix(k, "Access-Control-") {
			continue
		}
		if len(v) > 0 {
			c.Header(k, v[0])
		}
	}

	c.Status(resp.StatusCode)
	_, _ = io.Copy(c.Writer, resp.Body)
}

func setCORS(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
}
