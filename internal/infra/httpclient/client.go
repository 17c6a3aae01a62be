package httpclient

import (
	"net"
	"net/http"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"

	"github.com/uniedit/filelink/internal/shared/config"
)

// New creates the pooled HTTP client for object store and token service calls.
// The SDK's buildable client is used so config loading can still layer a
// custom CA bundle onto the transport. Zero values keep the SDK defaults.
//
// There is no overall request timeout: uploads stream large bodies, so only
// the wait for response headers is bounded by ResponseTimeout.
func New(cfg config.HTTPClientConfig) *awshttp.BuildableClient {
	return awshttp.NewBuildableClient().
		WithDialerOptions(func(d *net.Dialer) {
			if cfg.DialTimeout > 0 {
				d.Timeout = cfg.DialTimeout
			}
			if cfg.KeepAlive > 0 {
				d.KeepAlive = cfg.KeepAlive
			}
		}).
		WithTransportOptions(func(tr *http.Transport) {
			if cfg.MaxIdleConns > 0 {
				tr.MaxIdleConns = cfg.MaxIdleConns
			}
			if cfg.MaxIdleConnsPerHost > 0 {
				tr.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
			}
			if cfg.MaxConnsPerHost > 0 {
				tr.MaxConnsPerHost = cfg.MaxConnsPerHost
			}
			if cfg.IdleConnTimeout > 0 {
				tr.IdleConnTimeout = cfg.IdleConnTimeout
			}
			if cfg.TLSHandshakeTimeout > 0 {
				tr.TLSHandshakeTimeout = cfg.TLSHandshakeTimeout
			}
			if cfg.ResponseTimeout > 0 {
				tr.ResponseHeaderTimeout = cfg.ResponseTimeout
			}
		})
}
