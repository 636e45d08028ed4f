// Package http は外部API呼び出し用のHTTPクライアントを提供します。
package http

import (
	"net"
	"net/http"
	"time"
)

// DefaultUserAgent は上流APIへ送るUser-Agentです。一部の相場APIは空のUser-Agentを拒否します。
const DefaultUserAgent = "Mozilla/5.0 (compatible; stock-trader/1.0)"

// NewHTTPClient は外部API呼び出し用に設定されたHTTPクライアントを作成します。
//
// 設定:
//   - Proxy: 環境変数（HTTP_PROXYなど）が設定されている場合に使用
//   - Dialer.Timeout: TCP接続タイムアウト
//   - MaxIdleConnsPerHost: 相場APIへの並列取得（最大10並列）に合わせた値
//   - Client.Timeout: リクエスト全体のタイムアウト（呼び出し元から渡される）
//
// http.DefaultClientにはタイムアウトがないため、外部呼び出しには常にこのクライアントを使用すること。
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: &headerTransport{base: t, userAgent: DefaultUserAgent}}
}

// headerTransport はリクエストに既定ヘッダーを付与します。
type headerTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (h *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return h.base.RoundTrip(req)
	}
	// RoundTripper はリクエストを変更してはならないため複製する
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", h.userAgent)
	return h.base.RoundTrip(r)
}
