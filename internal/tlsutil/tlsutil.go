package tlsutil

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// aeadSuites TLS 1.2 下允许的密码套件，TLS 1.3 套件由运行时固定
var aeadSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
}

// DefaultTLSConfig 返回加固后的 TLS 配置，每次调用返回独立副本
func DefaultTLSConfig() *tls.Config {
	suites := make([]uint16, len(aeadSuites))
	copy(suites, aeadSuites)
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		CipherSuites: suites,
	}
}

// pool 描述一类目标的拨号与连接池参数
type pool struct {
	dial        time.Duration
	keepAlive   time.Duration
	maxIdle     int
	perHost     int
	idleTimeout time.Duration
	proxy       bool
}

var (
	// 云端：经代理，单设备并发很低
	cloudPool = pool{dial: 10 * time.Second, keepAlive: 30 * time.Second, maxIdle: 8, perHost: 4, idleTimeout: 90 * time.Second, proxy: true}
	// 本机或局域网：快速失败，停掉的 sidecar 直接报错而不是挂起
	localPool = pool{dial: 2 * time.Second, keepAlive: 15 * time.Second, maxIdle: 4, perHost: 2, idleTimeout: 30 * time.Second}
)

func (p pool) transport() *http.Transport {
	t := &http.Transport{
		TLSClientConfig: DefaultTLSConfig(),
		DialContext: (&net.Dialer{
			Timeout:   p.dial,
			KeepAlive: p.keepAlive,
		}).DialContext,
		MaxIdleConns:        p.maxIdle,
		MaxIdleConnsPerHost: p.perHost,
		IdleConnTimeout:     p.idleTimeout,
	}
	if p.proxy {
		t.Proxy = http.ProxyFromEnvironment
		t.ForceAttemptHTTP2 = true
		t.TLSHandshakeTimeout = 10 * time.Second
		t.ExpectContinueTimeout = time.Second
	}
	return t
}

// SecureTransport 云端端点使用的 Transport
func SecureTransport() *http.Transport {
	return cloudPool.transport()
}

// SecureHTTPClient 云端端点使用的客户端（OpenAI、Deepgram、ElevenLabs）
func SecureHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout, Transport: cloudPool.transport()}
}

// LocalHTTPClient 本机或局域网服务使用的客户端（llama-server、LLM-8850、OCR、摄像头）
func LocalHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout, Transport: localPool.transport()}
}
