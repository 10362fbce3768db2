// Package httpclient manages pooled HTTP clients shared across outbound integrations.
package httpclient

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// Config defines the parameters for creating an HTTP client.
// This struct is used to generate a unique fingerprint for client reuse.
type Config struct {
	ConnectTimeout        time.Duration
	RequestTimeout        time.Duration
	IdleConnTimeout       time.Duration
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	ResponseHeaderTimeout time.Duration
	TLSHandshakeTimeout   time.Duration
	ExpectContinueTimeout time.Duration
}

// getFingerprint returns a stable key identifying this configuration.
func (c *Config) getFingerprint() string {
	return fmt.Sprintf("%v|%v|%v|%d|%d|%v|%v|%v",
		c.ConnectTimeout, c.RequestTimeout, c.IdleConnTimeout,
		c.MaxIdleConns, c.MaxIdleConnsPerHost,
		c.ResponseHeaderTimeout, c.TLSHandshakeTimeout, c.ExpectContinueTimeout)
}

// HTTPClientManager manages the lifecycle of HTTP clients.
// It creates and caches clients based on their configuration fingerprint,
// ensuring that clients with the same configuration are reused.
type HTTPClientManager struct {
	clients map[string]*http.Client
	lock    sync.RWMutex
}

// NewHTTPClientManager creates a new client manager.
func NewHTTPClientManager() *HTTPClientManager {
	return &HTTPClientManager{
		clients: make(map[string]*http.Client),
	}
}

// GetClient returns an HTTP client that matches the given configuration.
// If a matching client already exists in the cache, it is returned.
// Otherwise, a new client is created, cached, and returned.
func (m *HTTPClientManager) GetClient(config *Config) *http.Client {
	fingerprint := config.getFingerprint()

	// Fast path with read lock
	m.lock.RLock()
	client, exists := m.clients[fingerprint]
	m.lock.RUnlock()
	if exists {
		return client
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	// Double-check in case another goroutine created the client while we
	// were waiting for the lock.
	if client, exists = m.clients[fingerprint]; exists {
		return client
	}

	// 2x the idle pool with a floor of 10 allows temporary bursts beyond the
	// idle pool size without connection queuing.
	maxConnsPerHost := config.MaxIdleConnsPerHost * 2
	if maxConnsPerHost < 10 {
		maxConnsPerHost = 10
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   config.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		MaxConnsPerHost:       maxConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ExpectContinueTimeout: config.ExpectContinueTimeout,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
	}

	client = &http.Client{
		Transport: transport,
		Timeout:   config.RequestTimeout,
	}
	m.clients[fingerprint] = client
	return client
}

// CloseIdleConnections closes idle connections for all managed clients.
func (m *HTTPClientManager) CloseIdleConnections() {
	m.lock.RLock()
	defer m.lock.RUnlock()
	for _, client := range m.clients {
		if transport, ok := client.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
	}
}
