package share

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/skip2/go-qrcode"
)

const DefaultSize = 256

// QRGenerator renders PNG QR codes pointing at the landing page and caches
// them per target URL.
type QRGenerator struct {
	baseURL string
	size    int

	mu    sync.Mutex
	cache map[string][]byte
}

func NewQRGenerator(baseURL string, size int) *QRGenerator {
	if size <= 0 {
		size = DefaultSize
	}
	return &QRGenerator{baseURL: baseURL, size: size, cache: make(map[string][]byte)}
}

// Target is the URL encoded for product, or the bare page when product is empty.
func (q *QRGenerator) Target(product string) string {
	if product == "" {
		return q.baseURL + "/"
	}
	return q.baseURL + "/?produto=" + url.QueryEscape(product)
}

func (q *QRGenerator) PNG(product string) ([]byte, error) {
	target := q.Target(product)

	q.mu.Lock()
	defer q.mu.Unlock()

	if png, ok := q.cache[target]; ok {
		return png, nil
	}

	png, err := qrcode.Encode(target, qrcode.Medium, q.size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code for %s: %w", target, err)
	}
	q.cache[target] = png
	return png, nil
}
