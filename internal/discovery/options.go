package discovery

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Option is a functional option for configuring Scanner
type Option func(*Scanner)

// WithPortRange sets the ports to scan. Invalid lists are ignored.
// Format: "1099" or "1099,2099" or "1099-1110"
func WithPortRange(ports string) Option {
	return func(s *Scanner) {
		if validated, err := parsePorts(ports); err == nil {
			s.ports = validated
		}
	}
}

// WithPorts sets the ports to scan from a list
func WithPorts(ports []int) Option {
	parts := make([]string, 0, len(ports))
	for _, p := range ports {
		parts = append(parts, strconv.Itoa(p))
	}
	return WithPortRange(strings.Join(parts, ","))
}

// WithTimeout bounds the whole discovery run
func WithTimeout(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithConcurrency sets how many targets are scanned at once
func WithConcurrency(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithServiceDetection enables or disables service version detection (-sV)
func WithServiceDetection(enabled bool) Option {
	return func(s *Scanner) {
		s.serviceDetection = enabled
	}
}

// WithSkipHostDiscovery treats all hosts as online (-Pn).
// Useful for networks that block ICMP
func WithSkipHostDiscovery(skip bool) Option {
	return func(s *Scanner) {
		s.skipHostDiscovery = skip
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.log = l
		}
	}
}
