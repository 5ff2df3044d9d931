// Package discovery finds hosts that run a belief-network naming service by
// scanning target hosts and networks with nmap.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"golang.org/x/sync/errgroup"

	"bnshell/internal/domain"
)

// Scanner looks for open naming-service ports on a set of targets.
type Scanner struct {
	ports             string
	timeout           time.Duration
	concurrency       int
	serviceDetection  bool
	skipHostDiscovery bool
	log               *slog.Logger

	// scan runs one nmap scan; replaced in tests.
	scan func(ctx context.Context, target string) (*nmap.Run, error)
}

// NewScanner creates a scanner. By default it probes the registry port 1099.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		ports:       strconv.Itoa(domain.DefaultRegistryPort),
		timeout:     2 * time.Minute,
		concurrency: 4,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.scan = s.runNmap
	return s
}

// Discover scans every target concurrently and returns the candidates sorted by
// address. A failing target cancels the remaining scans.
func (s *Scanner) Discover(ctx context.Context, targets []string) ([]domain.ContextCandidate, error) {
	expanded, err := expandTargets(targets)
	if err != nil {
		return nil, err
	}
	if len(expanded) == 0 {
		return nil, fmt.Errorf("no targets to scan")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		mu         sync.Mutex
		candidates []domain.ContextCandidate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, target := range expanded {
		g.Go(func() error {
			s.log.Info("scanning target", "target", target, "ports", s.ports)
			result, err := s.scan(gctx, target)
			if err != nil {
				return fmt.Errorf("scan %s: %w", target, err)
			}
			found := processRun(result)
			s.log.Info("scan complete", "target", target, "candidates", len(found))

			mu.Lock()
			candidates = append(candidates, found...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return dedupe(candidates), nil
}

// runNmap performs one nmap scan of target
func (s *Scanner) runNmap(ctx context.Context, target string) (*nmap.Run, error) {
	opts := []nmap.Option{
		nmap.WithTargets(target),
		nmap.WithPorts(s.ports),
	}
	if s.serviceDetection {
		opts = append(opts, nmap.WithServiceInfo())
	}
	if s.skipHostDiscovery {
		opts = append(opts, nmap.WithSkipHostDiscovery())
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	if warnings != nil && len(*warnings) > 0 {
		s.log.Warn("nmap warnings", "target", target, "warnings", *warnings)
	}
	return result, nil
}

// processRun turns the open ports of every host that is up into candidates
func processRun(result *nmap.Run) []domain.ContextCandidate {
	if result == nil {
		return nil
	}

	var out []domain.ContextCandidate
	for _, host := range result.Hosts {
		if len(host.Addresses) == 0 || host.Status.State != "up" {
			continue
		}

		ip := ""
		for _, addr := range host.Addresses {
			if addr.AddrType == "ipv4" {
				ip = addr.Addr
				break
			}
		}
		if ip == "" {
			ip = host.Addresses[0].Addr
		}

		hostname := ""
		if len(host.Hostnames) > 0 {
			hostname = host.Hostnames[0].Name
		}

		for _, port := range host.Ports {
			if port.State.State != "open" {
				continue
			}
			out = append(out, domain.ContextCandidate{
				Host:     ip,
				Port:     int(port.ID),
				Hostname: hostname,
				Service:  port.Service.Name,
			})
		}
	}
	return out
}

func dedupe(in []domain.ContextCandidate) []domain.ContextCandidate {
	seen := make(map[string]bool, len(in))
	out := make([]domain.ContextCandidate, 0, len(in))
	for _, c := range in {
		key := c.Address()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Host != out[j].Host {
			return out[i].Host < out[j].Host
		}
		return out[i].Port < out[j].Port
	})
	return out
}

// expandTargets validates CIDR targets; hostnames and single addresses pass through
func expandTargets(targets []string) ([]string, error) {
	var expanded []string
	for _, target := range targets {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if strings.Contains(target, "/") {
			_, ipNet, err := net.ParseCIDR(target)
			if err != nil {
				return nil, fmt.Errorf("invalid CIDR %s: %w", target, err)
			}
			// nmap expands CIDR itself
			expanded = append(expanded, ipNet.String())
		} else {
			expanded = append(expanded, target)
		}
	}
	return expanded, nil
}

// parsePorts validates a port list: "1099", "1099,2099" or "1099-1110"
func parsePorts(portRange string) (string, error) {
	if strings.TrimSpace(portRange) == "" {
		return "", fmt.Errorf("empty port list")
	}
	parts := strings.Split(portRange, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if strings.Contains(part, "-") {
			rangeParts := strings.Split(part, "-")
			if len(rangeParts) != 2 {
				return "", fmt.Errorf("invalid port range: %s", part)
			}
			start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
			if err != nil || start < 1 || start > 65535 {
				return "", fmt.Errorf("invalid port number: %s", rangeParts[0])
			}
			end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
			if err != nil || end < 1 || end > 65535 || end < start {
				return "", fmt.Errorf("invalid port number: %s", rangeParts[1])
			}
		} else {
			port, err := strconv.Atoi(part)
			if err != nil || port < 1 || port > 65535 {
				return "", fmt.Errorf("invalid port number: %s", part)
			}
		}
	}
	return portRange, nil
}
