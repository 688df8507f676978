package homee

import (
	"context"
	"fmt"
	"net"
	"slices"
	"strconv"
	"sync"
	"time"
)

// DiscoveryResult represents a host that accepted a connection on the hub
// port.
type DiscoveryResult struct {
	IP   string
	Port int
}

// Addr returns the host:port of the result.
func (r DiscoveryResult) Addr() string {
	return net.JoinHostPort(r.IP, strconv.Itoa(r.Port))
}

const (
	discoveryProbeTimeout = 200 * time.Millisecond
	discoveryWorkers      = 64
)

type probeFunc func(ctx context.Context, addr string) bool

// Discover searches the local IPv4 /24 networks for hosts listening on
// port, which is DefaultPort for a homee hub.
// If the context has no deadline, a 3-second timeout is applied.
func Discover(ctx context.Context, port int) ([]DiscoveryResult, error) {
	ctx, cancel := withDefaultTimeout(ctx, 3*time.Second)
	defer cancel()

	ips, err := getLocalIPs()
	if err != nil {
		return nil, fmt.Errorf("get local IPs: %w", err)
	}

	var candidates []string
	for _, ip := range ips {
		candidates = append(candidates, subnetHosts(ip)...)
	}

	return scan(ctx, candidates, port, dialProbe), nil
}

func dialProbe(ctx context.Context, addr string) bool {
	ctx, cancel := context.WithTimeout(ctx, discoveryProbeTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// scan probes every candidate with a bounded number of workers and returns
// the hits sorted by address.
func scan(ctx context.Context, candidates []string, port int, probe probeFunc) []DiscoveryResult {
	var (
		mu      sync.Mutex
		results []DiscoveryResult
		wg      sync.WaitGroup
	)

	sem := make(chan struct{}, discoveryWorkers)
loop:
	for _, ip := range candidates {
		select {
		case <-ctx.Done():
			break loop
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(ip string) {
			defer wg.Done()
			defer func() { <-sem }()
			if probe(ctx, net.JoinHostPort(ip, strconv.Itoa(port))) {
				mu.Lock()
				results = append(results, DiscoveryResult{IP: ip, Port: port})
				mu.Unlock()
			}
		}(ip)
	}
	wg.Wait()

	slices.SortFunc(results, func(a, b DiscoveryResult) int {
		return compareIPs(net.ParseIP(a.IP), net.ParseIP(b.IP))
	})
	return results
}

func compareIPs(a, b net.IP) int {
	a4, b4 := a.To4(), b.To4()
	for i := range a4 {
		if a4[i] != b4[i] {
			return int(a4[i]) - int(b4[i])
		}
	}
	return 0
}

// subnetHosts lists .1 through .254 of the /24 network containing ip,
// excluding ip itself.
func subnetHosts(ip net.IP) []string {
	ip4 := ip.To4()
	if ip4 == nil {
		return nil
	}

	hosts := make([]string, 0, 253)
	for i := 1; i < 255; i++ {
		if byte(i) == ip4[3] {
			continue
		}
		hosts = append(hosts, net.IPv4(ip4[0], ip4[1], ip4[2], byte(i)).String())
	}
	return hosts
}

func getLocalIPs() ([]net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}

	var ips []net.IP
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				ips = append(ips, ipnet.IP)
			}
		}
	}
	return ips, nil
}
