package homee

import (
	"context"
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubnetHosts(t *testing.T) {
	hosts := subnetHosts(net.ParseIP("192.168.1.50"))

	assert.Len(t, hosts, 253)
	assert.Equal(t, "192.168.1.1", hosts[0])
	assert.Equal(t, "192.168.1.254", hosts[len(hosts)-1])
	assert.NotContains(t, hosts, "192.168.1.50")
	assert.NotContains(t, hosts, "192.168.1.0")
	assert.NotContains(t, hosts, "192.168.1.255")
}

func TestSubnetHosts_IPv6(t *testing.T) {
	assert.Nil(t, subnetHosts(net.ParseIP("fe80::1")))
}

func TestScan_SortedHits(t *testing.T) {
	candidates := subnetHosts(net.ParseIP("10.0.0.1"))
	hits := map[string]bool{
		"10.0.0.200:7681": true,
		"10.0.0.9:7681":   true,
		"10.0.0.30:7681":  true,
	}

	var probes atomic.Int32
	results := scan(context.Background(), candidates, DefaultPort, func(ctx context.Context, addr string) bool {
		probes.Add(1)
		return hits[addr]
	})

	assert.Equal(t, int32(len(candidates)), probes.Load())
	require.Len(t, results, 3)
	assert.Equal(t, "10.0.0.9", results[0].IP)
	assert.Equal(t, "10.0.0.30", results[1].IP)
	assert.Equal(t, "10.0.0.200:7681", results[2].Addr())
}

func TestScan_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var probes atomic.Int32
	results := scan(ctx, subnetHosts(net.ParseIP("10.0.0.1")), DefaultPort, func(ctx context.Context, addr string) bool {
		probes.Add(1)
		return true
	})

	// select picks randomly between ready cases, so a few probes may start.
	assert.Less(t, int(probes.Load()), 253)
	assert.Len(t, results, int(probes.Load()))
}

func TestDialProbe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	assert.True(t, dialProbe(context.Background(), addr))

	ln.Close()
	assert.False(t, dialProbe(context.Background(), addr))
}
