// Network collector: connectivity state, WiFi and cellular details, and
// per-interface traffic counters. Uses the kernel routing table for the
// active transport and gopsutil for interface data.
package collector

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/net"
	"go.uber.org/zap"

	"github.com/vitalis-app/deviceinfo/models"
	"github.com/vitalis-app/deviceinfo/platform"
	"github.com/vitalis-app/deviceinfo/result"
)

// Connection type labels.
const (
	ConnectionWiFi               = "WiFi"
	ConnectionCellular           = "Cellular"
	ConnectionEthernet           = "Ethernet"
	ConnectionUnknown            = "Unknown"
	ConnectionPermissionRequired = "Permission Required"
)

// Capability labels of the active network.
const (
	CapabilityInternet  = "Internet"
	CapabilityValidated = "Validated"
	CapabilityUnmetered = "Unmetered"
	CapabilityDirect    = "Direct"
	CapabilityVPN       = "VPN"
)

// Interface type labels used in models.InterfaceInfo.Type.
const (
	ifaceWiFi     = "wifi"
	ifaceCellular = "cellular"
	ifaceEthernet = "ethernet"
	ifaceVPN      = "vpn"
	ifaceLoopback = "loopback"
	ifaceVirtual  = "virtual"
	ifaceOther    = "other"
)

// randomizedMAC is what Android reports for the WiFi MAC from API 23 on.
const randomizedMAC = "02:00:00:00:00:00"

const procNetRoute = "/proc/net/route"

// NetworkCollector collects network connectivity and WiFi information.
type NetworkCollector struct {
	base

	interfaces func(ctx context.Context) (net.InterfaceStatList, error)
	ioCounters func(ctx context.Context, pernic bool) ([]net.IOCountersStat, error)
}

// NewNetworkCollector creates a network collector.
func NewNetworkCollector(p platform.Platform, logger *zap.Logger) *NetworkCollector {
	return &NetworkCollector{
		base: newBase(p, logger, platform.APIIceCreamSandwich,
			"Network connectivity and WiFi information",
			platform.AccessNetworkState, platform.AccessWifiState),
		interfaces: net.InterfacesWithContext,
		ioCounters: net.IOCountersWithContext,
	}
}

// IsAvailable additionally requires the network state permission.
func (c *NetworkCollector) IsAvailable() bool {
	return c.checkAPILevel() && c.platform.HasPermission(platform.AccessNetworkState)
}

// Collect gathers the network information. Each part is gated on its own
// permission; a missing permission blanks that part only.
func (c *NetworkCollector) Collect(ctx context.Context) result.Result[models.NetworkInfo] {
	return safeExecute(&c.base, func() (models.NetworkInfo, error) {
		canNetwork := c.platform.HasPermission(platform.AccessNetworkState)
		canWiFi := c.platform.HasPermission(platform.AccessWifiState)
		canPhone := c.platform.HasPermission(platform.ReadPhoneState)

		ifaces := c.interfaceList(ctx)
		info := models.NetworkInfo{
			CheckedAt:      c.now(),
			ConnectionType: ConnectionPermissionRequired,
			Capabilities:   []string{},
			Interfaces:     []models.InterfaceInfo{},
		}

		if canNetwork {
			active := c.activeNetwork(ifaces)
			info.ConnectionType = active.connectionType()
			info.IsConnected = active.connected()
			info.VPNActive = active.vpn
			info.Capabilities = active.capabilities()
			info.Interfaces = ifaces
		}
		if canWiFi {
			info.WiFi = c.wifiDetails(ctx, ifaces)
		}
		if canPhone {
			info.Cellular = c.cellularDetails(ctx)
		}
		return info, nil
	})
}

// interfaceList returns every interface with its traffic counters.
func (c *NetworkCollector) interfaceList(ctx context.Context) []models.InterfaceInfo {
	stats, err := c.interfaces(ctx)
	if err != nil {
		c.logger.Debug("Interface list unavailable", zap.Error(err))
		return []models.InterfaceInfo{}
	}

	counters := make(map[string]net.IOCountersStat)
	if io, err := c.ioCounters(ctx, true); err == nil {
		for _, cnt := range io {
			counters[cnt.Name] = cnt
		}
	} else {
		c.logger.Debug("Interface counters unavailable", zap.Error(err))
	}

	out := make([]models.InterfaceInfo, 0, len(stats))
	for _, s := range stats {
		iface := models.InterfaceInfo{
			Index:     s.Index,
			Name:      s.Name,
			Type:      classifyInterface(s.Name),
			MAC:       s.HardwareAddr,
			Up:        hasFlag(s.Flags, "up"),
			MTU:       s.MTU,
			BytesRecv: counters[s.Name].BytesRecv,
			BytesSent: counters[s.Name].BytesSent,
		}
		if hasFlag(s.Flags, "loopback") {
			iface.Type = ifaceLoopback
		}
		for _, a := range s.Addrs {
			iface.Addrs = append(iface.Addrs, a.Addr)
		}
		out = append(out, iface)
	}
	return out
}

// activeNetwork describes the interface carrying the default route.
type activeNetwork struct {
	iface *models.InterfaceInfo
	vpn   bool
}

func (a activeNetwork) connectionType() string {
	if a.iface == nil {
		return ConnectionUnknown
	}
	switch a.iface.Type {
	case ifaceWiFi:
		return ConnectionWiFi
	case ifaceCellular:
		return ConnectionCellular
	case ifaceEthernet:
		return ConnectionEthernet
	default:
		return ConnectionUnknown
	}
}

// connected requires an up interface with a routable address.
func (a activeNetwork) connected() bool {
	return a.iface != nil && a.iface.Up && hasRoutableAddr(a.iface.Addrs)
}

func (a activeNetwork) capabilities() []string {
	caps := []string{}
	if a.iface == nil {
		return caps
	}
	caps = append(caps, CapabilityInternet)
	if a.connected() {
		caps = append(caps, CapabilityValidated)
	}
	if a.iface.Type == ifaceWiFi || a.iface.Type == ifaceEthernet {
		caps = append(caps, CapabilityUnmetered)
	}
	if a.vpn {
		caps = append(caps, CapabilityVPN)
	} else {
		caps = append(caps, CapabilityDirect)
	}
	return caps
}

// activeNetwork picks the underlying transport of the lowest-metric
// default route. A VPN interface in front of it sets the vpn flag.
// Android keeps default routes in per-network policy tables, so when the
// main table has none the first up physical interface with an address is
// used.
func (c *NetworkCollector) activeNetwork(ifaces []models.InterfaceInfo) activeNetwork {
	byName := make(map[string]*models.InterfaceInfo, len(ifaces))
	var active activeNetwork
	for i := range ifaces {
		byName[ifaces[i].Name] = &ifaces[i]
		if ifaces[i].Type == ifaceVPN && ifaces[i].Up {
			active.vpn = true
		}
	}

	if data, err := c.platform.ReadFile(procNetRoute); err == nil {
		for _, name := range parseDefaultRoutes(string(data)) {
			iface, ok := byName[name]
			if !ok {
				iface = &models.InterfaceInfo{Name: name, Type: classifyInterface(name), Up: true}
			}
			if iface.Type == ifaceVPN {
				active.vpn = true
				continue
			}
			active.iface = iface
			return active
		}
	}

	for _, preferred := range []string{ifaceWiFi, ifaceEthernet, ifaceCellular} {
		for i := range ifaces {
			if ifaces[i].Type == preferred && ifaces[i].Up && hasRoutableAddr(ifaces[i].Addrs) {
				active.iface = &ifaces[i]
				return active
			}
		}
	}
	return active
}

type defaultRoute struct {
	iface  string
	metric int
}

// parseDefaultRoutes returns the interfaces of the up default routes in
// /proc/net/route, lowest metric first.
func parseDefaultRoutes(content string) []string {
	var routes []defaultRoute
	for i, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if i == 0 || len(fields) < 8 {
			continue
		}
		if fields[1] != "00000000" || fields[7] != "00000000" {
			continue
		}
		flags, err := strconv.ParseUint(fields[3], 16, 32)
		if err != nil || flags&0x1 == 0 {
			continue
		}
		metric, _ := strconv.Atoi(fields[6])
		routes = append(routes, defaultRoute{iface: fields[0], metric: metric})
	}
	sort.SliceStable(routes, func(i, j int) bool { return routes[i].metric < routes[j].metric })

	names := make([]string, 0, len(routes))
	for _, r := range routes {
		names = append(names, r.iface)
	}
	return names
}

// classifyInterface maps an interface name to a type label.
func classifyInterface(name string) string {
	lower := strings.ToLower(name)
	hasPrefix := func(prefixes ...string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(lower, p) {
				return true
			}
		}
		return false
	}

	switch {
	case lower == "lo" || hasPrefix("lo0"):
		return ifaceLoopback
	case hasPrefix("tun", "tap", "ppp", "wg", "ipsec", "utun", "tailscale"):
		return ifaceVPN
	case hasPrefix("veth", "br-", "docker", "cni", "flannel", "vxlan", "virbr", "dummy", "p2p", "ifb", "sit", "ip6tnl", "ip_vti", "gre"):
		return ifaceVirtual
	case hasPrefix("wlan", "wl", "swlan"):
		return ifaceWiFi
	case hasPrefix("rmnet", "ccmni", "wwan", "ww", "pdp", "seth", "rev_rmnet"):
		return ifaceCellular
	case hasPrefix("eth", "en"):
		return ifaceEthernet
	default:
		return ifaceOther
	}
}

// hasRoutableAddr reports whether any address is neither loopback nor
// link-local.
func hasRoutableAddr(addrs []string) bool {
	for _, a := range addrs {
		ip := stripPrefixLen(a)
		if ip == "" || strings.HasPrefix(ip, "127.") || ip == "::1" ||
			strings.HasPrefix(ip, "169.254.") || strings.HasPrefix(strings.ToLower(ip), "fe80:") {
			continue
		}
		return true
	}
	return false
}

// firstIPv4 returns the first IPv4 address without its prefix length.
func firstIPv4(addrs []string) string {
	for _, a := range addrs {
		if ip := stripPrefixLen(a); ip != "" && !strings.Contains(ip, ":") {
			return ip
		}
	}
	return ""
}

func stripPrefixLen(addr string) string {
	ip, _, _ := strings.Cut(addr, "/")
	return ip
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}
