package collector

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vitalis-app/deviceinfo/models"
	"github.com/vitalis-app/deviceinfo/platform"
)

const procNetWireless = "/proc/net/wireless"

// cellularNetworkTypes maps radio technology names reported in
// gsm.network.type to display labels.
var cellularNetworkTypes = map[string]string{
	"GPRS":  "GPRS",
	"EDGE":  "EDGE",
	"UMTS":  "UMTS",
	"HSDPA": "HSDPA",
	"HSUPA": "HSUPA",
	"HSPA":  "HSPA",
	"LTE":   "LTE",
	"EHRPD": "eHRPD",
	"HSPAP": "HSPA+",
	"HSPA+": "HSPA+",
}

// wifiLink is the association state of a wireless interface.
type wifiLink struct {
	connected bool
	ssid      string
	bssid     string
	signal    int
	frequency int
	txRate    int
}

// wifiDetails returns the association of the first up wireless interface,
// or nil when none is associated.
func (c *NetworkCollector) wifiDetails(ctx context.Context, ifaces []models.InterfaceInfo) *models.WiFiDetails {
	wireless := map[string]int{}
	if data, err := c.platform.ReadFile(procNetWireless); err == nil {
		wireless = parseProcWireless(string(data))
	}

	for _, iface := range ifaces {
		if iface.Type != ifaceWiFi || !iface.Up {
			continue
		}
		link, ok := c.linkState(ctx, iface, wireless)
		if !ok || !link.connected {
			continue
		}
		return &models.WiFiDetails{
			SSID:           optional(cleanSSID(link.ssid)),
			BSSID:          optional(link.bssid),
			SignalStrength: link.signal,
			LinkSpeed:      link.txRate,
			Frequency:      link.frequency,
			IPAddress:      optional(firstIPv4(iface.Addrs)),
			MACAddress:     optional(c.wifiMAC(iface)),
			NetworkID:      iface.Index,
		}
	}
	return nil
}

// linkState asks iw for the association; without iw an interface listed
// in /proc/net/wireless that holds an IPv4 address counts as associated,
// with only the signal level known.
func (c *NetworkCollector) linkState(ctx context.Context, iface models.InterfaceInfo, wireless map[string]int) (wifiLink, bool) {
	out, err := c.platform.Run(ctx, "iw", "dev", iface.Name, "link")
	if err == nil {
		return parseIWLink(out), true
	}
	c.logger.Debug("iw unavailable", zap.String("interface", iface.Name), zap.Error(err))

	level, ok := wireless[iface.Name]
	if !ok || firstIPv4(iface.Addrs) == "" {
		return wifiLink{}, false
	}
	return wifiLink{connected: true, signal: level, frequency: -1, txRate: -1}, true
}

// wifiMAC hides the hardware address the way Android does from API 23 on.
func (c *NetworkCollector) wifiMAC(iface models.InterfaceInfo) string {
	if platform.IsAndroid(c.platform) && c.platform.APILevel() >= platform.APIMarshmallow {
		return randomizedMAC
	}
	return iface.MAC
}

// parseIWLink parses `iw dev <if> link` output:
//
//	Connected to aa:bb:cc:dd:ee:ff (on wlan0)
//		SSID: home
//		freq: 2437
//		signal: -52 dBm
//		tx bitrate: 72.2 MBit/s
func parseIWLink(out string) wifiLink {
	link := wifiLink{frequency: -1, txRate: -1}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Connected to "):
			link.connected = true
			if fields := strings.Fields(line); len(fields) >= 3 {
				link.bssid = fields[2]
			}
		case strings.HasPrefix(line, "SSID:"):
			link.ssid = strings.TrimSpace(strings.TrimPrefix(line, "SSID:"))
		case strings.HasPrefix(line, "freq:"):
			link.frequency = leadingInt(strings.TrimPrefix(line, "freq:"))
		case strings.HasPrefix(line, "signal:"):
			link.signal = leadingInt(strings.TrimPrefix(line, "signal:"))
		case strings.HasPrefix(line, "tx bitrate:"):
			link.txRate = leadingInt(strings.TrimPrefix(line, "tx bitrate:"))
		}
	}
	return link
}

// parseProcWireless maps interface names to the signal level column of
// /proc/net/wireless. The two header lines are skipped.
func parseProcWireless(content string) map[string]int {
	levels := make(map[string]int)
	for i, line := range strings.Split(content, "\n") {
		if i < 2 {
			continue
		}
		name, rest, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) < 3 {
			continue
		}
		levels[name] = leadingInt(fields[2])
	}
	return levels
}

// leadingInt parses the numeric prefix of s ("-52 dBm", "72.2 MBit/s",
// "-40."), truncating any fraction. Returns -1 when s has no number.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] == '-' || s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return -1
	}
	return int(f)
}

// cleanSSID strips the quotes Android wraps SSIDs in and drops the
// placeholder reported when location access is missing.
func cleanSSID(ssid string) string {
	if len(ssid) >= 2 && strings.HasPrefix(ssid, `"`) && strings.HasSuffix(ssid, `"`) {
		ssid = ssid[1 : len(ssid)-1]
	}
	if ssid == "<unknown ssid>" {
		return ""
	}
	return ssid
}

// cellularDetails reads the registered operator from the telephony
// properties. Multi-SIM devices report comma-separated values; the first
// slot is used. Returns nil on devices without telephony.
func (c *NetworkCollector) cellularDetails(ctx context.Context) *models.CellularDetails {
	prop := func(key string) string {
		v, _, _ := strings.Cut(c.platform.Property(ctx, key), ",")
		return strings.TrimSpace(v)
	}

	carrier := prop("gsm.operator.alpha")
	iso := prop("gsm.operator.iso-country")
	numeric := prop("gsm.operator.numeric")
	radio := prop("gsm.network.type")
	if carrier == "" && iso == "" && numeric == "" && radio == "" {
		return nil
	}

	mcc, mnc := splitOperator(numeric)
	return &models.CellularDetails{
		CarrierName:       optional(carrier),
		CountryISO:        optional(iso),
		MobileCountryCode: optional(mcc),
		MobileNetworkCode: optional(mnc),
		NetworkType:       cellularNetworkType(radio),
		IsRoaming:         parseBoolProp(prop("gsm.operator.isroaming")),
	}
}

// splitOperator splits an MCC+MNC string ("310260") into its 3-digit
// country code and the remaining network code.
func splitOperator(numeric string) (mcc, mnc string) {
	if len(numeric) < 3 {
		return "", ""
	}
	return numeric[:3], numeric[3:]
}

func cellularNetworkType(radio string) string {
	if label, ok := cellularNetworkTypes[strings.ToUpper(radio)]; ok {
		return label
	}
	return ConnectionUnknown
}
