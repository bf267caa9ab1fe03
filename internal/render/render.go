// Package render prints device reports for the devinfo CLI, either as
// styled text sections or as indented JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/vitalis-app/deviceinfo"
	"github.com/vitalis-app/deviceinfo/models"
	"github.com/vitalis-app/deviceinfo/platform"
	"github.com/vitalis-app/deviceinfo/result"
)

// Format selects the output encoding.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
)

// ParseFormat accepts "text" or "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case Text, JSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

const labelWidth = 24

// Printer writes reports to w.
type Printer struct {
	w      io.Writer
	format Format

	title lipgloss.Style
	label lipgloss.Style
	warn  lipgloss.Style
	dim   lipgloss.Style
}

// New returns a Printer. Colors are used only when w is a terminal that
// supports them.
func New(w io.Writer, format Format) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:      w,
		format: format,
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		label:  r.NewStyle().Foreground(lipgloss.Color("#6B7280")).Width(labelWidth),
		warn:   r.NewStyle().Foreground(lipgloss.Color("#DC2626")),
		dim:    r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
	}
}

// Report prints a full report.
func (p *Printer) Report(r *deviceinfo.Report) error {
	if p.format == JSON {
		return p.json(r)
	}

	var b strings.Builder
	for _, c := range r.Categories() {
		o, _ := r.Result(c)
		p.outcome(&b, c, o)
	}
	if errs := r.Errors(); len(errs) > 0 {
		b.WriteString(p.title.Render("Collection Errors") + "\n")
		for _, msg := range errs {
			b.WriteString("  " + p.warn.Render(msg) + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(p.dim.Render("Generated "+r.GeneratedAt().Format(time.RFC3339)) + "\n")
	_, err := io.WriteString(p.w, b.String())
	return err
}

// Outcome prints the result of collecting a single category.
func (p *Printer) Outcome(c deviceinfo.Category, o result.Outcome) error {
	if p.format == JSON {
		return p.json(o)
	}
	var b strings.Builder
	p.outcome(&b, c, o)
	_, err := io.WriteString(p.w, b.String())
	return err
}

func (p *Printer) outcome(b *strings.Builder, c deviceinfo.Category, o result.Outcome) {
	b.WriteString(p.title.Render(sectionTitle(c)) + "\n")
	if !o.IsSuccess() {
		p.row(b, "Status", p.warn.Render(statusText(o)))
		b.WriteString("\n")
		return
	}

	switch v := o.(type) {
	case result.Result[models.HardwareInfo]:
		info, _ := v.Value()
		p.hardware(b, info)
	case result.Result[models.SystemInfo]:
		info, _ := v.Value()
		p.system(b, info)
	case result.Result[models.NetworkInfo]:
		info, _ := v.Value()
		p.network(b, info)
	}
	b.WriteString("\n")
}

func sectionTitle(c deviceinfo.Category) string {
	switch c {
	case deviceinfo.CategoryHardware:
		return "Hardware"
	case deviceinfo.CategorySystem:
		return "System"
	case deviceinfo.CategoryNetwork:
		return "Network"
	}
	return string(c)
}

func statusText(o result.Outcome) string {
	switch o.Kind() {
	case result.KindNotAvailable:
		return "Not available on this device"
	case result.KindPermissionDenied:
		return "Permission denied"
	case result.KindError:
		return o.Message()
	}
	return o.Kind().String()
}

func (p *Printer) hardware(b *strings.Builder, h models.HardwareInfo) {
	p.row(b, "Manufacturer", h.Manufacturer)
	p.row(b, "Model", h.Model)
	p.row(b, "Device", h.Device)
	p.row(b, "Board", h.Board)
	p.row(b, "CPU", fmt.Sprintf("%s (%s cores)", h.CPUModel, count(h.CPUCores)))
	p.row(b, "Architecture", h.CPUArchitecture)
	p.row(b, "Supported ABIs", strings.Join(h.SupportedABIs, ", "))
	p.row(b, "RAM", usage(h.AvailableRAMBytes, h.TotalRAMBytes))
	p.row(b, "Storage", usage(h.AvailableStorageBytes, h.TotalStorageBytes))
	p.row(b, "Sensors", strconv.Itoa(len(h.Sensors)))
	for _, s := range h.Sensors {
		b.WriteString("    " + p.dim.Render(fmt.Sprintf("%s (%s, %s)", s.Name, s.Type, s.Vendor)) + "\n")
	}
}

func (p *Printer) system(b *strings.Builder, s models.SystemInfo) {
	p.row(b, "OS Version", s.OSVersion)
	if s.APILevel > 0 {
		p.row(b, "API Level", strconv.Itoa(s.APILevel))
	}
	p.row(b, "Build", s.BuildID)
	p.row(b, "Display", s.BuildDisplay)
	p.row(b, "Fingerprint", s.Fingerprint)
	p.row(b, "Built By", s.BuildUser+"@"+s.BuildHost)
	p.row(b, "Security Patch", deref(s.SecurityPatchLevel))
	p.row(b, "Bootloader", deref(s.BootloaderVersion))
	p.row(b, "Baseband", deref(s.Baseband))
	p.row(b, "Kernel", deref(s.KernelVersion))
	p.row(b, "Hostname", s.Hostname)
	p.row(b, "Locale", s.Locale)
	p.row(b, "Time Zone", s.TimeZone)
	p.row(b, "Uptime", Uptime(s.UptimeSeconds))
	p.row(b, "Rooted", yesNo(s.IsRooted))
	p.row(b, "Developer Options", yesNo(s.DeveloperOptions))
	p.row(b, "ADB", yesNo(s.ADBEnabled))
	p.row(b, "SELinux", s.SELinuxStatus)
	p.row(b, "Play Services", deref(s.PlayServices))
	p.row(b, "Emulator", yesNo(s.IsEmulator))
	if s.ContainerType != "" {
		p.row(b, "Container", s.ContainerType)
	}
}

func (p *Printer) network(b *strings.Builder, n models.NetworkInfo) {
	p.row(b, "Connection", n.ConnectionType)
	p.row(b, "Connected", yesNo(n.IsConnected))
	p.row(b, "VPN", yesNo(n.VPNActive))
	p.row(b, "Capabilities", strings.Join(n.Capabilities, ", "))

	if w := n.WiFi; w != nil {
		p.row(b, "WiFi SSID", deref(w.SSID))
		p.row(b, "WiFi BSSID", deref(w.BSSID))
		p.row(b, "WiFi Signal", withUnit(w.SignalStrength, "dBm"))
		p.row(b, "WiFi Link Speed", withUnit(w.LinkSpeed, "Mbps"))
		p.row(b, "WiFi Frequency", withUnit(w.Frequency, "MHz"))
		p.row(b, "WiFi IP", deref(w.IPAddress))
		p.row(b, "WiFi MAC", deref(w.MACAddress))
	}
	if c := n.Cellular; c != nil {
		p.row(b, "Carrier", deref(c.CarrierName))
		p.row(b, "Country", deref(c.CountryISO))
		p.row(b, "MCC / MNC", deref(c.MobileCountryCode)+" / "+deref(c.MobileNetworkCode))
		p.row(b, "Network Type", c.NetworkType)
		p.row(b, "Roaming", yesNo(c.IsRoaming))
	}

	for _, iface := range n.Interfaces {
		state := "down"
		if iface.Up {
			state = "up"
		}
		line := fmt.Sprintf("%-12s %-9s %-4s rx %s  tx %s",
			iface.Name, iface.Type, state,
			humanize.IBytes(iface.BytesRecv), humanize.IBytes(iface.BytesSent))
		if len(iface.Addrs) > 0 {
			line += "  " + strings.Join(iface.Addrs, ", ")
		}
		b.WriteString("    " + p.dim.Render(line) + "\n")
	}
}

// Permissions prints required permissions, marking the ones not granted,
// and collector availability.
func (p *Printer) Permissions(
	required, missing map[deviceinfo.Category][]platform.Permission,
	available map[deviceinfo.Category]bool,
) error {
	if p.format == JSON {
		return p.json(struct {
			Required  map[deviceinfo.Category][]platform.Permission `json:"required"`
			Missing   map[deviceinfo.Category][]platform.Permission `json:"missing"`
			Available map[deviceinfo.Category]bool                  `json:"available"`
		}{required, missing, available})
	}

	var b strings.Builder
	b.WriteString(p.title.Render("Collectors") + "\n")
	for _, c := range deviceinfo.Categories() {
		p.row(&b, sectionTitle(c), availableText(available[c]))
	}
	b.WriteString("\n" + p.title.Render("Permissions") + "\n")
	for _, c := range deviceinfo.Categories() {
		perms := required[c]
		if len(perms) == 0 {
			continue
		}
		gone := make(map[platform.Permission]bool, len(missing[c]))
		for _, m := range missing[c] {
			gone[m] = true
		}
		for _, perm := range perms {
			state := "granted"
			if gone[perm] {
				state = p.warn.Render("missing")
			}
			p.row(&b, sectionTitle(c), fmt.Sprintf("%s  %s", perm, state))
		}
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

// CacheStats prints cache statistics relative to now.
func (p *Printer) CacheStats(st deviceinfo.CacheStats, now time.Time) error {
	if p.format == JSON {
		return p.json(st)
	}
	var b strings.Builder
	b.WriteString(p.title.Render("Cache") + "\n")
	p.row(&b, "Entries", strconv.Itoa(st.TotalEntries))
	p.row(&b, "Valid", strconv.Itoa(st.ValidEntries))
	p.row(&b, "Expired", strconv.Itoa(st.ExpiredEntries))
	p.row(&b, "Expiration", fmt.Sprintf("%d min", st.ExpirationMinutes))
	if st.TotalEntries > 0 {
		p.row(&b, "Oldest", humanize.RelTime(st.Oldest, now, "ago", "from now"))
		p.row(&b, "Newest", humanize.RelTime(st.Newest, now, "ago", "from now"))
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

func (p *Printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) row(b *strings.Builder, label, value string) {
	if value == "" {
		value = models.Unknown
	}
	b.WriteString("  " + p.label.Render(label) + value + "\n")
}

// Uptime formats seconds as days, hours and minutes. Negative input means
// the uptime could not be read.
func Uptime(seconds int64) string {
	if seconds < 0 {
		return models.Unknown
	}
	d := time.Duration(seconds) * time.Second
	days := int64(d / (24 * time.Hour))
	hours := int64(d/time.Hour) % 24
	minutes := int64(d/time.Minute) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm %ds", minutes, seconds%60)
	}
}

// usage formats "available free of total", or Unknown when either side
// could not be read.
func usage(available, total int64) string {
	if available < 0 || total <= 0 {
		return models.Unknown
	}
	return fmt.Sprintf("%s free of %s", humanize.IBytes(uint64(available)), humanize.IBytes(uint64(total)))
}

func count(n int) string {
	if n < 0 {
		return "?"
	}
	return strconv.Itoa(n)
}

func withUnit(n int, unit string) string {
	if n < 0 {
		return models.Unknown
	}
	return fmt.Sprintf("%d %s", n, unit)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func availableText(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable"
}
