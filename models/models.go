// Package models defines the diagnostic payloads produced by the
// collectors. These structures are serialized to JSON by the CLI.
//
// Numeric fields use -1 to mean "could not be determined"; optional
// strings are nil pointers when the value is absent.
package models

import "time"

// Unknown is the fallback for string fields that could not be read.
const Unknown = "Unknown"

// HardwareInfo describes the device identity, memory, storage and sensors.
type HardwareInfo struct {
	CheckedAt             time.Time    `json:"checked_at"`
	Manufacturer          string       `json:"manufacturer"`
	Model                 string       `json:"model"`
	Device                string       `json:"device"`
	Board                 string       `json:"board"`
	CPUArchitecture       string       `json:"cpu_architecture"`
	SupportedABIs         []string     `json:"supported_abis"`
	CPUModel              string       `json:"cpu_model"`
	CPUCores              int          `json:"cpu_cores"`
	TotalRAMBytes         int64        `json:"total_ram_bytes"`
	AvailableRAMBytes     int64        `json:"available_ram_bytes"`
	TotalStorageBytes     int64        `json:"total_storage_bytes"`
	AvailableStorageBytes int64        `json:"available_storage_bytes"`
	Sensors               []SensorInfo `json:"sensors"`
}

// SensorInfo describes a single hardware sensor.
type SensorInfo struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Vendor       string  `json:"vendor"`
	Version      int     `json:"version"`
	MaximumRange float64 `json:"maximum_range"`
	Resolution   float64 `json:"resolution"`
	Power        float64 `json:"power"`
}

// SystemInfo describes the OS build, runtime environment and security state.
type SystemInfo struct {
	CheckedAt          time.Time `json:"checked_at"`
	OSVersion          string    `json:"os_version"`
	APILevel           int       `json:"api_level"`
	BuildID            string    `json:"build_id"`
	BuildDisplay       string    `json:"build_display"`
	Fingerprint        string    `json:"fingerprint"`
	BuildHost          string    `json:"build_host"`
	BuildUser          string    `json:"build_user"`
	SecurityPatchLevel *string   `json:"security_patch_level"`
	BootloaderVersion  *string   `json:"bootloader_version"`
	Baseband           *string   `json:"baseband"`
	KernelVersion      *string   `json:"kernel_version"`
	Hostname           string    `json:"hostname"`
	Locale             string    `json:"locale"`
	TimeZone           string    `json:"time_zone"`
	UptimeSeconds      int64     `json:"uptime_seconds"`
	IsRooted           bool      `json:"is_rooted"`
	DeveloperOptions   bool      `json:"developer_options_enabled"`
	ADBEnabled         bool      `json:"adb_enabled"`
	SELinuxStatus      string    `json:"selinux_status"`
	PlayServices       *string   `json:"play_services_version"`
	IsEmulator         bool      `json:"is_emulator"`
	ContainerType      string    `json:"container_type,omitempty"`
}

// NetworkInfo describes connectivity state and the active transports.
type NetworkInfo struct {
	CheckedAt      time.Time        `json:"checked_at"`
	ConnectionType string           `json:"connection_type"`
	IsConnected    bool             `json:"is_connected"`
	WiFi           *WiFiDetails     `json:"wifi"`
	Cellular       *CellularDetails `json:"cellular"`
	Capabilities   []string         `json:"capabilities"`
	VPNActive      bool             `json:"vpn_active"`
	Interfaces     []InterfaceInfo  `json:"interfaces"`
}

// WiFiDetails is present only while associated with an access point.
type WiFiDetails struct {
	SSID           *string `json:"ssid"`
	BSSID          *string `json:"bssid"`
	SignalStrength int     `json:"signal_strength_dbm"`
	LinkSpeed      int     `json:"link_speed_mbps"`
	Frequency      int     `json:"frequency_mhz"`
	IPAddress      *string `json:"ip_address"`
	MACAddress     *string `json:"mac_address"`
	NetworkID      int     `json:"network_id"`
}

// CellularDetails describes the registered mobile network.
type CellularDetails struct {
	CarrierName       *string `json:"carrier_name"`
	CountryISO        *string `json:"country_iso"`
	MobileNetworkCode *string `json:"mnc"`
	MobileCountryCode *string `json:"mcc"`
	NetworkType       string  `json:"network_type"`
	IsRoaming         bool    `json:"is_roaming"`
}

// InterfaceInfo describes one network interface and its traffic counters.
type InterfaceInfo struct {
	Index     int      `json:"index"`
	Name      string   `json:"name"`
	Type      string   `json:"type"` // "wifi", "cellular", "ethernet", "vpn", "loopback", "virtual", "other"
	MAC       string   `json:"mac,omitempty"`
	Addrs     []string `json:"addrs,omitempty"`
	Up        bool     `json:"up"`
	MTU       int      `json:"mtu"`
	BytesRecv uint64   `json:"bytes_recv"`
	BytesSent uint64   `json:"bytes_sent"`
}
