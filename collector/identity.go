package collector

import (
	"strings"

	"github.com/siderolabs/go-smbios/smbios"

	"github.com/vitalis-app/deviceinfo/platform"
)

// dmiDir exposes the SMBIOS strings the kernel decoded at boot.
const dmiDir = "/sys/class/dmi/id/"

// boardIdentity is the vendor/product identity of a non-Android host.
type boardIdentity struct {
	Manufacturer string
	Product      string
	Family       string
	Board        string
	BIOSVersion  string
}

// readBoardIdentity reads the SMBIOS tables, filling gaps from the DMI
// sysfs files. Android devices have neither, so it returns empty.
func readBoardIdentity(p platform.Platform) boardIdentity {
	if platform.IsAndroid(p) {
		return boardIdentity{}
	}

	var id boardIdentity
	if s, err := smbios.New(); err == nil {
		id = boardIdentity{
			Manufacturer: cleanDMI(s.SystemInformation.Manufacturer),
			Product:      cleanDMI(s.SystemInformation.ProductName),
			Family:       cleanDMI(s.SystemInformation.Family),
			Board:        cleanDMI(s.BaseboardInformation.Product),
			BIOSVersion:  cleanDMI(s.BIOSInformation.Version),
		}
	}

	readDMI := func(name string) string {
		data, err := p.ReadFile(dmiDir + name)
		if err != nil {
			return ""
		}
		return cleanDMI(string(data))
	}
	id.Manufacturer = firstNonEmpty(id.Manufacturer, readDMI("sys_vendor"))
	id.Product = firstNonEmpty(id.Product, readDMI("product_name"))
	id.Family = firstNonEmpty(id.Family, readDMI("product_family"))
	id.Board = firstNonEmpty(id.Board, readDMI("board_name"))
	id.BIOSVersion = firstNonEmpty(id.BIOSVersion, readDMI("bios_version"))
	return id
}

// placeholderDMI lists filler strings vendors leave in SMBIOS fields.
var placeholderDMI = map[string]bool{
	"to be filled by o.e.m.": true,
	"default string":         true,
	"system product name":    true,
	"system manufacturer":    true,
	"not specified":          true,
	"none":                   true,
}

func cleanDMI(s string) string {
	s = strings.TrimSpace(s)
	if placeholderDMI[strings.ToLower(s)] {
		return ""
	}
	return s
}
