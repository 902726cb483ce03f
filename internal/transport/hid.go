package transport

import (
	"github.com/karalabe/hid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// HID writes output reports through hidapi. Keyboards expose several
// interfaces under one vendor/product id; the lighting one is picked by usage
// page and usage.
type HID struct {
	UsagePage uint16
	Usage     uint16

	enumerate func(vendorID, productID uint16) []hid.DeviceInfo
}

func NewHID(usagePage, usage uint16) *HID {
	return &HID{UsagePage: usagePage, Usage: usage, enumerate: hid.Enumerate}
}

func (h *HID) Open(vendorID, productID uint16) (Conn, error) {
	if !hid.Supported() {
		return nil, ErrUnsupported
	}
	devices := h.enumerate(vendorID, productID)
	if len(devices) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "hid %04x:%04x", vendorID, productID)
	}
	info := h.pick(devices)
	dev, err := info.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open device %04x:%04x", info.VendorID, info.ProductID)
	}
	log.Info().Str("path", info.Path).Str("product", info.Product).Int("interface", info.Interface).Msg("hid device opened")
	return guard(&hidConn{dev: dev}), nil
}

func (h *HID) pick(devices []hid.DeviceInfo) hid.DeviceInfo {
	for _, d := range devices {
		if d.UsagePage == h.UsagePage && d.Usage == h.Usage {
			return d
		}
	}
	// some backends do not report usage pages
	log.Warn().Uint16("usage_page", h.UsagePage).Int("candidates", len(devices)).Msg("no interface matched usage page, using first")
	return devices[0]
}

type hidConn struct {
	dev *hid.Device
}

func (c *hidConn) Write(report []byte) (int, error) {
	n, err := c.dev.Write(report)
	if err != nil {
		return n, errors.Wrap(err, "hid write")
	}
	return n, nil
}

func (c *hidConn) Close() error {
	c.dev.Close()
	return nil
}

// DeviceInfo describes one enumerated HID interface.
type DeviceInfo struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string
	UsagePage    uint16
	Usage        uint16
	Interface    int
}

// Devices lists HID interfaces; zero ids match everything.
func Devices(vendorID, productID uint16) []DeviceInfo {
	if !hid.Supported() {
		return nil
	}
	var out []DeviceInfo
	for _, d := range hid.Enumerate(vendorID, productID) {
		out = append(out, DeviceInfo{
			Path:         d.Path,
			VendorID:     d.VendorID,
			ProductID:    d.ProductID,
			Manufacturer: d.Manufacturer,
			Product:      d.Product,
			UsagePage:    d.UsagePage,
			Usage:        d.Usage,
			Interface:    d.Interface,
		})
	}
	return out
}

// HIDSupported reports whether hidapi is usable in this build.
func HIDSupported() bool { return hid.Supported() }
