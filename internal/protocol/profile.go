package protocol

// Profile is the fixed packet contract of one keyboard model.
type Profile struct {
	Name      string
	VendorID  uint16
	ProductID uint16
	UsagePage uint16
	Usage     uint16

	ReportID    byte
	PayloadSize int

	// Open and Close are the payload prefixes of the per-frame
	// start-listening and latch reports; the rest of each payload is zero.
	Open  []byte
	Close []byte

	// DataPackets is the number of data reports per frame. DataHeader returns
	// the header bytes written at the start of data report i.
	DataPackets int
	DataHeader  func(i int) []byte

	// Init and Exit are optional report streams sent once when a session
	// connects and once before it disconnects.
	Init []Report
	Exit []Report
}

// Ducky One 2 RGB constants.
const (
	DuckyVendorID  = 0x04d9
	DuckyProductID = 0x0348
	DuckyUsagePage = 0xff00
	DuckyUsage     = 0x01
	DuckyReportID  = 0x01

	duckyDataPackets = 8
	duckyPacketKeys  = 18
	duckyLastKeys    = 6
)

// DuckyOne2RGB returns the profile of the Ducky One 2 RGB full-size board.
func DuckyOne2RGB() Profile {
	return Profile{
		Name:        "ducky-one2-rgb",
		VendorID:    DuckyVendorID,
		ProductID:   DuckyProductID,
		UsagePage:   DuckyUsagePage,
		Usage:       DuckyUsage,
		ReportID:    DuckyReportID,
		PayloadSize: 64,
		Open:        []byte{0x41, 0x01},
		Close:       []byte{0x51, 0x28, 0x00, 0x00, 0xff},
		DataPackets: duckyDataPackets,
		DataHeader:  duckyHeader,
	}
}

func duckyHeader(i int) []byte {
	keys := byte(duckyPacketKeys)
	if i == duckyDataPackets-1 {
		keys = duckyLastKeys
	}
	return []byte{0x56, 0x42, 0x00, 0x00, 0x02, keys, byte(duckyPacketKeys * i), 0x00}
}
