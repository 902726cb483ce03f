package layout

// Ducky One 2 RGB (full size, ISO) key table. Each data packet carries 18 key
// slots of three bytes starting at payload offset 0x08; the last packet only
// carries six. Empty names are slots the firmware reads but no key occupies.
const (
	duckyFirstSlot = 0x08
	duckySlotSize  = 3
)

var duckyPackets = [][]KeyAddress{
	{"Escape", "SectionSign", "Tab", "CapsLock", "LeftShift", "LeftControl", "", "1", "Q", "A", "", "LeftWindows", "F1", "2", "W", "S", "Z", "LeftAlt"},
	{"F2", "3", "E", "D", "X", "", "F3", "4", "R", "F", "C", "", "F4", "5", "T", "G", "V", ""},
	{"", "6", "Y", "H", "B", "Space", "F5", "7", "U", "J", "N", "", "F6", "8", "I", "K", "M", ""},
	{"F7", "9", "O", "L", ",", "", "F8", "0", "P", "Semicolon", ".", "RightAlt", "F9", "-", "[", "'", "FSlash", ""},
	{"F10", "=", "]", "", "", "RightWindows", "F11", "", "", "", "RightShift", "Function", "F12", "Backspace", "BSlash", "Enter", "", "RightControl"},
	{"PrintScreen", "Insert", "Delete", "", "", "LeftArrow", "ScrollLock", "Home", "End", "", "UpArrow", "DownArrow", "Pause", "PageUp", "PageDown", "", "", "RightArrow"},
	{"Calc", "NumLock", "N7", "N4", "N1", "N0", "Mute", "Divide", "N8", "N5", "N2", "", "VolumeDown", "Multiply", "N9", "N6", "N3", "NDelete"},
	{"VolumeUp", "Subtract", "Add", "", "", "RightEnter"},
}

// duckyGrid is the physical arrangement, top row first.
var duckyGrid = [][]KeyAddress{
	{"Escape", "", "F1", "F2", "F3", "F4", "F5", "F6", "F7", "F8", "F9", "F10", "F11", "F12", "PrintScreen", "ScrollLock", "Pause", "Calc", "Mute", "VolumeDown", "VolumeUp"},
	{"SectionSign", "1", "2", "3", "4", "5", "6", "7", "8", "9", "0", "-", "=", "Backspace", "Insert", "Home", "PageUp", "NumLock", "Divide", "Multiply", "Subtract"},
	{"Tab", "Q", "W", "E", "R", "T", "Y", "U", "I", "O", "P", "[", "]", "BSlash", "Delete", "End", "PageDown", "N7", "N8", "N9", "Add"},
	{"CapsLock", "A", "S", "D", "F", "G", "H", "J", "K", "L", "Semicolon", "'", "", "Enter", "", "", "", "N4", "N5", "N6", ""},
	{"LeftShift", "", "Z", "X", "C", "V", "B", "N", "M", ",", ".", "FSlash", "", "RightShift", "", "UpArrow", "", "N1", "N2", "N3", ""},
	{"LeftControl", "LeftWindows", "LeftAlt", "", "", "", "Space", "", "", "", "RightAlt", "RightWindows", "Function", "RightControl", "LeftArrow", "DownArrow", "RightArrow", "N0", "", "NDelete", "RightEnter"},
}

var duckyGroups = map[string][]KeyAddress{
	"function": {"F1", "F2", "F3", "F4", "F5", "F6", "F7", "F8", "F9", "F10", "F11", "F12"},
	"numpad":   {"N0", "N1", "N2", "N3", "N4", "N5", "N6", "N7", "N8", "N9", "Divide", "Multiply", "NumLock", "NDelete", "Subtract", "Add", "RightEnter"},
	"wasd":     {"W", "A", "S", "D"},
	"arrows":   {"UpArrow", "DownArrow", "LeftArrow", "RightArrow"},
	"space":    {"Space"},
}

// DuckyOne2RGBSlots is the number of key slots in each data packet.
var DuckyOne2RGBSlots = func() []int {
	out := make([]int, len(duckyPackets))
	for i, p := range duckyPackets {
		out[i] = len(p)
	}
	return out
}()

// DuckyOne2RGB builds the Ducky One 2 RGB layout.
func DuckyOne2RGB() *Layout {
	pos := map[KeyAddress][2]int{}
	for r, row := range duckyGrid {
		for c, a := range row {
			if a != "" {
				pos[a] = [2]int{r, c}
			}
		}
	}
	var keys []Key
	for p, slots := range duckyPackets {
		for s, a := range slots {
			if a == "" {
				continue
			}
			k := Key{Addr: a, Packet: p, Offset: duckyFirstSlot + s*duckySlotSize}
			if rc, ok := pos[a]; ok {
				k.Row, k.Col, k.HasPos = rc[0], rc[1], true
			}
			keys = append(keys, k)
		}
	}
	l, err := New("ducky-one2-rgb", keys, duckyGroups)
	if err != nil {
		// static table; a failure here is a programming error
		panic(err)
	}
	return l
}
