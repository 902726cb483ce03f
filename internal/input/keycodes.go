package input

import "github.com/coreman2200/funtimes-keyglow/internal/layout"

// LinuxKeys maps linux input-event-codes KEY_* values to key addresses.
// The Fn key never reaches the host and has no entry.
var LinuxKeys = map[uint16]layout.KeyAddress{
	1: "Escape", 2: "1", 3: "2", 4: "3", 5: "4", 6: "5", 7: "6", 8: "7", 9: "8", 10: "9", 11: "0",
	12: "-", 13: "=", 14: "Backspace", 15: "Tab",
	16: "Q", 17: "W", 18: "E", 19: "R", 20: "T", 21: "Y", 22: "U", 23: "I", 24: "O", 25: "P",
	26: "[", 27: "]", 28: "Enter", 29: "LeftControl",
	30: "A", 31: "S", 32: "D", 33: "F", 34: "G", 35: "H", 36: "J", 37: "K", 38: "L",
	39: "Semicolon", 40: "'", 41: "SectionSign", 42: "LeftShift", 43: "BSlash",
	44: "Z", 45: "X", 46: "C", 47: "V", 48: "B", 49: "N", 50: "M",
	51: ",", 52: ".", 53: "FSlash", 54: "RightShift", 55: "Multiply", 56: "LeftAlt", 57: "Space", 58: "CapsLock",
	59: "F1", 60: "F2", 61: "F3", 62: "F4", 63: "F5", 64: "F6", 65: "F7", 66: "F8", 67: "F9", 68: "F10",
	69: "NumLock", 70: "ScrollLock",
	71: "N7", 72: "N8", 73: "N9", 74: "Subtract", 75: "N4", 76: "N5", 77: "N6", 78: "Add",
	79: "N1", 80: "N2", 81: "N3", 82: "N0", 83: "NDelete",
	87: "F11", 88: "F12",
	96: "RightEnter", 97: "RightControl", 98: "Divide", 99: "PrintScreen", 100: "RightAlt",
	102: "Home", 103: "UpArrow", 104: "PageUp", 105: "LeftArrow", 106: "RightArrow",
	107: "End", 108: "DownArrow", 109: "PageDown", 110: "Insert", 111: "Delete",
	113: "Mute", 114: "VolumeDown", 115: "VolumeUp", 119: "Pause",
	125: "LeftWindows", 126: "RightWindows", 140: "Calc",
}
