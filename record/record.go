// Package record defines the input event records buffered by the console
// host: key presses, mouse activity, window resizes, menu and focus
// changes. A Record is a flat, trivially copyable value so ring storage
// can move it with plain copies.
package record

// EventType selects which payload of a Record is valid.
type EventType uint16

const (
	TypeKey              EventType = 0x0001
	TypeMouse            EventType = 0x0002
	TypeWindowBufferSize EventType = 0x0004
	TypeMenu             EventType = 0x0008
	TypeFocus            EventType = 0x0010
)

// Modifier bits carried by key and mouse events.
const (
	RightAltPressed  uint32 = 0x0001
	LeftAltPressed   uint32 = 0x0002
	RightCtrlPressed uint32 = 0x0004
	LeftCtrlPressed  uint32 = 0x0008
	ShiftPressed     uint32 = 0x0010
	NumLockOn        uint32 = 0x0020
	ScrollLockOn     uint32 = 0x0040
	CapsLockOn       uint32 = 0x0080
	EnhancedKey      uint32 = 0x0100

	CtrlPressed = RightCtrlPressed | LeftCtrlPressed
	AltPressed  = RightAltPressed | LeftAltPressed
)

// Mouse event flags.
const (
	MouseMoved    uint32 = 0x0001
	DoubleClick   uint32 = 0x0002
	MouseWheeled  uint32 = 0x0004
	MouseHWheeled uint32 = 0x0008
)

// VKPause is the virtual key code of the pause key.
const VKPause uint16 = 0x13

// Coord is a cell position or surface size in character cells.
type Coord struct {
	X int16
	Y int16
}

// KeyEvent describes a key press or release.
type KeyEvent struct {
	Down       bool
	Repeat     uint16
	VirtualKey uint16
	ScanCode   uint16
	Char       uint16 // UTF-16 code unit, 0 when the key has no character
	Modifiers  uint32
}

// MouseEvent describes pointer movement, button or wheel activity.
type MouseEvent struct {
	Position  Coord
	Buttons   uint32
	Modifiers uint32
	Flags     uint32
}

// WindowBufferSizeEvent reports a change of the screen buffer size.
type WindowBufferSizeEvent struct {
	Size Coord
}

// MenuEvent reports a reserved menu command.
type MenuEvent struct {
	CommandID uint32
}

// FocusEvent reports the console gaining or losing focus.
type FocusEvent struct {
	SetFocus bool
}

// Record is a single buffered input event. Type selects the valid
// payload; the others stay zero.
type Record struct {
	Type  EventType
	Key   KeyEvent
	Mouse MouseEvent
	Size  WindowBufferSizeEvent
	Menu  MenuEvent
	Focus FocusEvent
}

// SynthesizeKeyEvent builds a key Record the way the host fabricates
// keystrokes, e.g. when replaying buffered text as input events.
func SynthesizeKeyEvent(down bool, repeat, vk, scan, ch uint16, mods uint32) Record {
	return Record{
		Type: TypeKey,
		Key: KeyEvent{
			Down:       down,
			Repeat:     repeat,
			VirtualKey: vk,
			ScanCode:   scan,
			Char:       ch,
			Modifiers:  mods,
		},
	}
}

// SynthesizeMouseEvent builds a mouse Record.
func SynthesizeMouseEvent(pos Coord, buttons, mods, flags uint32) Record {
	return Record{
		Type: TypeMouse,
		Mouse: MouseEvent{
			Position:  pos,
			Buttons:   buttons,
			Modifiers: mods,
			Flags:     flags,
		},
	}
}

// SynthesizeWindowBufferSizeEvent builds a resize Record.
func SynthesizeWindowBufferSizeEvent(size Coord) Record {
	return Record{
		Type: TypeWindowBufferSize,
		Size: WindowBufferSizeEvent{Size: size},
	}
}

// SynthesizeMenuEvent builds a menu Record.
func SynthesizeMenuEvent(commandID uint32) Record {
	return Record{
		Type: TypeMenu,
		Menu: MenuEvent{CommandID: commandID},
	}
}

// SynthesizeFocusEvent builds a focus Record.
func SynthesizeFocusEvent(focused bool) Record {
	return Record{
		Type:  TypeFocus,
		Focus: FocusEvent{SetFocus: focused},
	}
}

// IsPauseKey reports whether the event is the pause key. Ctrl+S is
// traditionally considered an alias for it.
func IsPauseKey(e KeyEvent) bool {
	if e.VirtualKey == VKPause {
		return true
	}

	ctrlButNotAlt := e.Modifiers&CtrlPressed != 0 && e.Modifiers&AltPressed == 0
	return ctrlButNotAlt && e.VirtualKey == 'S'
}
