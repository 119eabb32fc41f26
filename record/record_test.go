package record

import "testing"

func TestSynthesizeKeyEvent(t *testing.T) {
	r := SynthesizeKeyEvent(true, 1, 0x41, 0x1e, 'a', ShiftPressed)

	if r.Type != TypeKey {
		t.Errorf("Type = %#x, want %#x", r.Type, TypeKey)
	}
	want := KeyEvent{
		Down:       true,
		Repeat:     1,
		VirtualKey: 0x41,
		ScanCode:   0x1e,
		Char:       'a',
		Modifiers:  ShiftPressed,
	}
	if r.Key != want {
		t.Errorf("Key = %+v, want %+v", r.Key, want)
	}
}

func TestSynthesizeOtherEvents(t *testing.T) {
	if r := SynthesizeFocusEvent(true); r.Type != TypeFocus || !r.Focus.SetFocus {
		t.Errorf("focus record = %+v", r)
	}
	if r := SynthesizeMenuEvent(7); r.Type != TypeMenu || r.Menu.CommandID != 7 {
		t.Errorf("menu record = %+v", r)
	}
	if r := SynthesizeWindowBufferSizeEvent(Coord{X: 80, Y: 25}); r.Type != TypeWindowBufferSize || r.Size.Size != (Coord{X: 80, Y: 25}) {
		t.Errorf("resize record = %+v", r)
	}

	r := SynthesizeMouseEvent(Coord{X: 3, Y: 4}, 1, CtrlPressed, MouseMoved)
	if r.Type != TypeMouse {
		t.Errorf("Type = %#x, want %#x", r.Type, TypeMouse)
	}
	wantMouse := MouseEvent{
		Position:  Coord{X: 3, Y: 4},
		Buttons:   1,
		Modifiers: CtrlPressed,
		Flags:     MouseMoved,
	}
	if r.Mouse != wantMouse {
		t.Errorf("Mouse = %+v, want %+v", r.Mouse, wantMouse)
	}
}

func TestIsPauseKey(t *testing.T) {
	tests := []struct {
		name  string
		event KeyEvent
		want  bool
	}{
		{
			name:  "pause key",
			event: KeyEvent{VirtualKey: VKPause},
			want:  true,
		},
		{
			name:  "left ctrl S",
			event: KeyEvent{VirtualKey: 'S', Modifiers: LeftCtrlPressed},
			want:  true,
		},
		{
			name:  "right ctrl S",
			event: KeyEvent{VirtualKey: 'S', Modifiers: RightCtrlPressed},
			want:  true,
		},
		{
			name:  "ctrl alt S is AltGr territory",
			event: KeyEvent{VirtualKey: 'S', Modifiers: LeftCtrlPressed | RightAltPressed},
			want:  false,
		},
		{
			name:  "plain S",
			event: KeyEvent{VirtualKey: 'S'},
			want:  false,
		},
		{
			name:  "ctrl with another key",
			event: KeyEvent{VirtualKey: 'Q', Modifiers: LeftCtrlPressed},
			want:  false,
		},
		{
			name:  "pause with modifiers still pauses",
			event: KeyEvent{VirtualKey: VKPause, Modifiers: LeftAltPressed},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPauseKey(tt.event); got != tt.want {
				t.Errorf("IsPauseKey(%+v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}
