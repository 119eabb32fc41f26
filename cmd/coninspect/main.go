package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode/utf16"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/termforge/conbuf"
	"github.com/termforge/conbuf/codepage"
	"github.com/termforge/conbuf/inputbuffer"
	"github.com/termforge/conbuf/record"
	"github.com/termforge/conbuf/wait"
)

func main() {
	var (
		text        = flag.String("text", "", "Text run to feed into the buffer")
		keys        = flag.String("keys", "", "String fed as individual key press/release events")
		cpID        = flag.Uint("codepage", 437, "Code page for the narrow read direction")
		narrowStep  = flag.Int("narrow", 0, "Drain the fed input through the narrow transcoder in N-byte steps")
		listCP      = flag.Bool("list-codepages", false, "List supported code pages and exit")
		rawFeed     = flag.Bool("raw", false, "Feed live keystrokes from this terminal (ctrl+d stops)")
		interactive = flag.Bool("i", false, "Interactive inspector TUI")
		debug       = flag.Bool("debug", false, "Verbose buffer logging")
	)
	flag.Parse()

	if *listCP {
		listCodepages()
		return
	}

	if *interactive {
		if err := runInteractive(uint32(*cpID), *debug); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *text == "" && *keys == "" && !*rawFeed {
		fmt.Fprintln(os.Stderr, "Usage: coninspect -text <string> [-keys <string>] [-codepage N] [-narrow N]")
		fmt.Fprintln(os.Stderr, "       coninspect -raw  (live keystroke feed)")
		fmt.Fprintln(os.Stderr, "       coninspect -i    (interactive inspector)")
		fmt.Fprintln(os.Stderr, "       coninspect -list-codepages")
		os.Exit(1)
	}

	if err := run(*text, *keys, uint32(*cpID), *narrowStep, *rawFeed, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(text, keys string, cpID uint32, narrowStep int, rawFeed, debug bool) error {
	cp, err := codepage.Lookup(cpID)
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if debug {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		defer logger.Sync()
	}

	queue := wait.NewQueue()
	ready := wait.NewEvent()
	buf := inputbuffer.New(inputbuffer.Options{
		WaitQueue:   queue,
		ReadySignal: ready,
		Codepage:    cp,
		Logger:      logger,
	})

	fmt.Printf("Code page: %d (%s)\n", cp.ID(), cp.Name())

	// A reader blocked before the first write, released by it.
	var woken chan conbuf.WaitReason
	if text != "" || keys != "" {
		w := queue.Register()
		woken = make(chan conbuf.WaitReason, 1)
		go func() {
			reason, _ := w.Wait(context.Background())
			woken <- reason
		}()
	}

	if keys != "" {
		rs := keyRecords(keys)
		buf.WriteRecords(rs)
		fmt.Printf("Fed %d key events\n", len(rs))
	}
	if text != "" {
		units := utf16.Encode([]rune(text))
		buf.WriteText(units)
		fmt.Printf("Fed %d text units\n", len(units))
	}
	if rawFeed {
		if err := feedRaw(buf); err != nil {
			return err
		}
	}

	if woken != nil {
		fmt.Printf("Blocked reader woken: reason=%v\n", <-woken)
	}
	printState(buf, ready)

	rec := make([]record.Record, 8)
	if n := buf.ReadRecords(rec, true, true); n > 0 {
		fmt.Printf("\nRecord lens (peek, first %d):\n", n)
		for _, r := range rec[:n] {
			fmt.Printf("  %s\n", formatRecord(r))
		}
	}

	if narrowStep > 0 {
		return drainNarrow(buf, narrowStep)
	}

	out := make([]uint16, 256)
	n := buf.ReadChars(out, true, false)
	fmt.Printf("\nCharacter lens: %q\n", string(utf16.Decode(out[:n])))
	printState(buf, ready)
	return nil
}

// drainNarrow pulls every pending character and replays it through the
// transcoder with a deliberately small target, showing how a conversion
// splits and resumes across calls.
func drainNarrow(buf *inputbuffer.Buffer, step int) error {
	wideBuf := make([]uint16, 256)
	n := buf.ReadChars(wideBuf, true, false)
	src := wideBuf[:n]
	fmt.Printf("\nNarrow transcode of %d units in %d-byte steps:\n", n, step)

	target := make([]byte, step)
	for call := 1; ; call++ {
		sv, tv := src, target
		if err := buf.Consume(false, &sv, &tv); err != nil {
			return err
		}
		produced := target[:len(target)-len(tv)]
		src = sv
		if len(produced) == 0 {
			break
		}
		fmt.Printf("  call %d: [% x]  source left %d, cached %d\n",
			call, produced, len(src), buf.Stats().CachedNarrow)
	}
	return nil
}

// feedRaw reads keystrokes in raw mode and feeds them as key events,
// one press and release per UTF-16 unit.
func feedRaw(buf *inputbuffer.Buffer) error {
	fd := int(os.Stdin.Fd())
	old, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	defer term.Restore(fd, old)

	fmt.Print("Type keys, ctrl+d stops.\r\n")
	chunk := make([]byte, 64)
	for {
		n, err := os.Stdin.Read(chunk)
		if err != nil || n == 0 {
			return nil
		}
		if chunk[0] == 0x04 {
			fmt.Print("\r\n")
			return nil
		}
		units := utf16.Encode([]rune(string(chunk[:n])))
		for _, u := range units {
			buf.Write(record.SynthesizeKeyEvent(true, 1, 0, 0, u, 0))
			buf.Write(record.SynthesizeKeyEvent(false, 1, 0, 0, u, 0))
		}
		fmt.Printf("fed %d units\r\n", len(units))
	}
}

func printState(buf *inputbuffer.Buffer, ready *wait.Event) {
	st := buf.Stats()
	fmt.Printf("\nState: mode=%s records=%d text=%d cachedA=%d cachedW=%d cachedRecs=%d\n",
		st.Mode, st.Records, st.TextUnits, st.CachedNarrow, st.CachedWide, st.CachedRecords)
	fmt.Printf("Spans: %s\n", formatSpans(buf.Spans()))
	fmt.Printf("Ready: %d events, signal set=%v\n", buf.ReadyEventCount(), ready.IsSet())
}

func formatSpans(spans []inputbuffer.Span) string {
	if len(spans) == 0 {
		return "(empty)"
	}
	var b strings.Builder
	for i, sp := range spans {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "[%s:%d]", sp.Kind, sp.Length)
	}
	return b.String()
}

func formatRecord(r record.Record) string {
	switch r.Type {
	case record.TypeKey:
		state := "up"
		if r.Key.Down {
			state = "down"
		}
		ch := "none"
		if r.Key.Char != 0 {
			ch = fmt.Sprintf("%q", rune(r.Key.Char))
		}
		return fmt.Sprintf("key %s char=%s vk=%#x mods=%#x", state, ch, r.Key.VirtualKey, r.Key.Modifiers)
	case record.TypeMouse:
		return fmt.Sprintf("mouse pos=(%d,%d) buttons=%#x flags=%#x",
			r.Mouse.Position.X, r.Mouse.Position.Y, r.Mouse.Buttons, r.Mouse.Flags)
	case record.TypeWindowBufferSize:
		return fmt.Sprintf("resize %dx%d", r.Size.Size.X, r.Size.Size.Y)
	case record.TypeMenu:
		return fmt.Sprintf("menu id=%d", r.Menu.CommandID)
	case record.TypeFocus:
		return fmt.Sprintf("focus set=%v", r.Focus.SetFocus)
	default:
		return fmt.Sprintf("unknown type=%#x", uint16(r.Type))
	}
}

// keyRecords types a string as one press and release per code unit.
func keyRecords(s string) []record.Record {
	units := utf16.Encode([]rune(s))
	rs := make([]record.Record, 0, 2*len(units))
	for _, u := range units {
		rs = append(rs, record.SynthesizeKeyEvent(true, 1, 0, 0, u, 0))
		rs = append(rs, record.SynthesizeKeyEvent(false, 1, 0, 0, u, 0))
	}
	return rs
}

func listCodepages() {
	ids := codepage.IDs()
	slices.Sort(ids)
	for _, id := range ids {
		cp, err := codepage.Lookup(id)
		if err != nil {
			continue
		}
		fmt.Printf("%6d  %s\n", id, cp.Name())
	}
}
