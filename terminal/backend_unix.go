//go:build unix

package terminal

import (
	"bufio"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

const writeBufferSize = 128 * 1024

type unixBackend struct {
	out     *os.File
	outFd   int
	inFd    int
	buf     *bufio.Writer
	caps    Capability
	oldTerm *term.State

	resizeStopCh chan struct{}
	resizeDoneCh chan struct{}
}

// NewBackend wraps the process's controlling terminal on stdin/stdout.
// The capability table supplies the alternate-screen and cursor
// sequences used during Init and Fini.
func NewBackend(caps Capability) Backend {
	out := os.Stdout
	return &unixBackend{
		out:   out,
		outFd: int(out.Fd()),
		inFd:  int(os.Stdin.Fd()),
		buf:   bufio.NewWriterSize(out, writeBufferSize),
		caps:  caps,
	}
}

func (b *unixBackend) Init() error {
	if !term.IsTerminal(b.outFd) {
		return errors.New("stdout is not a terminal")
	}

	old, err := term.MakeRaw(b.inFd)
	if err != nil {
		return errors.Wrap(err, "enter raw mode")
	}
	b.oldTerm = old

	b.buf.WriteString(b.caps.Escape(OpEnterAlt))
	b.buf.WriteString(b.caps.Escape(OpHideCursor))
	b.buf.WriteString(b.caps.Escape(OpClear))
	return b.buf.Flush()
}

func (b *unixBackend) Fini() error {
	if b.resizeStopCh != nil {
		close(b.resizeStopCh)
		<-b.resizeDoneCh
		b.resizeStopCh = nil
	}

	b.buf.WriteString(b.caps.Escape(OpAttrOff))
	b.buf.WriteString(b.caps.Escape(OpShowCursor))
	b.buf.WriteString(b.caps.Escape(OpExitAlt))
	err := b.buf.Flush()

	if b.oldTerm != nil {
		if rerr := term.Restore(b.inFd, b.oldTerm); err == nil {
			err = rerr
		}
		b.oldTerm = nil
	}
	return err
}

func (b *unixBackend) Size() (int, int) {
	ws, err := unix.IoctlGetWinsize(b.outFd, unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 || ws.Row == 0 {
		return 80, 24
	}
	return int(ws.Col), int(ws.Row)
}

func (b *unixBackend) Write(p []byte) error {
	_, err := b.buf.Write(p)
	return err
}

func (b *unixBackend) Flush() error {
	return b.buf.Flush()
}

func (b *unixBackend) SetResizeHandler(handler func(width, height int)) {
	if b.resizeStopCh != nil {
		close(b.resizeStopCh)
		<-b.resizeDoneCh
	}
	b.resizeStopCh = make(chan struct{})
	b.resizeDoneCh = make(chan struct{})

	stopCh, doneCh := b.resizeStopCh, b.resizeDoneCh
	go func() {
		defer close(doneCh)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGWINCH)
		defer signal.Stop(sigCh)

		for {
			select {
			case <-stopCh:
				return
			case <-sigCh:
				w, h := b.Size()
				handler(w, h)
			}
		}
	}()
}
