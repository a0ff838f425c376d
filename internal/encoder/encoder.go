package encoder

import (
	"io"
	"log"
	"os/exec"
	"sync"

	"github.com/meinders/helium/internal/herr"
	"github.com/meinders/helium/internal/platform"
)

// Writer spawns an external encoder process and forwards everything written
// to it over the process's standard input, while a background goroutine
// drains the process's standard output to the wrapped sink. A second
// goroutine drains standard error to the log, so a chatty encoder can never
// deadlock the pipe.
type Writer struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	done    chan struct{}
	copyErr error
	once    sync.Once
}

// New starts the encoder executable named by opts and returns a Writer that
// streams encoded output to out.
func New(out io.Writer, opts Options) (*Writer, error) {
	if opts.Executable == "" {
		return nil, herr.NewConfigError("executable", "encoder executable path must be set")
	}

	cmd := exec.Command(opts.Executable, opts.Args()...)
	platform.HideWindow(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, herr.NewIOError("encoder stdin", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, herr.NewIOError("encoder stdout", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, herr.NewIOError("encoder stderr", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, herr.NewIOError("encoder start", err)
	}

	w := &Writer{
		cmd:   cmd,
		stdin: stdin,
		done:  make(chan struct{}),
	}

	go func() {
		_, copyErr := io.Copy(out, stdout)
		w.copyErr = copyErr
		close(w.done)
	}()
	go drainStderr(stderr)

	return w, nil
}

func drainStderr(r io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			log.Printf("encoder: %s", buf[:n])
		}
		if err != nil {
			return
		}
	}
}

// Write forwards p to the encoder's standard input.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.stdin.Write(p)
	if err != nil {
		return n, herr.NewIOError("encoder write", err)
	}
	return n, nil
}

// Close closes the encoder's standard input, waits for it to finish
// draining its output, and waits for the process to exit.
func (w *Writer) Close() error {
	var closeErr error
	w.once.Do(func() {
		if err := w.stdin.Close(); err != nil {
			closeErr = herr.NewIOError("encoder stdin close", err)
			return
		}
		<-w.done
		if w.copyErr != nil && w.copyErr != io.EOF {
			closeErr = herr.NewIOError("encoder stdout copy", w.copyErr)
			return
		}
		if err := w.cmd.Wait(); err != nil {
			closeErr = herr.NewIOError("encoder wait", err)
		}
	})
	return closeErr
}
