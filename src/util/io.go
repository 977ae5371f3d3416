package util

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Writer buffers output in a strings.Builder.
// When the Flush or Close method is called the buffer is emptied and sent to
// the assigned output writer through channel c.
type Writer struct {
	sb strings.Builder
	c  chan string
}

// ---------------------
// ----- Constants -----
// ---------------------

var wc chan string     // Write channel used for receiving data from worker threads.
var cc chan error      // Close channel used by main thread to signal to end write operations.
var wg *sync.WaitGroup // used for synchronising when writing to output has finished.

// ---------------------
// ----- Functions -----
// ---------------------

// Write writes a format string to the Writer's buffer.
func (w *Writer) Write(format string, args ...interface{}) {
	w.sb.WriteString(fmt.Sprintf(format, args...))
}

// WriteString writes a plain string to the Writer's buffer.
func (w *Writer) WriteString(s string) {
	w.sb.WriteString(s)
}

// Flush empties the Writer's buffer and sends the buffer data to the
// designated output writer over the Writer's channel.
func (w *Writer) Flush() {
	w.c <- w.sb.String()
	w.sb = strings.Builder{}
}

// Close flushes the Writer's buffer, drops the Writer's reference to its
// channel (the channel itself stays open) and marks the Writer done.
func (w *Writer) Close() {
	w.Flush()
	w.c = nil
	wg.Done()
}

// NewWriter returns a new Writer to be used to write the compiler's output
// to the destination chosen by ListenWrite. Must not be called before the
// main thread has called ListenWrite.
func NewWriter() Writer {
	wg.Add(1)
	return Writer{
		sb: strings.Builder{},
		c:  wc,
	}
}

// ListenWrite listens for output writes. The received data is written to f
// if it is not nil, or to stdout otherwise. The function loops until a
// termination signal is sent using Close.
func ListenWrite(f *os.File, wgg *sync.WaitGroup) {
	wg = wgg
	wc = make(chan string, 1)
	cc = make(chan error, 1) // Buffered to catch Close before the listener is invoked.
	var w *bufio.Writer
	if f != nil {
		w = bufio.NewWriter(f)
	} else {
		w = bufio.NewWriter(os.Stdout)
	}

	go func(wc chan string, cc chan error) {
		defer close(wc)
		defer close(cc)
		for {
			select {
			case s := <-wc:
				if _, err := w.WriteString(s); err != nil {
					fmt.Println(err)
				}
				if err := w.Flush(); err != nil {
					fmt.Println(err)
				}
			case <-cc:
				return
			}
		}
	}(wc, cc)
}

// Close sends the termination signal to the writer listener.
func Close() {
	cc <- nil
}
