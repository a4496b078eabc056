package delivery

import (
	"io"
	"log"
	"os"
)

// ConsoleSender prints the code to the process log instead of sending an
// SMS. Development only.
type ConsoleSender struct {
	out io.Writer
}

// NewConsoleSender returns a sender that writes to stdout.
func NewConsoleSender() *ConsoleSender {
	return &ConsoleSender{out: os.Stdout}
}

// Send logs the code in a banner that stands out in server output.
func (s *ConsoleSender) Send(phone, code string) error {
	l := log.New(s.out, "", log.LstdFlags)
	l.Println("==================================")
	l.Printf("OTP for %s: %s", phone, code)
	l.Println("==================================")
	return nil
}
