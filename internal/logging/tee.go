package logging

import "io"

// Tee writes every record to a durable primary writer and then to a
// best-effort secondary one. Secondary failures are ignored so a console
// that disappeared mid-write never costs the primary a record.
type Tee struct {
	Primary   io.Writer
	Secondary io.Writer
}

// Write implements io.Writer.
func (t Tee) Write(p []byte) (int, error) {
	n, err := t.Primary.Write(p)
	if err != nil {
		return n, err
	}
	if t.Secondary != nil {
		_, _ = t.Secondary.Write(p)
	}
	return len(p), nil
}
