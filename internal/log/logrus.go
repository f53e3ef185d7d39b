// File: internal/log/logrus.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Tagged logrus loggers. Everything goes to standard error: standard output
// carries relay data only.

package log

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const tagField = "tag"

func init() {
	logrus.SetOutput(os.Stderr)
	logrus.AddHook(new(TaggedHook))
}

// Configure sets the global level and output. An empty level keeps the
// current one.
func Configure(level string, output io.Writer) error {
	if output != nil {
		logrus.SetOutput(output)
	}
	if level == "" {
		return nil
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(parsed)
	return nil
}

// NewLogger returns an entry whose messages are prefixed with [tag].
func NewLogger(tag string) *logrus.Entry {
	return logrus.NewEntry(logrus.StandardLogger()).WithField(tagField, tag)
}

// TaggedHook moves the tag field into the message prefix.
type TaggedHook struct{}

func (h *TaggedHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *TaggedHook) Fire(entry *logrus.Entry) error {
	tagObj, loaded := entry.Data[tagField]
	if !loaded {
		return nil
	}
	tag, ok := tagObj.(string)
	if !ok {
		return nil
	}
	delete(entry.Data, tagField)
	entry.Message = "[" + tag + "]: " + strings.TrimPrefix(entry.Message, tag+": ")
	return nil
}
