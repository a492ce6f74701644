package security

import (
	"strings"

	"github.com/sirupsen/logrus"
)

const redacted = "******"

// MinRedactedLength is the shortest secret masked in log output
const MinRedactedLength = 6

// RedactionHook masks secrets in log messages and string fields
type RedactionHook struct {
	replacer *strings.Replacer
}

// NewRedactionHook - creates a hook masking every secret of at least MinRedactedLength
func NewRedactionHook(secrets ...string) *RedactionHook {
	pairs := make([]string, 0, 2*len(secrets))
	for _, s := range secrets {
		if len(s) >= MinRedactedLength {
			pairs = append(pairs, s, redacted)
		}
	}
	return &RedactionHook{replacer: strings.NewReplacer(pairs...)}
}

func (h *RedactionHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *RedactionHook) Fire(entry *logrus.Entry) error {
	entry.Message = h.replacer.Replace(entry.Message)
	for k, v := range entry.Data {
		switch val := v.(type) {
		case string:
			entry.Data[k] = h.replacer.Replace(val)
		case error:
			entry.Data[k] = h.replacer.Replace(val.Error())
		}
	}
	return nil
}
