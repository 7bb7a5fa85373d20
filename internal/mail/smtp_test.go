package mail

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"auth reply code", errors.New("535 5.7.8 Error: authentication failed"), KindAuth},
		{"auth text only", errors.New("server said: Authentication credentials invalid"), KindAuth},
		{"spam rejection", errors.New("550 Message rejected under suspicion of SPAM"), KindRejected},
		{"rate limited", errors.New("rate limit exceeded, try later"), KindRejected},
		{"throttled reply code", errors.New("421 4.7.0 too many connections"), KindRejected},
		{"connection error", errors.New("dial tcp: connection refused"), KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := classify(tt.err)
			assert.Equal(t, tt.want, te.Kind)
			assert.Equal(t, tt.err.Error(), te.Detail)
		})
	}
}

func TestAsTransportError(t *testing.T) {
	te := &TransportError{Kind: KindAuth, Detail: "535 authentication failed"}

	got, ok := AsTransportError(te)
	require.True(t, ok)
	assert.Equal(t, KindAuth, got.Kind)

	_, ok = AsTransportError(errors.New("plain"))
	assert.False(t, ok)
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("Hello", "body text", "news@mailflow.test", "alice@example.com"))

	assert.Contains(t, msg, "From: news@mailflow.test\r\n")
	assert.Contains(t, msg, "To: alice@example.com\r\n")
	assert.Contains(t, msg, "Subject: Hello\r\n")
	assert.Contains(t, msg, "\r\n\r\nbody text")
}
