package mail

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyConnectionRefused(t *testing.T) {
	for _, raw := range []string{
		"dial tcp 10.0.0.1:993: connect: connection refused",
		"connect ECONNREFUSED 10.0.0.1:993",
	} {
		classified := Classify(errors.New(raw))
		assert.Equal(t, KindRefused, classified.Kind, raw)
		assert.Equal(t, "connection refused, check host/port", classified.Message)
	}
}

func TestClassifyTimeout(t *testing.T) {
	for _, raw := range []string{
		"dial tcp 10.0.0.1:993: i/o timeout",
		"read tcp: connection timed out",
		"context deadline exceeded",
	} {
		classified := Classify(errors.New(raw))
		assert.Equal(t, KindTimeout, classified.Kind, raw)
		assert.Equal(t, "server not responding", classified.Message)
	}
}

func TestClassifyAuthFailure(t *testing.T) {
	for _, raw := range []string{
		"NO [AUTHENTICATIONFAILED] Authentication failed.",
		"LOGIN failed",
		"invalid credentials (Failure)",
	} {
		classified := Classify(errors.New(raw))
		assert.Equal(t, KindAuth, classified.Kind, raw)
		assert.Equal(t, "check username/password", classified.Message)
	}
}

func TestClassifyGenericKeepsOriginalText(t *testing.T) {
	raw := errors.New("BAD unexpected server greeting")

	classified := Classify(raw)
	assert.Equal(t, KindProtocol, classified.Kind)
	assert.Equal(t, "BAD unexpected server greeting", classified.Message)
	assert.ErrorIs(t, classified, raw)
}

func TestClassifyPassesThroughMailErrors(t *testing.T) {
	orig := NewError(KindNotFound, "message not found")

	classified := Classify(orig)
	require.Same(t, orig, classified)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NewError(KindNotFound, "missing")))
	assert.Equal(t, KindProtocol, KindOf(errors.New("plain")))
}
