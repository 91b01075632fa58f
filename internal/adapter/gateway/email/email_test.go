package email

import (
	"context"
	"net"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSender(t *testing.T) {
	log, hook := test.NewNullLogger()
	require.NoError(t, NewLogSender(log).Send(context.Background(), "a@example.com", "Approved", "Your loan was approved."))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Your loan was approved.", hook.LastEntry().Message)
	assert.Equal(t, "a@example.com", hook.LastEntry().Data["to"])
}

func TestSMTPSender_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, _ := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, ln.Close())

	log, _ := test.NewNullLogger()
	s := NewSMTPSender("127.0.0.1", port, "", "", "no-reply@lending.local", log)
	err = s.Send(context.Background(), "a@example.com", "Hi", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send email")
}
