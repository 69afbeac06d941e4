package smtp

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/contactform/pkg/mailer"
)

func TestAddressOnly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare address", "a@example.com", "a@example.com"},
		{"display name", "Ada <a@example.com>", "a@example.com"},
		{"comma in display name", "Lovelace, Ada <a@example.com>", "a@example.com"},
		{"surrounding whitespace", "  a@example.com  ", "a@example.com"},
		{"unclosed bracket", "Ada <a@example.com", "Ada <a@example.com"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, addressOnly(tt.input))
		})
	}
}

func TestBuildMessage_MultipartAlternative(t *testing.T) {
	t.Parallel()

	msg := string(buildMessage("Example <noreply@example.com>", &mailer.Email{
		To:      []string{"Owner <owner@example.com>"},
		ReplyTo: "Ada <ada@example.com>",
		Subject: "Hello",
		HTML:    "<p>hi</p>",
		Text:    "hi",
		Headers: map[string]string{"X-Entity-Ref-ID": "abc"},
	}))

	require.Contains(t, msg, "From: Example <noreply@example.com>\r\n")
	require.Contains(t, msg, "To: Owner <owner@example.com>\r\n")
	require.Contains(t, msg, "Reply-To: Ada <ada@example.com>\r\n")
	require.Contains(t, msg, "Subject: Hello\r\n")
	require.Contains(t, msg, "MIME-Version: 1.0\r\n")
	require.Contains(t, msg, "X-Entity-Ref-ID: abc\r\n")
	require.Contains(t, msg, "Content-Type: multipart/alternative; boundary=")
	require.Contains(t, msg, "Content-Type: text/plain; charset=utf-8\r\n\r\nhi\r\n")
	require.Contains(t, msg, "Content-Type: text/html; charset=utf-8\r\n\r\n<p>hi</p>\r\n")

	// The plain part comes first so clients prefer the HTML alternative.
	require.Less(t,
		strings.Index(msg, "text/plain"),
		strings.Index(msg, "text/html"),
	)
}

func TestBuildMessage_HTMLOnly(t *testing.T) {
	t.Parallel()

	msg := string(buildMessage("noreply@example.com", &mailer.Email{
		To:      []string{"owner@example.com"},
		Subject: "Hello",
		HTML:    "<p>hi</p>",
	}))

	require.Contains(t, msg, "Content-Type: text/html; charset=utf-8\r\n")
	require.NotContains(t, msg, "multipart/alternative")
	require.NotContains(t, msg, "Reply-To:")
}

func TestBuildMessage_EncodesNonASCIISubject(t *testing.T) {
	t.Parallel()

	msg := string(buildMessage("noreply@example.com", &mailer.Email{
		To:      []string{"owner@example.com"},
		Subject: "Héllo wörld",
		Text:    "hi",
	}))

	require.Contains(t, msg, "Subject: =?utf-8?q?")
	require.NotContains(t, msg, "Subject: Héllo")
}

// testServer speaks just enough SMTP for one plaintext delivery and
// records what the client sent.
type testServer struct {
	commands []string
	data     string
	done     chan struct{}
}

func startTestServer(t *testing.T) (*testServer, Config) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	srv := &testServer{done: make(chan struct{})}
	go srv.serve(ln)

	return srv, Config{
		Host:        "127.0.0.1",
		Port:        ln.Addr().(*net.TCPAddr).Port,
		DialTimeout: 2 * time.Second,
	}
}

func (s *testServer) serve(ln net.Listener) {
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	br := bufio.NewReader(conn)
	write := func(line string) { conn.Write([]byte(line + "\r\n")) }

	write("220 test.local ESMTP")
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		s.commands = append(s.commands, line)

		switch verb := strings.ToUpper(line); {
		case strings.HasPrefix(verb, "EHLO"), strings.HasPrefix(verb, "HELO"):
			write("250 test.local")
		case strings.HasPrefix(verb, "DATA"):
			write("354 End data with <CR><LF>.<CR><LF>")
			var b strings.Builder
			for {
				dataLine, err := br.ReadString('\n')
				if err != nil {
					return
				}
				if dataLine == ".\r\n" {
					break
				}
				b.WriteString(dataLine)
			}
			s.data = b.String()
			write("250 OK")
		case strings.HasPrefix(verb, "QUIT"):
			write("221 Bye")
			close(s.done)
			return
		default:
			write("250 OK")
		}
	}
}

func TestSend_EndToEnd(t *testing.T) {
	t.Parallel()

	srv, cfg := startTestServer(t)
	sender := New(cfg)

	err := sender.Send(context.Background(), &mailer.Email{
		From:    "Example <noreply@example.com>",
		To:      []string{"Owner <owner@example.com>"},
		ReplyTo: "ada@example.com",
		Subject: "Hello",
		HTML:    "<p>hi</p>",
		Text:    "hi",
	})
	require.NoError(t, err)

	select {
	case <-srv.done:
	case <-time.After(2 * time.Second):
		require.Fail(t, "server did not see QUIT")
	}

	// Envelope addresses are bare, display names stay in the headers.
	require.Contains(t, srv.commands, "MAIL FROM:<noreply@example.com>")
	require.Contains(t, srv.commands, "RCPT TO:<owner@example.com>")
	require.Contains(t, srv.data, "From: Example <noreply@example.com>\r\n")
	require.Contains(t, srv.data, "Reply-To: ada@example.com\r\n")
	require.Contains(t, srv.data, "Content-Type: multipart/alternative")
	require.Contains(t, srv.data, "<p>hi</p>")
}

func TestSend_NoRecipient(t *testing.T) {
	t.Parallel()

	sender := New(Config{Host: "127.0.0.1", Port: 25})
	err := sender.Send(context.Background(), &mailer.Email{Subject: "Hello"})
	require.ErrorIs(t, err, mailer.ErrNoRecipient)
}

func TestSend_Unreachable(t *testing.T) {
	t.Parallel()

	sender := New(Config{Host: "127.0.0.1", Port: 1, DialTimeout: 200 * time.Millisecond})
	err := sender.Send(context.Background(), &mailer.Email{
		To:      []string{"owner@example.com"},
		Subject: "Hello",
		Text:    "hi",
	})
	require.Error(t, err)
}
