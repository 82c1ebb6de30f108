package worker

import (
	"bytes"
	"testing"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
)

// fetchedMessage mimics what the IMAP client hands back: the body literal
// sits under the client's own section-name pointer, never ours.
func fetchedMessage(raw string) *imap.Message {
	clientKey := &imap.BodySectionName{}
	return &imap.Message{
		Body: map[*imap.BodySectionName]imap.Literal{
			clientKey: bytes.NewBufferString(raw),
		},
	}
}

func TestReplyExcerptReadsPlainTextPart(t *testing.T) {
	msg := fetchedMessage("From: jane@acme.com\r\n" +
		"To: outreach@leadstream.io\r\n" +
		"Subject: Re: quick question\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Sounds interesting, send over the details.\r\n")

	assert.Equal(t, "Sounds interesting, send over the details.", replyExcerpt(msg))
}

func TestReplyExcerptSkipsHTMLOnlyMessage(t *testing.T) {
	msg := fetchedMessage("From: jane@acme.com\r\n" +
		"Subject: Re: quick question\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>Sounds interesting.</p>\r\n")

	assert.Empty(t, replyExcerpt(msg))
}

func TestReplyExcerptMissingBodyIsEmpty(t *testing.T) {
	assert.Empty(t, replyExcerpt(&imap.Message{}))
}

func TestReplyExcerptTruncatesLongBodies(t *testing.T) {
	long := bytes.Repeat([]byte("a"), 4096)
	msg := fetchedMessage("From: jane@acme.com\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		string(long))

	got := replyExcerpt(msg)
	assert.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 1024)
}
