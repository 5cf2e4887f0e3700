package filter

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextFromMessage_PlainText(t *testing.T) {
	raw := "From: a@b.com\r\nSubject: hi\r\nContent-Type: text/plain\r\n\r\nhello world\r\n"
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	require.NoError(t, err)

	text, err := extractTextFromMessage(msg)
	require.NoError(t, err)
	assert.Contains(t, text, "hello world")
}

func TestExtractTextFromMessage_Multipart(t *testing.T) {
	raw := strings.Join([]string{
		"From: a@b.com",
		"Subject: hi",
		`Content-Type: multipart/alternative; boundary="BOUNDARY"`,
		"",
		"--BOUNDARY",
		"Content-Type: text/plain",
		"",
		"plain body here",
		"--BOUNDARY",
		"Content-Type: text/html",
		"",
		"<p>html body here</p>",
		"--BOUNDARY--",
		"",
	}, "\r\n")
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	require.NoError(t, err)

	text, err := extractTextFromMessage(msg)
	require.NoError(t, err)
	assert.Contains(t, text, "plain body here")
	assert.NotContains(t, text, "<p>html body here</p>")
}

func TestExtractTextFromMessage_NestedMultipart(t *testing.T) {
	raw := strings.Join([]string{
		"From: a@b.com",
		"Subject: hi",
		`Content-Type: multipart/mixed; boundary="OUTER"`,
		"",
		"--OUTER",
		`Content-Type: multipart/alternative; boundary="INNER"`,
		"",
		"--INNER",
		"Content-Type: text/plain",
		"",
		"nested plain text",
		"--INNER--",
		"--OUTER",
		"Content-Type: application/pdf",
		"",
		"%PDF-fake-bytes",
		"--OUTER--",
		"",
	}, "\r\n")
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	require.NoError(t, err)

	text, err := extractTextFromMessage(msg)
	require.NoError(t, err)
	assert.Contains(t, text, "nested plain text")
	assert.NotContains(t, text, "%PDF-fake-bytes")
}

func TestExtractTextFromMessage_MultipartWithoutText(t *testing.T) {
	raw := strings.Join([]string{
		"From: a@b.com",
		"Subject: hi",
		`Content-Type: multipart/mixed; boundary="BOUNDARY"`,
		"",
		"--BOUNDARY",
		"Content-Type: application/octet-stream",
		"",
		"binarybinary",
		"--BOUNDARY--",
		"",
	}, "\r\n")
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	require.NoError(t, err)

	text, err := extractTextFromMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, "[No text content found in multipart message]", text)
}

func TestDecodeEncodedHeader(t *testing.T) {
	decoded, err := decodeEncodedHeader("=?UTF-8?Q?Confirmaci=C3=B3n_de_cuenta?=")
	require.NoError(t, err)
	assert.Equal(t, "Confirmación de cuenta", decoded)

	passthrough, err := decodeEncodedHeader("Plain subject")
	require.NoError(t, err)
	assert.Equal(t, "Plain subject", passthrough)
}

func TestRawHeaderBlock(t *testing.T) {
	raw := []byte("From: a@b.com\r\nSubject: hi\r\n\r\nbody text")
	assert.Equal(t, "From: a@b.com\r\nSubject: hi", rawHeaderBlock(raw))

	rawLF := []byte("From: a@b.com\nSubject: hi\n\nbody text")
	assert.Equal(t, "From: a@b.com\nSubject: hi", rawHeaderBlock(rawLF))

	assert.Equal(t, "", rawHeaderBlock([]byte("no separator at all")))
}

func TestSanitizeHeaderValue(t *testing.T) {
	assert.Equal(t, "a b c", sanitizeHeaderValue("a\r\nb\nc"))
}
