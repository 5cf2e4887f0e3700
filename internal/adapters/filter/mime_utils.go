package filter

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
)

// extractTextFromMessage extracts the text content from an email message.
// For multipart messages it collects the text/plain parts, descending one
// level into nested multiparts.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")

	if !strings.Contains(strings.ToLower(contentType), "multipart/") {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(bodyBytes), nil
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(bodyBytes), nil
	}

	boundary, ok := params["boundary"]
	if !ok {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(bodyBytes), nil
	}

	var textContent bytes.Buffer
	collectTextParts(multipart.NewReader(msg.Body, boundary), &textContent, 1)

	if textContent.Len() > 0 {
		return textContent.String(), nil
	}
	return "[No text content found in multipart message]", nil
}

// collectTextParts appends text/plain parts to buf, recursing into nested
// multiparts up to the given depth
func collectTextParts(mr *multipart.Reader, buf *bytes.Buffer, depth int) {
	for {
		part, err := mr.NextPart()
		if err != nil {
			return
		}

		partContentType := strings.ToLower(part.Header.Get("Content-Type"))

		if strings.Contains(partContentType, "text/plain") {
			partBytes, err := io.ReadAll(part)
			if err != nil {
				continue
			}
			buf.Write(partBytes)
			buf.WriteString("\n")
			continue
		}

		if strings.Contains(partContentType, "multipart/") && depth > 0 {
			if _, params, err := mime.ParseMediaType(part.Header.Get("Content-Type")); err == nil {
				if nested, ok := params["boundary"]; ok {
					collectTextParts(multipart.NewReader(part, nested), buf, depth-1)
				}
			}
		}
		// Skip other parts (attachments, etc.)
	}
}

// decodeEncodedHeader decodes RFC 2047 encoded-word header values
func decodeEncodedHeader(value string) (string, error) {
	dec := &mime.WordDecoder{}
	return dec.DecodeHeader(value)
}

// rawHeaderBlock returns the raw header portion of a message, up to but
// not including the blank separator line
func rawHeaderBlock(rawData []byte) string {
	if idx := bytes.Index(rawData, []byte("\r\n\r\n")); idx >= 0 {
		return string(rawData[:idx])
	}
	if idx := bytes.Index(rawData, []byte("\n\n")); idx >= 0 {
		return string(rawData[:idx])
	}
	return ""
}
