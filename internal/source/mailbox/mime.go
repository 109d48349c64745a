package mailbox

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
)

// parseRFC822 splits a raw message into its subject and the longest plain
// and HTML bodies.
func parseRFC822(raw []byte, fallbackSubject string) (subject, plain, htmlBody string) {
	if len(raw) == 0 {
		return fallbackSubject, "", ""
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return fallbackSubject, string(raw), ""
	}

	subject = decodeRFC2047(msg.Header.Get("Subject"))
	if subject == "" {
		subject = fallbackSubject
	}

	body, _ := io.ReadAll(io.LimitReader(msg.Body, 25<<20))
	plain, htmlBody = extractMIMETextParts(msg.Header, body)
	if plain == "" && htmlBody == "" {
		plain = string(body)
	}
	return subject, plain, htmlBody
}

func extractMIMETextParts(h mail.Header, body []byte) (plain, htmlPart string) {
	cte := strings.ToLower(strings.TrimSpace(h.Get("Content-Transfer-Encoding")))

	mediaType, params, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		return string(decodeTransferEncoding(body, cte)), ""
	}
	mediaType = strings.ToLower(mediaType)

	if !strings.HasPrefix(mediaType, "multipart/") {
		s := string(decodeTransferEncoding(body, cte))
		if strings.HasPrefix(mediaType, "text/html") {
			return "", s
		}
		return s, ""
	}

	boundary := params["boundary"]
	if boundary == "" {
		return string(decodeTransferEncoding(body, cte)), ""
	}

	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		p, err := mr.NextPart()
		if err != nil {
			break
		}
		partCTE := strings.ToLower(strings.TrimSpace(p.Header.Get("Content-Transfer-Encoding")))
		pMedia, _, _ := mime.ParseMediaType(p.Header.Get("Content-Type"))
		pMedia = strings.ToLower(pMedia)

		b, _ := io.ReadAll(io.LimitReader(p, 20<<20))

		if strings.HasPrefix(pMedia, "multipart/") {
			pl, ht := extractMIMETextParts(mail.Header(p.Header), b)
			if len(pl) > len(plain) {
				plain = pl
			}
			if len(ht) > len(htmlPart) {
				htmlPart = ht
			}
			continue
		}

		b = decodeTransferEncoding(b, partCTE)
		switch {
		case strings.HasPrefix(pMedia, "text/plain"):
			if len(b) > len(plain) {
				plain = string(b)
			}
		case strings.HasPrefix(pMedia, "text/html"):
			if len(b) > len(htmlPart) {
				htmlPart = string(b)
			}
		}
	}
	return plain, htmlPart
}

func decodeTransferEncoding(b []byte, cte string) []byte {
	switch cte {
	case "base64":
		dec := base64.NewDecoder(base64.StdEncoding, bytes.NewReader(b))
		out, _ := io.ReadAll(io.LimitReader(dec, 6<<20))
		return out
	case "quoted-printable":
		out, _ := io.ReadAll(io.LimitReader(quotedprintable.NewReader(bytes.NewReader(b)), 6<<20))
		return out
	default:
		return b
	}
}

func decodeRFC2047(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	out, err := new(mime.WordDecoder).DecodeHeader(s)
	if err != nil {
		return s
	}
	return out
}
