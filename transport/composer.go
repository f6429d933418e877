package transport

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/emersion/go-message"
	"github.com/sirupsen/logrus"

	"github.com/ewsmail/go-ews/ewsclient"
)

// composer builds the remote body and attachment collection from a MIME
// tree. The remote item model is flat: one body plus attachments, so the
// tree is resolved depth-first with the documented approximations.
type composer struct {
	msg *ewsclient.OutgoingMessage
	log logrus.FieldLogger
}

// walk resolves an entity into the remote message body, attaching every
// part that cannot be part of the body itself.
//
//   - text/plain leaves become the plain-text body; any other text/*
//     leaf is handled as HTML (a deliberate approximation for the remote
//     model's two body types).
//   - multipart/alternative concatenates every text/html child into the
//     HTML body; when there is none, the concatenated text/plain children
//     become the plain-text fallback.
//   - any other multipart takes its first child as the body and turns
//     every following child into an attachment, inline when it carries a
//     Content-ID.
func (c *composer) walk(e *message.Entity) (ewsclient.MessageBody, error) {
	mediaType := contentType(e)

	switch {
	case mediaType == "text/plain":
		text, err := readText(e)
		if err != nil {
			return ewsclient.MessageBody{}, err
		}
		return ewsclient.MessageBody{Type: ewsclient.BodyTypeText, Content: text}, nil

	case strings.HasPrefix(mediaType, "text/"):
		if mediaType != "text/html" {
			c.log.Debugf("mime type %q handled as text/html", mediaType)
		}
		text, err := readText(e)
		if err != nil {
			return ewsclient.MessageBody{}, err
		}
		return ewsclient.MessageBody{Type: ewsclient.BodyTypeHTML, Content: text}, nil

	case mediaType == "multipart/alternative":
		return c.walkAlternative(e)

	case strings.HasPrefix(mediaType, "multipart/"):
		return c.walkMixed(e)
	}

	// Nothing the remote body model can represent.
	return ewsclient.MessageBody{Type: ewsclient.BodyTypeText}, nil
}

func (c *composer) walkAlternative(e *message.Entity) (ewsclient.MessageBody, error) {
	mr := e.MultipartReader()
	if mr == nil {
		return ewsclient.MessageBody{Type: ewsclient.BodyTypeText}, nil
	}

	var html, plain strings.Builder
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ewsclient.MessageBody{}, fmt.Errorf("transport: reading multipart/alternative: %w", err)
		}
		switch contentType(part) {
		case "text/html":
			text, err := readText(part)
			if err != nil {
				return ewsclient.MessageBody{}, err
			}
			html.WriteString(text)
		case "text/plain":
			text, err := readText(part)
			if err != nil {
				return ewsclient.MessageBody{}, err
			}
			plain.WriteString(text)
		}
	}

	if html.Len() > 0 {
		return ewsclient.MessageBody{Type: ewsclient.BodyTypeHTML, Content: html.String()}, nil
	}
	return ewsclient.MessageBody{Type: ewsclient.BodyTypeText, Content: plain.String()}, nil
}

func (c *composer) walkMixed(e *message.Entity) (ewsclient.MessageBody, error) {
	mr := e.MultipartReader()
	if mr == nil {
		return ewsclient.MessageBody{Type: ewsclient.BodyTypeText}, nil
	}

	body := ewsclient.MessageBody{Type: ewsclient.BodyTypeText}
	for i := 0; ; i++ {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ewsclient.MessageBody{}, fmt.Errorf("transport: reading multipart: %w", err)
		}
		if i == 0 {
			// The first child is the body, recursively resolved.
			body, err = c.walk(part)
			if err != nil {
				return ewsclient.MessageBody{}, err
			}
			continue
		}
		if err := c.attach(part, i); err != nil {
			return ewsclient.MessageBody{}, err
		}
	}
	return body, nil
}

func (c *composer) attach(part *message.Entity, index int) error {
	content, err := io.ReadAll(part.Body)
	if err != nil {
		return fmt.Errorf("transport: reading attachment part %d: %w", index, err)
	}

	if cid := contentID(part); cid != "" {
		c.msg.Attachments = append(c.msg.Attachments, &ewsclient.Attachment{
			Name:      cid,
			ContentID: cid,
			Inline:    true,
			Content:   content,
		})
		c.log.Debugf("attached %d bytes as content %s", len(content), cid)
		return nil
	}

	name := fileName(part)
	if name == "" {
		// Positional fallback when the part carries no name at all.
		name = strconv.Itoa(index)
	}
	c.msg.Attachments = append(c.msg.Attachments, &ewsclient.Attachment{
		Name:        name,
		ContentType: contentType(part),
		Content:     content,
	})
	c.log.Debugf("attached %d bytes as file %s", len(content), name)
	return nil
}

func contentType(e *message.Entity) string {
	t, _, err := e.Header.ContentType()
	if err != nil || t == "" {
		return "text/plain"
	}
	return t
}

func contentID(e *message.Entity) string {
	return strings.Trim(e.Header.Get("Content-ID"), "<>")
}

func fileName(e *message.Entity) string {
	if _, params, err := e.Header.ContentDisposition(); err == nil {
		if name := params["filename"]; name != "" {
			return name
		}
	}
	if _, params, err := e.Header.ContentType(); err == nil {
		if name := params["name"]; name != "" {
			return name
		}
	}
	return ""
}

func readText(e *message.Entity) (string, error) {
	b, err := io.ReadAll(e.Body)
	if err != nil {
		return "", fmt.Errorf("transport: reading text part: %w", err)
	}
	return string(b), nil
}
