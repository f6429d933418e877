package ewsclient

// BodyType distinguishes the two body renderings the remote service
// accepts.
type BodyType string

const (
	BodyTypeText BodyType = "Text"
	BodyTypeHTML BodyType = "HTML"
)

// MessageBody is the single body of an outgoing message. The remote item
// model has no nested parts; anything beyond one body travels as an
// attachment.
type MessageBody struct {
	Type    BodyType
	Content string
}

// Attachment is one entry of an outgoing message's attachment collection.
// Inline attachments are keyed by ContentID, file attachments by Name.
type Attachment struct {
	Name        string
	ContentID   string
	ContentType string
	Inline      bool
	Content     []byte
}

// OutgoingMessage is the remote representation of a message to be sent:
// one body plus a flat attachment collection.
type OutgoingMessage struct {
	From          *EmailAddress
	ToRecipients  []EmailAddress
	CcRecipients  []EmailAddress
	BccRecipients []EmailAddress

	Subject string
	Body    MessageBody

	Attachments []*Attachment
}
