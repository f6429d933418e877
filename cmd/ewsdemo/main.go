// Command ewsdemo exercises the bridge end to end against the in-memory
// remote mailbox: it connects a store, opens the inbox, walks the message
// snapshot, quarantines an unloadable item and sends a message through the
// transport.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-message"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	ews "github.com/ewsmail/go-ews"
	"github.com/ewsmail/go-ews/ewsclient"
	"github.com/ewsmail/go-ews/ewsclient/ewstest"
	"github.com/ewsmail/go-ews/store"
	"github.com/ewsmail/go-ews/transport"
)

func main() {
	log := logrus.New()
	if err := run(log); err != nil {
		log.Fatal(err)
	}
}

func run(log *logrus.Logger) error {
	// Optional; the demo runs with built-in defaults.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := ews.LoadConfig(os.Getenv("EWS_CONFIG_FILE"))
	if err != nil {
		return err
	}

	mailbox := seedMailbox()

	st := store.New(cfg, mailbox.Dialer())
	st.SetLogger(log)
	st.OnMessagesRemoved(func(e store.MessagesRemovedEvent) {
		log.Infof("expunged %d messages from %s", len(e.Messages), e.FolderName)
	})

	if err := st.Connect("https://example.test/ews/exchange.asmx", "demo@example.test", "demo"); err != nil {
		return err
	}
	defer st.Close()

	inbox, err := st.Folder("Inbox")
	if err != nil {
		return err
	}
	if err := inbox.Open(ews.ModeReadWrite); err != nil {
		return err
	}

	count, err := inbox.MessageCount()
	if err != nil {
		return err
	}
	log.Infof("inbox holds %d messages", count)

	for n := 1; n <= count; n++ {
		msg, err := inbox.GetMessage(n)
		if err != nil {
			return err
		}
		log.Infof("message %d: %q from %v", n, msg.Subject, msg.From)
		msg.Flags.Add(ews.FlagSeen)
	}

	// One item was seeded with unloadable content; the open skipped it,
	// park it so the next fetch run is clean.
	for _, id := range mailbox.FolderItemIDs(mailbox.WellKnownID(ewsclient.WellKnownInbox)) {
		if mailbox.LoadErr[id] != nil {
			log.Warnf("quarantining unloadable item %s", id)
			if err := inbox.MoveFailedItemTo(id, "FailedMails"); err != nil {
				return err
			}
		}
	}

	if err := inbox.Close(true); err != nil {
		return err
	}

	tr := transport.New(cfg, mailbox.Dialer())
	tr.SetLogger(log)
	if err := tr.Connect("https://example.test/ews/exchange.asmx", "demo@example.test", "demo"); err != nil {
		return err
	}
	defer tr.Close()

	reply, err := message.Read(strings.NewReader(
		"From: demo@example.test\r\n" +
			"To: friend@example.test\r\n" +
			"Subject: Hello World!\r\n" +
			"Content-Type: text/plain\r\n" +
			"\r\n" +
			"Hello World!\r\n"))
	if err != nil {
		return fmt.Errorf("building reply: %w", err)
	}
	if err := tr.Send(reply, nil, nil, nil); err != nil {
		return err
	}
	log.Infof("sent %d messages", len(mailbox.Sent))
	return nil
}

// seedMailbox fills the in-memory mailbox with a readable message and an
// item whose content load fails.
func seedMailbox() *ewstest.Client {
	mailbox := ewstest.New()
	inboxID := mailbox.WellKnownID(ewsclient.WellKnownInbox)

	subject := "Welcome"
	mailbox.AddItem(inboxID, ewsclient.ItemInfo{
		Subject:          &subject,
		From:             &ewsclient.EmailAddress{Name: "Postmaster", Address: "postmaster@example.test"},
		ToRecipients:     []ewsclient.EmailAddress{{Address: "demo@example.test"}},
		DateTimeSent:     time.Now().Add(-time.Hour),
		DateTimeReceived: time.Now().Add(-time.Hour),
	}, []byte("From: postmaster@example.test\r\n"+
		"To: demo@example.test\r\n"+
		"Subject: Welcome\r\n"+
		"Content-Type: text/plain\r\n"+
		"\r\n"+
		"Welcome to the demo mailbox.\r\n"))

	broken := "Broken"
	brokenID := mailbox.AddItem(inboxID, ewsclient.ItemInfo{
		Subject:          &broken,
		DateTimeReceived: time.Now(),
	}, nil)
	mailbox.LoadErr[brokenID] = errors.New("content store unavailable")

	return mailbox
}
