package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage_Recipients(t *testing.T) {
	sender := "mgr"
	msg := Message{
		SenderID:     &sender,
		RecipientIDs: []string{"emp", "hr-1", "mgr", "", "hr-1", "hr-2"},
	}

	assert.Equal(t, []string{"emp", "hr-1", "hr-2"}, msg.Recipients())
}

func TestMessage_RecipientsWithoutSender(t *testing.T) {
	msg := Message{RecipientIDs: []string{"a", "a"}}
	assert.Equal(t, []string{"a"}, msg.Recipients())
}
