package pamauth

import (
	"github.com/msteinert/pam/v2"
	"github.com/ubuntu/screenlock/internal/auth"
)

// ConversationHandler exposes the mapping between PAM messages and the conversation.
func ConversationHandler(conv auth.Conversation) pam.ConversationFunc {
	return conversationHandler(conv)
}
