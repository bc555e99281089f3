package core

import "context"

// Oracle is the external chat-completion capability.
type Oracle interface {
	Chat(ctx context.Context, history []Message, tools []Tool, sampling Sampling) (Message, error)
}
