package chat

// Sender identifies who produced a transcript message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is one entry of the conversation transcript. Generation results
// ride on the message that announces them.
type Message struct {
	ID            int
	Sender        Sender
	Text          string
	MediaURL      string
	BackgroundURL string
	Prompt        string
}

func userMessage(text string) Message {
	return Message{Sender: SenderUser, Text: text}
}

func aiMessage(text string) Message {
	return Message{Sender: SenderAI, Text: text}
}
