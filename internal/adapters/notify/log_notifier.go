package notify

import (
	"context"
	"log"
)

// LogNotifier writes operator messages to the process log. It is the
// default Notifier; deployments with a messaging bus can substitute
// their own implementation behind the same port.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) PostMessage(ctx context.Context, text string) {
	log.Printf("notify msg=%q", text)
}
