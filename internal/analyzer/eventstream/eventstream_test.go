package eventstream

import (
	"context"
	"testing"
	"time"

	"github.com/shredstream-sniper/sniperkit/pkg/logging"
)

type fakeSource struct {
	ch chan TxUpdate
}

func (f *fakeSource) Subscribe(ctx context.Context) (<-chan TxUpdate, error) {
	return f.ch, nil
}

type recordingHandler struct {
	calls chan []string
}

func (h *recordingHandler) HandleLogs(ctx context.Context, logs []string) error {
	h.calls <- logs
	return nil
}

func TestIngestRunDeliversUpdatesToHandler(t *testing.T) {
	src := &fakeSource{ch: make(chan TxUpdate, 1)}
	handler := &recordingHandler{calls: make(chan []string, 1)}

	in := New(src, handler, logging.New(nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go in.Run(ctx)

	src.ch <- TxUpdate{Logs: []string{"a log line"}}

	select {
	case got := <-handler.calls:
		if len(got) != 1 || got[0] != "a log line" {
			t.Fatalf("unexpected logs: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for handler call")
	}
}
