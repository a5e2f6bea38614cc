package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellness-step-by-step/client-form/events"
	"wellness-step-by-step/client-form/models"
)

type fakeReader struct {
	msgs   chan kafka.Message
	closed chan struct{}
	once   sync.Once
}

func newFakeReader() *fakeReader {
	return &fakeReader{msgs: make(chan kafka.Message, 4), closed: make(chan struct{})}
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-r.closed:
		return kafka.Message{}, io.EOF
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) Close() error {
	r.once.Do(func() { close(r.closed) })
	return nil
}

type indexed struct {
	index string
	id    string
	doc   interface{}
}

type fakeES struct {
	mu   sync.Mutex
	docs []indexed
	err  error
}

func (f *fakeES) IndexDocument(_ context.Context, index, id string, doc interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.docs = append(f.docs, indexed{index: index, id: id, doc: doc})
	return nil
}

func (f *fakeES) Search(context.Context, string, map[string]interface{}) ([]map[string]interface{}, error) {
	return nil, nil
}

func (f *fakeES) Close() error { return nil }

func (f *fakeES) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}

func eventMessage(t *testing.T, offset int64, event events.SubmissionEvent) kafka.Message {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Partition: 0, Offset: offset, Value: data}
}

func TestConsumerIndexesSubmissions(t *testing.T) {
	reader := newFakeReader()
	es := &fakeES{}
	logger, _ := test.NewNullLogger()
	c := newSubmissionConsumer(reader, "client_form_submissions", es, logger)

	event := events.NewSubmissionEvent(models.UpdateMode(42), models.Record{Name: "Maria Lopez"}, "s1", time.Now())
	reader.msgs <- eventMessage(t, 7, event)

	c.Start(context.Background())
	require.Eventually(t, func() bool { return es.count() == 1 }, time.Second, 10*time.Millisecond)
	c.Stop()

	assert.Equal(t, "client_form_submissions", es.docs[0].index)
	assert.Equal(t, "0-7", es.docs[0].id)
	assert.Equal(t, events.ClientUpdated, es.docs[0].doc.(events.SubmissionEvent).Event)
}

func TestHandleSkipsUnknownEvents(t *testing.T) {
	es := &fakeES{}
	logger, hook := test.NewNullLogger()
	c := newSubmissionConsumer(newFakeReader(), "audit", es, logger)

	err := c.handle(context.Background(), eventMessage(t, 1, events.SubmissionEvent{Event: "client_deleted"}))
	require.NoError(t, err)
	assert.Zero(t, es.count())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestHandleReportsBadPayloadAndIndexFailure(t *testing.T) {
	logger, _ := test.NewNullLogger()
	es := &fakeES{err: errors.New("cluster red")}
	c := newSubmissionConsumer(newFakeReader(), "audit", es, logger)

	assert.Error(t, c.handle(context.Background(), kafka.Message{Value: []byte("{")}))

	err := c.handle(context.Background(), eventMessage(t, 2, events.SubmissionEvent{Event: events.ClientCreated}))
	assert.ErrorContains(t, err, "cluster red")
}

func TestStopWithoutStartReturns(t *testing.T) {
	reader := newFakeReader()
	logger, _ := test.NewNullLogger()
	c := newSubmissionConsumer(reader, "audit", &fakeES{}, logger)

	stopped := make(chan struct{})
	go func() {
		c.Stop()
		c.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a consumer that was never started")
	}

	select {
	case <-reader.closed:
	default:
		t.Fatal("reader was not closed")
	}

	// Starting after Stop must not launch the read loop.
	c.Start(context.Background())
	c.Stop()
}
