package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketbridge/internal/logger"
	"marketbridge/internal/models"
)

type queueReader struct {
	messages  []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (q *queueReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(q.messages) == 0 {
		q.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := q.messages[0]
	q.messages = q.messages[1:]
	return m, nil
}

func (q *queueReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		q.committed = append(q.committed, m.Offset)
	}
	return nil
}

func (q *queueReader) Close() error { return nil }

type recordingWriter struct {
	messages []kafka.Message
	err      error
}

func (r *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msgs...)
	return nil
}

func (r *recordingWriter) Close() error { return nil }

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest([]byte(`{"item_id": " 6543 ", "brand": "ader"}`))
	require.NoError(t, err)
	assert.Equal(t, ImportRequest{ItemID: "6543", Brand: "ader"}, req)

	_, err = ParseRequest([]byte(`{"brand": "ader"}`))
	require.Error(t, err)

	_, err = ParseRequest([]byte(`not json`))
	require.Error(t, err)
}

func TestWorkerStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &queueReader{
		cancel: cancel,
		messages: []kafka.Message{
			{Offset: 1, Value: []byte(`{"item_id": "1"}`)},
			{Offset: 2, Value: []byte(`garbage`)},
			{Offset: 3, Value: []byte(`{"item_id": "2", "brand": "ader"}`)},
		},
	}
	writer := &recordingWriter{}
	runner := &scriptedRunner{fail: map[string]bool{"2": true}}

	w := &Worker{logger: logger.Nop(), runner: runner, reader: reader, writer: writer}
	require.NoError(t, w.Start(ctx))

	assert.Equal(t, []string{"/1", "ader/2"}, runner.calls)
	assert.Equal(t, []int64{1, 2, 3}, reader.committed)

	require.Len(t, writer.messages, 2)
	assert.Equal(t, "2", string(writer.messages[1].Key))
	var res models.PipelineResult
	require.NoError(t, json.Unmarshal(writer.messages[1].Value, &res))
	assert.False(t, res.Success)
	assert.Equal(t, "no valid variants", res.Error)
}

func TestWorkerCommitsWhenPublishFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &queueReader{cancel: cancel, messages: []kafka.Message{{Offset: 7, Value: []byte(`{"item_id": "1"}`)}}}
	w := &Worker{
		logger: logger.Nop(),
		runner: &scriptedRunner{},
		reader: reader,
		writer: &recordingWriter{err: errors.New("broker down")},
	}
	require.NoError(t, w.Start(ctx))
	assert.Equal(t, []int64{7}, reader.committed)
}
