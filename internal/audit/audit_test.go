package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryWriter struct {
	mu      sync.Mutex
	batches [][]Record
	err     error
}

func (w *memoryWriter) WriteBatch(_ context.Context, records []Record) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return "", w.err
	}
	w.batches = append(w.batches, append([]Record(nil), records...))
	return "mem", nil
}

func (w *memoryWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, b := range w.batches {
		n += len(b)
	}
	return n
}

func TestBufferedSink_FlushesOnSize(t *testing.T) {
	w := &memoryWriter{}
	sink := NewBufferedSink(w, 10, 2, time.Hour, "pod-a")
	defer sink.Shutdown(context.Background())

	assert.True(t, sink.Enqueue(Record{UserID: "u1", Operation: "update_full"}))
	assert.True(t, sink.Enqueue(Record{UserID: "u2", Operation: "add_theme"}))

	require.Eventually(t, func() bool { return w.count() == 2 }, time.Second, 10*time.Millisecond)

	w.mu.Lock()
	defer w.mu.Unlock()
	require.Len(t, w.batches, 1)
	assert.Equal(t, "pod-a", w.batches[0][0].Pod)
}

func TestBufferedSink_FlushesOnInterval(t *testing.T) {
	w := &memoryWriter{}
	sink := NewBufferedSink(w, 10, 100, 20*time.Millisecond, "pod-a")
	defer sink.Shutdown(context.Background())

	sink.Enqueue(Record{UserID: "u1"})
	require.Eventually(t, func() bool { return w.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestBufferedSink_ShutdownDrains(t *testing.T) {
	w := &memoryWriter{}
	sink := NewBufferedSink(w, 10, 100, time.Hour, "")

	for i := 0; i < 5; i++ {
		sink.Enqueue(Record{UserID: "u1"})
	}
	require.NoError(t, sink.Shutdown(context.Background()))
	assert.Equal(t, 5, w.count())

	assert.False(t, sink.Enqueue(Record{UserID: "late"}))
	assert.NoError(t, sink.Shutdown(context.Background()))
}

func TestBufferedSink_WriterErrorsAreSwallowed(t *testing.T) {
	w := &memoryWriter{err: errors.New("s3 down")}
	sink := NewBufferedSink(w, 10, 1, time.Hour, "")

	sink.Enqueue(Record{UserID: "u1"})
	assert.NoError(t, sink.Shutdown(context.Background()))
}

func TestNoopSink(t *testing.T) {
	assert.True(t, NewNoopSink().Enqueue(Record{}))
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3Writer_WriteBatch(t *testing.T) {
	putter := &fakePutter{}
	w := newS3Writer(putter, "audit-bucket", "audit/", "chatd-0")
	w.now = func() time.Time { return time.Date(2026, 10, 16, 14, 30, 22, 123, time.UTC) }

	records := []Record{
		{UserID: "u1", Operation: "update_partial", Fields: []string{"customThemes"}, Version: 2},
		{UserID: "u2", Operation: "complete_onboarding", Fields: []string{"onboardingCompleted"}, Version: 1},
	}

	key, err := w.WriteBatch(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, "audit/2026/10/16/chatd-0-20261016-143022-000000123.jsonl", key)
	assert.Equal(t, "audit-bucket", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "application/x-ndjson", aws.ToString(putter.input.ContentType))

	scanner := bufio.NewScanner(bytes.NewReader(putter.body))
	var decoded []Record
	for scanner.Scan() {
		var rec Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		decoded = append(decoded, rec)
	}
	require.Len(t, decoded, 2)
	assert.Equal(t, "u1", decoded[0].UserID)
	assert.Equal(t, []string{"onboardingCompleted"}, decoded[1].Fields)
}

func TestS3Writer_EmptyBatchAndErrors(t *testing.T) {
	putter := &fakePutter{}
	w := newS3Writer(putter, "b", "p/", "pod")

	key, err := w.WriteBatch(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, key)
	assert.Nil(t, putter.input)

	putter.err = errors.New("access denied")
	_, err = w.WriteBatch(context.Background(), []Record{{UserID: "u"}})
	assert.Error(t, err)
}
