package sqs

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/datasentry/internal/domain/scanning"
	"github.com/ahrav/datasentry/pkg/common/logger"
)

type fakeSQS struct {
	messages []types.Message
	deleted  []string
	sent     []string
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, _ *awssqs.ReceiveMessageInput, _ ...func(*awssqs.Options)) (*awssqs.ReceiveMessageOutput, error) {
	out := &awssqs.ReceiveMessageOutput{Messages: f.messages}
	f.messages = nil
	return out, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, params *awssqs.DeleteMessageInput, _ ...func(*awssqs.Options)) (*awssqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &awssqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) SendMessage(_ context.Context, params *awssqs.SendMessageInput, _ ...func(*awssqs.Options)) (*awssqs.SendMessageOutput, error) {
	f.sent = append(f.sent, aws.ToString(params.MessageBody))
	return &awssqs.SendMessageOutput{}, nil
}

func newTestQueue(client API) *Queue {
	return NewQueue(client, DefaultConfig("https://sqs.test/queue"), logger.Noop())
}

func TestQueue_ReceiveParsesWorkItems(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()
	fake := &fakeSQS{messages: []types.Message{{
		MessageId:     aws.String("m1"),
		ReceiptHandle: aws.String("r1"),
		Body:          aws.String(`{"job_id":"` + jobID.String() + `","bucket":"b","object_key":"k.txt","attempt":0}`),
		Attributes: map[string]string{
			string(types.MessageSystemAttributeNameApproximateReceiveCount): "3",
		},
	}}}

	items, err := newTestQueue(fake).Receive(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, jobID, items[0].JobID)
	assert.Equal(t, "b", items[0].Bucket)
	assert.Equal(t, "k.txt", items[0].ObjectKey)
	assert.Equal(t, "m1", items[0].MessageID)
	assert.Equal(t, "r1", items[0].ReceiptHandle)
	assert.Equal(t, 3, items[0].Attempt)
	assert.Empty(t, fake.deleted)
}

func TestQueue_ReceiveDropsMalformedMessages(t *testing.T) {
	t.Parallel()

	fake := &fakeSQS{messages: []types.Message{
		{
			MessageId:     aws.String("bad"),
			ReceiptHandle: aws.String("r-bad"),
			Body:          aws.String(`{"bucket":"b"}`),
		},
		{
			MessageId:     aws.String("good"),
			ReceiptHandle: aws.String("r-good"),
			Body:          aws.String(`{"job_id":"` + uuid.NewString() + `","bucket":"b","object_key":"k"}`),
		},
	}}

	items, err := newTestQueue(fake).Receive(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "good", items[0].MessageID)

	// The malformed message must be deleted so it cannot loop.
	assert.Equal(t, []string{"r-bad"}, fake.deleted)
}

func TestQueue_EnqueueAndAcknowledge(t *testing.T) {
	t.Parallel()

	fake := &fakeSQS{}
	q := newTestQueue(fake)

	item := scanning.WorkItem{JobID: uuid.New(), Bucket: "b", ObjectKey: "path/file.txt"}
	require.NoError(t, q.Enqueue(context.Background(), item))
	require.Len(t, fake.sent, 1)

	parsed, err := scanning.ParseWorkItem([]byte(fake.sent[0]))
	require.NoError(t, err)
	assert.Equal(t, item.JobID, parsed.JobID)
	assert.Equal(t, item.ObjectKey, parsed.ObjectKey)

	require.NoError(t, q.Acknowledge(context.Background(), "r9"))
	assert.Equal(t, []string{"r9"}, fake.deleted)
}
