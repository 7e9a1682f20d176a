package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/samvad-hq/newsfeed/internal/domain"
	"github.com/samvad-hq/newsfeed/internal/logger"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

func TestAWSSQSSenderSendSuccess(t *testing.T) {
	client := &fakeSQSClient{}
	sender := &awsSQSSender{
		queueURL: "https://example.com/queue",
		client:   client,
		log:      logger.NopLogger{},
	}

	evt := NewEvent(domain.NewsItem{Section: "Sport", URL: "https://example.com/a"}, "", "")
	if err := sender.Send(context.Background(), evt); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://example.com/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attr, ok := client.input.MessageAttributes["section"]
	if !ok || aws.ToString(attr.StringValue) != "Sport" {
		t.Fatalf("section attribute missing or wrong: %#v", attr)
	}
	if attr.DataType == nil || aws.ToString(attr.DataType) != "String" {
		t.Fatalf("DataType should be String, got %#v", attr.DataType)
	}
	if !strings.Contains(aws.ToString(client.input.MessageBody), `"item_id":"`+evt.ItemID+`"`) {
		t.Fatalf("MessageBody missing item_id: %s", aws.ToString(client.input.MessageBody))
	}
}

func TestAWSSQSSenderOmitsEmptySectionAndPartial(t *testing.T) {
	client := &fakeSQSClient{}
	sender := &awsSQSSender{queueURL: "q", client: client, log: logger.NopLogger{}}

	if err := sender.Send(context.Background(), NewEvent(domain.NewsItem{URL: "u"}, "", "")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	for _, key := range []string{"section", "partial"} {
		if _, ok := client.input.MessageAttributes[key]; ok {
			t.Fatalf("%s should not be sent as an attribute", key)
		}
	}
}

func TestAWSSQSSenderSendError(t *testing.T) {
	client := &fakeSQSClient{err: errors.New("boom")}
	sender := &awsSQSSender{
		queueURL: "https://example.com/queue",
		client:   client,
		log:      logger.NopLogger{},
	}

	if err := sender.Send(context.Background(), NewEvent(domain.NewsItem{URL: "u"}, "", "")); err == nil {
		t.Fatalf("expected error from Send")
	}
}
