package aws

import (
	"context"
	stderrors "errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSES struct {
	mock.Mock
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*ses.SendEmailOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSNS struct {
	mock.Mock
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*sns.PublishOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestSESClient_SendText(t *testing.T) {
	api := new(mockSES)
	api.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return awssdk.ToString(in.Source) == "bot@example.in" &&
			in.Destination.ToAddresses[0] == "sales@example.in" &&
			awssdk.ToString(in.Message.Subject.Data) == "New chat lead"
	})).Return(&ses.SendEmailOutput{MessageId: awssdk.String("ses-1")}, nil)

	id, err := NewSESClientWithAPI(api).SendText(context.Background(), "bot@example.in", "sales@example.in", "New chat lead", "body")
	require.NoError(t, err)
	assert.Equal(t, "ses-1", id)
	api.AssertExpectations(t)
}

func TestSESClient_SendTextError(t *testing.T) {
	api := new(mockSES)
	api.On("SendEmail", mock.Anything, mock.Anything).Return(nil, stderrors.New("MessageRejected"))

	_, err := NewSESClientWithAPI(api).SendText(context.Background(), "a", "b", "c", "d")
	assert.ErrorContains(t, err, "MessageRejected")
}

func TestSNSClient_SendSMS(t *testing.T) {
	api := new(mockSNS)
	api.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		sender, ok := in.MessageAttributes["AWS.SNS.SMS.SenderID"]
		return awssdk.ToString(in.PhoneNumber) == "+919876543210" &&
			ok && awssdk.ToString(sender.StringValue) == "PROPTY"
	})).Return(&sns.PublishOutput{MessageId: awssdk.String("sns-1")}, nil)

	id, err := NewSNSClientWithAPI(api, "PROPTY").SendSMS(context.Background(), "+919876543210", "Thanks!")
	require.NoError(t, err)
	assert.Equal(t, "sns-1", id)
	api.AssertExpectations(t)
}

func TestSNSClient_NoSenderID(t *testing.T) {
	api := new(mockSNS)
	api.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		_, ok := in.MessageAttributes["AWS.SNS.SMS.SenderID"]
		return !ok
	})).Return(&sns.PublishOutput{}, nil)

	_, err := NewSNSClientWithAPI(api, "").SendSMS(context.Background(), "+919876543210", "Thanks!")
	require.NoError(t, err)
}
