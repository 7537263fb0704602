package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanveenambrose/EcoMoney/internal/domain"
)

// fakeAccountsAPI records UpdateItem calls and answers them with err.
type fakeAccountsAPI struct {
	accountsAPI
	err     error
	updates []*dynamodb.UpdateItemInput
}

func (f *fakeAccountsAPI) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

var fixedNow = time.Date(2025, 11, 24, 10, 0, 0, 0, time.UTC)

func newTestRepo(api accountsAPI) *AccountRepo {
	return &AccountRepo{client: api, tableName: "accounts", now: func() time.Time { return fixedNow }}
}

// setAttrs resolves the SET clause of an update into attribute name -> value.
func setAttrs(t *testing.T, in *dynamodb.UpdateItemInput) map[string]types.AttributeValue {
	t.Helper()
	out := map[string]types.AttributeValue{}
	for placeholder, attr := range in.ExpressionAttributeNames {
		if len(placeholder) < 3 || placeholder[:2] != "#f" {
			continue
		}
		v, ok := in.ExpressionAttributeValues[":v"+placeholder[2:]]
		require.True(t, ok, placeholder)
		out[attr] = v
	}
	return out
}

func TestConsumeOTPInput_ConditionOnStoredCode(t *testing.T) {
	in, err := newTestRepo(nil).consumeOTPInput("u1", domain.OTPVerify, "482913",
		map[string]interface{}{"is_account_verified": true})
	require.NoError(t, err)

	assert.Equal(t, "accounts", aws.ToString(in.TableName))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "u1"}, in.Key[fieldAccountID])
	assert.Equal(t, "attribute_exists(#id) AND #en = :enabled AND #otp = :expected", aws.ToString(in.ConditionExpression))
	assert.Equal(t, fieldAccountID, in.ExpressionAttributeNames["#id"])
	assert.Equal(t, fieldEnable, in.ExpressionAttributeNames["#en"])
	assert.Equal(t, fieldVerifyOTP, in.ExpressionAttributeNames["#otp"])
	assert.Equal(t, &types.AttributeValueMemberBOOL{Value: true}, in.ExpressionAttributeValues[":enabled"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "482913"}, in.ExpressionAttributeValues[":expected"])
}

func TestConsumeOTPInput_ClearsCodeAndAppliesEffects(t *testing.T) {
	in, err := newTestRepo(nil).consumeOTPInput("u1", domain.OTPVerify, "482913",
		map[string]interface{}{"is_account_verified": true})
	require.NoError(t, err)

	set := setAttrs(t, in)
	assert.Equal(t, &types.AttributeValueMemberS{Value: ""}, set[fieldVerifyOTP])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "0"}, set[fieldVerifyOTPExpireAt])
	assert.Equal(t, &types.AttributeValueMemberBOOL{Value: true}, set["is_account_verified"])
	assert.Contains(t, set, fieldUpdatedAt)
	assert.Len(t, set, 4)
}

func TestConsumeOTPInput_ResetKindUsesResetFields(t *testing.T) {
	in, err := newTestRepo(nil).consumeOTPInput("u1", domain.OTPReset, "111222",
		map[string]interface{}{"password_hash": "$2a$10$hash"})
	require.NoError(t, err)

	assert.Equal(t, fieldResetOTP, in.ExpressionAttributeNames["#otp"])
	set := setAttrs(t, in)
	assert.Equal(t, &types.AttributeValueMemberS{Value: ""}, set[fieldResetOTP])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "0"}, set[fieldResetOTPExpireAt])
	assert.NotContains(t, set, fieldVerifyOTP)
}

func TestConsumeOTP_ConditionFailureIsInvalidOTP(t *testing.T) {
	api := &fakeAccountsAPI{err: &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}}

	err := newTestRepo(api).ConsumeOTP(context.Background(), "u1", domain.OTPVerify, "000000", nil)

	assert.ErrorIs(t, err, domain.ErrInvalidOTP)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
	require.Len(t, api.updates, 1)
}

func TestConsumeOTP_OtherErrorsPassThrough(t *testing.T) {
	api := &fakeAccountsAPI{err: errors.New("throttled")}

	err := newTestRepo(api).ConsumeOTP(context.Background(), "u1", domain.OTPVerify, "000000", nil)

	assert.EqualError(t, err, "throttled")
}

func TestConsumeOTP_Success(t *testing.T) {
	api := &fakeAccountsAPI{}

	err := newTestRepo(api).ConsumeOTP(context.Background(), "u1", domain.OTPReset, "111222", nil)

	require.NoError(t, err)
	require.Len(t, api.updates, 1)
	assert.Contains(t, aws.ToString(api.updates[0].ConditionExpression), "#otp = :expected")
}

func TestUpdate_ConditionFailureIsNotFound(t *testing.T) {
	api := &fakeAccountsAPI{err: &types.ConditionalCheckFailedException{}}

	err := newTestRepo(api).Update(context.Background(), "ghost", map[string]interface{}{"name": "Bob"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.Len(t, api.updates, 1)
	assert.Equal(t, "attribute_exists(#id) AND #en = :enabled", aws.ToString(api.updates[0].ConditionExpression))
	assert.NotContains(t, api.updates[0].ExpressionAttributeNames, "#otp")
}
