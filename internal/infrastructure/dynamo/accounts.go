package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/tanveenambrose/EcoMoney/internal/domain"
)

// accountsAPI is the subset of *dynamodb.Client the repository calls.
type accountsAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// AccountRepo provides typed DynamoDB operations for the accounts table.
type AccountRepo struct {
	client    accountsAPI
	tableName string
	now       func() time.Time
}

func NewAccountRepo(client *dynamodb.Client, tableName string) *AccountRepo {
	return &AccountRepo{client: client, tableName: tableName, now: time.Now}
}

// Put inserts a new account. It never overwrites an existing record.
func (r *AccountRepo) Put(ctx context.Context, a *domain.Account) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": fieldAccountID},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("account already exists: %w", domain.ErrConflict)
	}
	return err
}

// Get returns an enabled account by id.
func (r *AccountRepo) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldAccountID, accountID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	if !a.Enable {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return &a, nil
}

// GetByEmail looks an account up through the email GSI. Disabled accounts are
// returned too so uniqueness checks still see them; callers check Enable.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.queryGSI(ctx, indexEmail, fieldEmail, email)
}

// GetByPhone looks an account up through the phone GSI.
func (r *AccountRepo) GetByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	return r.queryGSI(ctx, indexPhone, fieldPhone, phone)
}

// Update applies a partial SET to an existing account. Missing ids yield ErrNotFound
// instead of silently creating a new item.
func (r *AccountRepo) Update(ctx context.Context, accountID string, updates map[string]interface{}) error {
	in, err := r.updateInput(accountID, updates, nil)
	if err != nil {
		return err
	}
	return r.runUpdate(ctx, in)
}

// SetOTP stores a freshly issued code and its expiry for kind, replacing any previous code.
func (r *AccountRepo) SetOTP(ctx context.Context, accountID, kind, code string, expireAt int64) error {
	codeField, expField := otpFields(kind)
	return r.Update(ctx, accountID, map[string]interface{}{
		codeField: code,
		expField:  expireAt,
	})
}

// ConsumeOTP clears the OTP of kind and applies effects in one conditional write.
// The write only succeeds while the stored code still equals code, so a code
// can be consumed at most once even under concurrent requests.
func (r *AccountRepo) ConsumeOTP(ctx context.Context, accountID, kind, code string, effects map[string]interface{}) error {
	in, err := r.consumeOTPInput(accountID, kind, code, effects)
	if err != nil {
		return err
	}
	err = r.runUpdate(ctx, in)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("invalid OTP: %w", domain.ErrInvalidOTP)
	}
	return err
}

func (r *AccountRepo) consumeOTPInput(accountID, kind, code string, effects map[string]interface{}) (*dynamodb.UpdateItemInput, error) {
	codeField, expField := otpFields(kind)
	updates := make(map[string]interface{}, len(effects)+2)
	for k, v := range effects {
		updates[k] = v
	}
	updates[codeField] = ""
	updates[expField] = int64(0)

	return r.updateInput(accountID, updates, &condition{
		Expr:   "#otp = :expected",
		Names:  map[string]string{"#otp": codeField},
		Values: map[string]types.AttributeValue{":expected": &types.AttributeValueMemberS{Value: code}},
	})
}

// SoftDelete disables an account; it then behaves as not found.
func (r *AccountRepo) SoftDelete(ctx context.Context, accountID string) error {
	return r.Update(ctx, accountID, map[string]interface{}{fieldEnable: false})
}

// ScanPage returns a page of enabled accounts.
// cursor is a base64-encoded user_id used as ExclusiveStartKey.
// Returns the items, a next cursor (empty string when no more pages), and any error.
func (r *AccountRepo) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.Account, string, error) {
	input := &dynamodb.ScanInput{
		TableName:                aws.String(r.tableName),
		FilterExpression:         aws.String("#e = :t"),
		ExpressionAttributeNames: map[string]string{"#e": fieldEnable},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
		Limit: aws.Int32(limit),
	}
	if cursor != "" {
		accountID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = strKey(fieldAccountID, accountID)
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", err
	}
	accounts := []domain.Account{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &accounts); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey[fieldAccountID].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return accounts, nextCursor, nil
}

// condition is an extra ConditionExpression clause with its own placeholders.
type condition struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// updateInput builds an UpdateItem that only applies to existing, enabled
// accounts, AND-ed with extra when it is non-nil. updated_at is always set.
func (r *AccountRepo) updateInput(accountID string, updates map[string]interface{}, extra *condition) (*dynamodb.UpdateItemInput, error) {
	fields := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		fields[k] = v
	}
	fields[fieldUpdatedAt] = r.now().UTC()
	ue, err := buildUpdateExpr(fields)
	if err != nil {
		return nil, err
	}

	ue.Names["#id"] = fieldAccountID
	ue.Names["#en"] = fieldEnable
	ue.Values[":enabled"] = &types.AttributeValueMemberBOOL{Value: true}
	cond := "attribute_exists(#id) AND #en = :enabled"
	if extra != nil {
		cond += " AND " + extra.Expr
		for k, v := range extra.Names {
			ue.Names[k] = v
		}
		for k, v := range extra.Values {
			ue.Values[k] = v
		}
	}

	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldAccountID, accountID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	}, nil
}

// runUpdate maps a failed condition to ErrNotFound.
func (r *AccountRepo) runUpdate(ctx context.Context, in *dynamodb.UpdateItemInput) error {
	_, err := r.client.UpdateItem(ctx, in)
	if isConditionFailed(err) {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return err
}

func (r *AccountRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.Account, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Items[0], &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return err != nil && errors.As(err, &ccf)
}
