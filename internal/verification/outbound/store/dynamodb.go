package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shandysiswandi/contactgate/internal/pkg/goerror"
	"github.com/shandysiswandi/contactgate/internal/pkg/instrument"
	"github.com/shandysiswandi/contactgate/internal/verification/entity"
)

// DynamoAPI is the subset of *dynamodb.Client used by DynamoDB.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// dynamoItem is the table layout. PK: email. The ttl attribute (epoch seconds)
// lets DynamoDB TTL expire items on its own schedule.
type dynamoItem struct {
	Email     string `dynamodbav:"email"`
	CodeHash  string `dynamodbav:"code_hash"`
	IssuedAt  int64  `dynamodbav:"issued_at"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
	Attempts  int    `dynamodbav:"attempts"`
	TTL       int64  `dynamodbav:"ttl"`
}

func toItem(rec entity.OTPRecord) dynamoItem {
	return dynamoItem{
		Email:     rec.Email,
		CodeHash:  rec.CodeHash,
		IssuedAt:  rec.IssuedAt.UnixMilli(),
		ExpiresAt: rec.ExpiresAt.UnixMilli(),
		Attempts:  rec.Attempts,
		TTL:       rec.ExpiresAt.Add(expiredGrace).Unix(),
	}
}

func (i dynamoItem) record() *entity.OTPRecord {
	return &entity.OTPRecord{
		Email:     i.Email,
		CodeHash:  i.CodeHash,
		IssuedAt:  time.UnixMilli(i.IssuedAt),
		ExpiresAt: time.UnixMilli(i.ExpiresAt),
		Attempts:  i.Attempts,
	}
}

// DynamoDB stores records in a table keyed by email.
type DynamoDB struct {
	spanner

	client    DynamoAPI
	tableName string
}

func NewDynamoDB(client DynamoAPI, tableName string, ins instrument.Instrumentation) *DynamoDB {
	return &DynamoDB{
		spanner:   spanner{ins: ins, name: "verification.outbound.store.dynamodb"},
		client:    client,
		tableName: tableName,
	}
}

func emailKey(email string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"email": &types.AttributeValueMemberS{Value: email},
	}
}

func (d *DynamoDB) Get(ctx context.Context, email string) (_ *entity.OTPRecord, err error) {
	ctx, span := d.startSpan(ctx, "Get")
	defer func() { d.endSpan(span, err) }()

	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		Key:            emailKey(email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, goerror.ErrNotFound
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal otp record: %w", err)
	}

	return item.record(), nil
}

func (d *DynamoDB) Put(ctx context.Context, rec entity.OTPRecord) (err error) {
	ctx, span := d.startSpan(ctx, "Put")
	defer func() { d.endSpan(span, err) }()

	item, err := attributevalue.MarshalMap(toItem(rec))
	if err != nil {
		return fmt.Errorf("marshal otp record: %w", err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	return err
}

func (d *DynamoDB) Delete(ctx context.Context, email string) (err error) {
	ctx, span := d.startSpan(ctx, "Delete")
	defer func() { d.endSpan(span, err) }()

	_, err = d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key:       emailKey(email),
	})
	return err
}

// SweepExpired is a no-op: the ttl attribute lets DynamoDB expire items, and
// readers re-check ExpiresAt.
func (d *DynamoDB) SweepExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}
