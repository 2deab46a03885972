package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type dynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type dynamoItem struct {
	ID        string `dynamodbav:"sessionId"`
	Status    string `dynamodbav:"status"`
	FlowStep  string `dynamodbav:"flowStep"`
	State     string `dynamodbav:"state"`
	UpdatedAt int64  `dynamodbav:"updatedAt"`
	ExpiresAt int64  `dynamodbav:"expiresAt,omitempty"`
}

// DynamoStore keeps sessions in a DynamoDB table keyed by sessionId, with
// expiresAt as the table's TTL attribute.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
	ttl       time.Duration
}

func NewDynamoStore(client dynamoAPI, tableName string, ttl time.Duration) *DynamoStore {
	if client == nil {
		panic("session: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("session: table name cannot be empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DynamoStore{client: client, tableName: tableName, ttl: ttl}
}

func (d *DynamoStore) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"sessionId": &types.AttributeValueMemberS{Value: id}}
}

func (d *DynamoStore) Load(ctx context.Context, id string) (*Session, error) {
	ctx, span := sessionTracer.Start(ctx, "session.dynamo.load")
	defer span.End()

	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		Key:            d.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: dynamodb get %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("session: dynamodb decode %s: %w", id, err)
	}
	return decode([]byte(item.State))
}

func (d *DynamoStore) Save(ctx context.Context, s *Session) error {
	ctx, span := sessionTracer.Start(ctx, "session.dynamo.save")
	defer span.End()

	data, err := encode(s)
	if err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(dynamoItem{
		ID:        s.ID,
		Status:    string(s.Status),
		FlowStep:  string(s.FlowStep),
		State:     string(data),
		UpdatedAt: s.UpdatedAt.Unix(),
		ExpiresAt: s.UpdatedAt.Add(d.ttl).Unix(),
	})
	if err != nil {
		return fmt.Errorf("session: dynamodb marshal %s: %w", s.ID, err)
	}
	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(d.tableName), Item: item}); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: dynamodb put %s: %w", s.ID, err)
	}
	return nil
}

func (d *DynamoStore) Delete(ctx context.Context, id string) error {
	ctx, span := sessionTracer.Start(ctx, "session.dynamo.delete")
	defer span.End()

	if _, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{TableName: aws.String(d.tableName), Key: d.key(id)}); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: dynamodb delete %s: %w", id, err)
	}
	return nil
}

// ListIdle scans for active sessions. The table only holds live
// conversations, so a filtered scan stays small.
func (d *DynamoStore) ListIdle(ctx context.Context, before time.Time, limit int) ([]string, error) {
	ctx, span := sessionTracer.Start(ctx, "session.dynamo.list_idle")
	defer span.End()
	if limit <= 0 {
		limit = 100
	}

	var (
		ids      []string
		startKey map[string]types.AttributeValue
	)
	for {
		out, err := d.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                aws.String(d.tableName),
			FilterExpression:         aws.String("#status = :active AND updatedAt < :before"),
			ProjectionExpression:     aws.String("sessionId"),
			ExpressionAttributeNames: map[string]string{"#status": "status"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":active": &types.AttributeValueMemberS{Value: string(StatusActive)},
				":before": &types.AttributeValueMemberN{Value: strconv.FormatInt(before.Unix(), 10)},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("session: dynamodb scan: %w", err)
		}
		for _, raw := range out.Items {
			if v, ok := raw["sessionId"].(*types.AttributeValueMemberS); ok {
				ids = append(ids, v.Value)
				if len(ids) >= limit {
					return ids, nil
				}
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			return ids, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

var _ Store = (*DynamoStore)(nil)
