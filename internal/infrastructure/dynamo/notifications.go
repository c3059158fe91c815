package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-broadcast-api/internal/domain"
)

// batchMax is the DynamoDB BatchWriteItem request ceiling.
const batchMax = 25

// NotificationRepo provides typed DynamoDB operations for the notifications
// table. Broadcast fan-out writes land here, one item per recipient; the
// announcement views are rebuilt from these items at read time.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

// PutBatch persists all records via BatchWriteItem in chunks of 25. A chunk
// error or any unprocessed item fails the whole batch; callers treat the
// outcome as all-or-nothing and must not assume partial success.
func (r *NotificationRepo) PutBatch(ctx context.Context, records []domain.Notification) error {
	for _, part := range chunk(records, batchMax) {
		reqs := make([]types.WriteRequest, 0, len(part))
		for i := range part {
			item, err := attributevalue.MarshalMap(&part[i])
			if err != nil {
				return fmt.Errorf("marshal notification: %w", err)
			}
			reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}
		out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.tableName: reqs},
		})
		if err != nil {
			return err
		}
		if len(out.UnprocessedItems[r.tableName]) > 0 {
			return fmt.Errorf("%d items unprocessed", len(out.UnprocessedItems[r.tableName]))
		}
	}
	return nil
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("notification_id", notificationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByKind returns every record of the given kind, newest first, following
// index pagination to the end. The result is a point-in-time snapshot.
func (r *NotificationRepo) ListByKind(ctx context.Context, kind string) ([]domain.Notification, error) {
	var records []domain.Notification
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String("kind-created_at-index"),
			KeyConditionExpression: aws.String("kind = :k"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":k": &types.AttributeValueMemberS{Value: kind},
			},
			ScanIndexForward:  aws.Bool(false),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Notification
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		records = append(records, page...)
		if out.LastEvaluatedKey == nil {
			return records, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// ListGroup returns every member record matching the content triple (and
// kind). This is the store-level "scan by filter" the announcement engine
// regroups on.
func (r *NotificationRepo) ListGroup(ctx context.Context, f domain.GroupFilter) ([]domain.Notification, error) {
	var records []domain.Notification
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String("kind-created_at-index"),
			KeyConditionExpression: aws.String("kind = :k"),
			FilterExpression:       aws.String("title = :t AND body = :b AND sender_id = :s"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":k": &types.AttributeValueMemberS{Value: f.Kind},
				":t": &types.AttributeValueMemberS{Value: f.Title},
				":b": &types.AttributeValueMemberS{Value: f.Body},
				":s": &types.AttributeValueMemberS{Value: f.SenderID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Notification
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		records = append(records, page...)
		if out.LastEvaluatedKey == nil {
			return records, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// DeleteGroup removes every record matching the content triple and returns
// how many were deleted. DynamoDB has no multi-row delete-by-filter, so the
// members are queried first and removed in batches; rows inserted after the
// query are not covered.
func (r *NotificationRepo) DeleteGroup(ctx context.Context, f domain.GroupFilter) (int, error) {
	members, err := r.ListGroup(ctx, f)
	if err != nil {
		return 0, err
	}
	for _, part := range chunk(members, batchMax) {
		reqs := make([]types.WriteRequest, 0, len(part))
		for i := range part {
			reqs = append(reqs, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: strKey("notification_id", part[i].NotificationID)},
			})
		}
		out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.tableName: reqs},
		})
		if err != nil {
			return 0, err
		}
		if len(out.UnprocessedItems[r.tableName]) > 0 {
			return 0, fmt.Errorf("%d deletes unprocessed", len(out.UnprocessedItems[r.tableName]))
		}
	}
	return len(members), nil
}

// ListForUser queries the user_id-created_at GSI for one recipient's inbox,
// newest first. Archived records are always excluded; unreadOnly additionally
// filters on is_read.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	filter := "is_archived = :f"
	values := map[string]types.AttributeValue{
		":uid": &types.AttributeValueMemberS{Value: userID},
		":f":   &types.AttributeValueMemberBOOL{Value: false},
	}
	if unreadOnly {
		filter += " AND is_read = :f"
	}
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("user_id-created_at-index"),
		KeyConditionExpression:    aws.String("user_id = :uid"),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	var notifications []domain.Notification
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID string) error {
	return r.setFlag(ctx, notificationID, "is_read")
}

func (r *NotificationRepo) MarkArchived(ctx context.Context, notificationID string) error {
	return r.setFlag(ctx, notificationID, "is_archived")
}

func (r *NotificationRepo) setFlag(ctx context.Context, notificationID, field string) error {
	expr, names, values, err := buildUpdateExpr(map[string]interface{}{field: true})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("notification_id", notificationID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}
