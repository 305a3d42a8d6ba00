package dynamo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Blittyyy/RateMyCollegeFinal/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// CollegeRepo reads the canonical institution registry. The table is
// read-only at request time; Seed populates it once at bootstrap.
type CollegeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCollegeRepo(client *dynamodb.Client, tableName string) *CollegeRepo {
	return &CollegeRepo{client: client, tableName: tableName}
}

// Scan returns every college. The registry is small (hundreds of rows), so a
// single-page scan is acceptable; callers sort for deterministic matching.
func (r *CollegeRepo) Scan(ctx context.Context) ([]domain.College, error) {
	var colleges []domain.College
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.College
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		colleges = append(colleges, page...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return colleges, nil
}

// GetByName looks up a college by exact canonical name via the name GSI.
func (r *CollegeRepo) GetByName(ctx context.Context, name string) (*domain.College, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("name-index"),
		KeyConditionExpression: aws.String("#n = :v"),
		ExpressionAttributeNames: map[string]string{
			"#n": "name",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: name},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("college not found: %w", domain.ErrNotFound)
	}
	var c domain.College
	if err := attributevalue.UnmarshalMap(out.Items[0], &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Seed inserts the given colleges when the table is empty. Safe to call on
// every startup.
func (r *CollegeRepo) Seed(ctx context.Context, colleges []domain.College) error {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(1),
	})
	if err != nil {
		return err
	}
	if len(out.Items) > 0 {
		return nil
	}
	for i := range colleges {
		item, err := attributevalue.MarshalMap(&colleges[i])
		if err != nil {
			return fmt.Errorf("marshal college: %w", err)
		}
		if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(r.tableName),
			Item:      item,
		}); err != nil {
			return err
		}
	}
	slog.Info("seeded college registry", "count", len(colleges))
	return nil
}
