package dynamo

import (
	"context"
	"fmt"

	"github.com/Blittyyy/RateMyCollegeFinal/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// OAuthStateRepo stores single-use anti-forgery values for the alumni
// verification flow. PK: state.
type OAuthStateRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOAuthStateRepo(client *dynamodb.Client, tableName string) *OAuthStateRepo {
	return &OAuthStateRepo{client: client, tableName: tableName}
}

func (r *OAuthStateRepo) Put(ctx context.Context, s *domain.OAuthState) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal oauth state: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// Consume atomically marks the state used and returns the stored record.
// Unknown or already-used states fail with domain.ErrNotFound; callers treat
// both identically (the callback fails closed either way).
func (r *OAuthStateRepo) Consume(ctx context.Context, state string) (*domain.OAuthState, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("state", state),
		UpdateExpression:    aws.String("SET used = :t"),
		ConditionExpression: aws.String("attribute_exists(#s) AND used = :f"),
		ExpressionAttributeNames: map[string]string{
			"#s": "state",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if isConditionalCheckFailed(err) {
		return nil, fmt.Errorf("oauth state unknown or already used: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var s domain.OAuthState
	if err := attributevalue.UnmarshalMap(out.Attributes, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
