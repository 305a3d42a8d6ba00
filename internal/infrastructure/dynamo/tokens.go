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

// TokenRepo manages single-use verification tokens.
// PK: token; GSI user_id-index supports supersession of prior tokens.
type TokenRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTokenRepo(client *dynamodb.Client, tableName string) *TokenRepo {
	return &TokenRepo{client: client, tableName: tableName}
}

func (r *TokenRepo) Put(ctx context.Context, t *domain.VerificationToken) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#t)"),
		ExpressionAttributeNames: map[string]string{
			"#t": "token",
		},
	})
	if isConditionalCheckFailed(err) {
		// A 190-bit collision in practice means a retried request.
		return fmt.Errorf("token already exists: %w", domain.ErrConflict)
	}
	return err
}

func (r *TokenRepo) Get(ctx context.Context, token string) (*domain.VerificationToken, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("token", token),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("token not found: %w", domain.ErrNotFound)
	}
	var t domain.VerificationToken
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Consume flips the consumed flag with a conditional write. Exactly one of any
// number of concurrent calls for the same token succeeds; the rest get
// domain.ErrAlreadyUsed. Superseded tokens never consume.
func (r *TokenRepo) Consume(ctx context.Context, token string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("token", token),
		UpdateExpression:    aws.String("SET consumed = :t"),
		ConditionExpression: aws.String("attribute_exists(#t) AND consumed = :f AND superseded = :f"),
		ExpressionAttributeNames: map[string]string{
			"#t": "token",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("token already consumed or superseded: %w", domain.ErrAlreadyUsed)
	}
	return err
}

// SupersedeActive marks every unconsumed, unsuperseded token for
// (userID, purpose) as superseded. Called before a new token is persisted so
// at most one redeemable token exists per owner/purpose pair.
func (r *TokenRepo) SupersedeActive(ctx context.Context, userID, purpose string) error {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		FilterExpression:       aws.String("purpose = :p AND consumed = :f AND superseded = :f"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
			":p":   &types.AttributeValueMemberS{Value: purpose},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		return err
	}
	var tokens []domain.VerificationToken
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &tokens); err != nil {
		return err
	}
	for i := range tokens {
		_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:           aws.String(r.tableName),
			Key:                 strKey("token", tokens[i].Token),
			UpdateExpression:    aws.String("SET superseded = :t"),
			ConditionExpression: aws.String("consumed = :f"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":t": &types.AttributeValueMemberBOOL{Value: true},
				":f": &types.AttributeValueMemberBOOL{Value: false},
			},
		})
		// A token consumed between the query and this write stays consumed;
		// that is the correct outcome, not an error.
		if err != nil && !isConditionalCheckFailed(err) {
			return err
		}
	}
	return nil
}
