package mapping

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/Xuanphat2004/moxa-gateway/internal/domain"
	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoStore keeps mapping entries in a DynamoDB table keyed by rtu_id (hash) and
// tcp_address (range).
type DynamoStore struct {
	client DynamoAPI
	table  string
}

func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

// OpenDynamoStore loads the default AWS configuration chain for region.
func OpenDynamoStore(ctx context.Context, region, table string) (*DynamoStore, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewDynamoStore(dynamodb.NewFromConfig(cfg), table), nil
}

func (s *DynamoStore) Lookup(ctx context.Context, rtuID, publicAddress uint16) (uint16, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"rtu_id":      &types.AttributeValueMemberN{Value: strconv.Itoa(int(rtuID))},
			"tcp_address": &types.AttributeValueMemberN{Value: strconv.Itoa(int(publicAddress))},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("dynamodb get mapping: %w", err)
	}
	if len(out.Item) == 0 {
		return 0, fmt.Errorf("rtu %d address %d: %w", rtuID, publicAddress, ports.ErrMappingNotFound)
	}

	var entry domain.MappingEntry
	if err := attributevalue.UnmarshalMap(out.Item, &entry); err != nil {
		return 0, fmt.Errorf("failed to unmarshal mapping: %w", err)
	}
	return entry.DeviceAddress, nil
}

func (s *DynamoStore) Put(ctx context.Context, e domain.MappingEntry) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb put mapping: %w", err)
	}
	return nil
}

func (s *DynamoStore) Close() error { return nil }

var _ ports.MappingStore = (*DynamoStore)(nil)
