package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"serverless-api-starter/internal/apierr"
)

// DynamoDBAPI is the subset of the DynamoDB client used by the table service.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
}

// DynamoDB per-request batch limits.
const (
	maxBatchWriteItems = 25
	maxBatchGetItems   = 100
)

// tableService implements the TableService interface for one table.
type tableService struct {
	client DynamoDBAPI
	table  string
}

// NewTableService creates a new table service instance bound to tableName
func NewTableService(client DynamoDBAPI, tableName string) (TableService, error) {
	if client == nil {
		return nil, fmt.Errorf("DynamoDB client cannot be nil")
	}
	if tableName == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}
	return &tableService{client: client, table: tableName}, nil
}

func (s *tableService) externalErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op,
		apierr.NewExternalService(fmt.Sprintf("Table operation failed: %v", err), nil))
}

// PutItem writes an item, replacing any existing item with the same key
func (s *tableService) PutItem(ctx context.Context, item map[string]any) error {
	if len(item) == 0 {
		return apierr.NewValidation("Item cannot be empty", nil)
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	if err != nil {
		return s.externalErr("put item", err)
	}

	return nil
}

// GetItem fetches an item by key, returning a not-found error when absent
func (s *tableService) GetItem(ctx context.Context, key map[string]any) (map[string]any, error) {
	av, err := attributevalue.MarshalMap(key)
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       av,
	})
	if err != nil {
		return nil, s.externalErr("get item", err)
	}
	if len(out.Item) == 0 {
		return nil, apierr.NewNotFound(
			fmt.Sprintf("Item not found in table %s", s.table),
			"Item",
			keyString(key),
		)
	}

	var item map[string]any
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}

	return item, nil
}

// DeleteItem removes an item by key; deleting a missing item is not an error
func (s *tableService) DeleteItem(ctx context.Context, key map[string]any) error {
	av, err := attributevalue.MarshalMap(key)
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       av,
	})
	if err != nil {
		return s.externalErr("delete item", err)
	}

	return nil
}

// UpdateItem applies a SET update for each attribute in updates and
// returns the item as stored after the update.
func (s *tableService) UpdateItem(ctx context.Context, key map[string]any, updates map[string]any) (map[string]any, error) {
	if len(updates) == 0 {
		return nil, apierr.NewValidation("Updates cannot be empty", nil)
	}

	keyAV, err := attributevalue.MarshalMap(key)
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}

	names := make([]string, 0, len(updates))
	for name := range updates {
		names = append(names, name)
	}
	sort.Strings(names)

	var expr strings.Builder
	exprNames := make(map[string]string, len(names))
	exprValues := make(map[string]any, len(names))
	expr.WriteString("SET ")
	for i, name := range names {
		if i > 0 {
			expr.WriteString(", ")
		}
		placeholder := fmt.Sprintf("#a%d", i)
		valuePlaceholder := fmt.Sprintf(":v%d", i)
		fmt.Fprintf(&expr, "%s = %s", placeholder, valuePlaceholder)
		exprNames[placeholder] = name
		exprValues[valuePlaceholder] = updates[name]
	}

	valueAV, err := attributevalue.MarshalMap(exprValues)
	if err != nil {
		return nil, fmt.Errorf("marshal update values: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       keyAV,
		UpdateExpression:          aws.String(expr.String()),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: valueAV,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, s.externalErr("update item", err)
	}

	var item map[string]any
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, fmt.Errorf("unmarshal updated item: %w", err)
	}

	return item, nil
}

// Query runs a key condition expression with :name value placeholders
func (s *tableService) Query(ctx context.Context, keyCondition string, values map[string]any, limit int32) ([]map[string]any, error) {
	if keyCondition == "" {
		return nil, apierr.NewValidation("Key condition cannot be empty", nil)
	}

	valueAV, err := attributevalue.MarshalMap(values)
	if err != nil {
		return nil, fmt.Errorf("marshal query values: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		KeyConditionExpression:    aws.String(keyCondition),
		ExpressionAttributeValues: valueAV,
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	out, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, s.externalErr("query", err)
	}

	return unmarshalItems(out.Items)
}

// Scan reads items from the table, optionally bounded by limit
func (s *tableService) Scan(ctx context.Context, limit int32) ([]map[string]any, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(s.table)}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	out, err := s.client.Scan(ctx, input)
	if err != nil {
		return nil, s.externalErr("scan", err)
	}

	return unmarshalItems(out.Items)
}

// BatchPutItems writes items in chunks of at most 25 per request
func (s *tableService) BatchPutItems(ctx context.Context, items []map[string]any) error {
	if len(items) == 0 {
		return apierr.NewValidation("Item batch cannot be empty", nil)
	}

	for start := 0; start < len(items); start += maxBatchWriteItems {
		end := start + maxBatchWriteItems
		if end > len(items) {
			end = len(items)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, item := range items[start:end] {
			av, err := attributevalue.MarshalMap(item)
			if err != nil {
				return fmt.Errorf("marshal item: %w", err)
			}
			requests = append(requests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: av},
			})
		}

		_, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{s.table: requests},
		})
		if err != nil {
			return s.externalErr("batch write", err)
		}
	}

	return nil
}

// BatchGetItems fetches items by key in chunks of at most 100 per request
func (s *tableService) BatchGetItems(ctx context.Context, keys []map[string]any) ([]map[string]any, error) {
	if len(keys) == 0 {
		return nil, apierr.NewValidation("Key batch cannot be empty", nil)
	}

	var items []map[string]any
	for start := 0; start < len(keys); start += maxBatchGetItems {
		end := start + maxBatchGetItems
		if end > len(keys) {
			end = len(keys)
		}

		keyAVs := make([]map[string]types.AttributeValue, 0, end-start)
		for _, key := range keys[start:end] {
			av, err := attributevalue.MarshalMap(key)
			if err != nil {
				return nil, fmt.Errorf("marshal key: %w", err)
			}
			keyAVs = append(keyAVs, av)
		}

		out, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				s.table: {Keys: keyAVs},
			},
		})
		if err != nil {
			return nil, s.externalErr("batch get", err)
		}

		fetched, err := unmarshalItems(out.Responses[s.table])
		if err != nil {
			return nil, err
		}
		items = append(items, fetched...)
	}

	return items, nil
}

// ItemExists reports whether an item with the given key is present
func (s *tableService) ItemExists(ctx context.Context, key map[string]any) (bool, error) {
	_, err := s.GetItem(ctx, key)
	if err != nil {
		if apiErr := apierr.AsError(err); apiErr != nil && apiErr.Type == apierr.TypeNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func unmarshalItems(avs []map[string]types.AttributeValue) ([]map[string]any, error) {
	items := make([]map[string]any, 0, len(avs))
	for _, av := range avs {
		var item map[string]any
		if err := attributevalue.UnmarshalMap(av, &item); err != nil {
			return nil, fmt.Errorf("unmarshal item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func keyString(key map[string]any) string {
	parts := make([]string, 0, len(key))
	for name, value := range key {
		parts = append(parts, fmt.Sprintf("%s=%v", name, value))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// TableRegistry hands out one table service per table name.
type TableRegistry struct {
	client DynamoDBAPI

	mu       sync.Mutex
	services map[string]TableService
}

// NewTableRegistry creates a new table registry
func NewTableRegistry(client DynamoDBAPI) *TableRegistry {
	return &TableRegistry{
		client:   client,
		services: make(map[string]TableService),
	}
}

// Get returns the table service for tableName, creating it on first use
func (r *TableRegistry) Get(tableName string) (TableService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if svc, ok := r.services[tableName]; ok {
		return svc, nil
	}

	svc, err := NewTableService(r.client, tableName)
	if err != nil {
		return nil, err
	}
	r.services[tableName] = svc

	return svc, nil
}
