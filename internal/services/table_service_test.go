package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"serverless-api-starter/internal/apierr"
)

// fakeDynamoDB stores items keyed by their "id" string attribute.
type fakeDynamoDB struct {
	items           map[string]map[string]types.AttributeValue
	writeBatchSizes []int
	getBatchSizes   []int
	failErr         error
}

func newFakeDynamoDB() *fakeDynamoDB {
	return &fakeDynamoDB{items: make(map[string]map[string]types.AttributeValue)}
}

func itemID(av map[string]types.AttributeValue) string {
	if s, ok := av["id"].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	f.items[itemID(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDB) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	item := f.items[itemID(params.Key)]
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeDynamoDB) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	delete(f.items, itemID(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamoDB) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	id := itemID(params.Key)
	item := f.items[id]
	if item == nil {
		item = make(map[string]types.AttributeValue)
		for name, value := range params.Key {
			item[name] = value
		}
	}
	// Placeholders are paired by index: #aN names the attribute set from :vN.
	for placeholder, name := range params.ExpressionAttributeNames {
		idx := placeholder[2:]
		item[name] = params.ExpressionAttributeValues[":v"+idx]
	}
	f.items[id] = item
	return &dynamodb.UpdateItemOutput{Attributes: item}, nil
}

func (f *fakeDynamoDB) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	out := &dynamodb.QueryOutput{}
	for _, item := range f.items {
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (f *fakeDynamoDB) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	out := &dynamodb.ScanOutput{}
	for _, item := range f.items {
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (f *fakeDynamoDB) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	for _, requests := range params.RequestItems {
		f.writeBatchSizes = append(f.writeBatchSizes, len(requests))
		for _, req := range requests {
			if req.PutRequest != nil {
				f.items[itemID(req.PutRequest.Item)] = req.PutRequest.Item
			}
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func (f *fakeDynamoDB) BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	out := &dynamodb.BatchGetItemOutput{Responses: make(map[string][]map[string]types.AttributeValue)}
	for table, keysAttrs := range params.RequestItems {
		f.getBatchSizes = append(f.getBatchSizes, len(keysAttrs.Keys))
		for _, key := range keysAttrs.Keys {
			if item, ok := f.items[itemID(key)]; ok {
				out.Responses[table] = append(out.Responses[table], item)
			}
		}
	}
	return out, nil
}

func newTableTestService(t *testing.T) (TableService, *fakeDynamoDB) {
	t.Helper()
	client := newFakeDynamoDB()
	svc, err := NewTableService(client, "test-table")
	if err != nil {
		t.Fatalf("NewTableService() error = %v", err)
	}
	return svc, client
}

func TestTableService_PutGetRoundTrip(t *testing.T) {
	svc, _ := newTableTestService(t)
	ctx := context.Background()

	item := map[string]any{"id": "u-1", "name": "Alice", "age": 30}
	if err := svc.PutItem(ctx, item); err != nil {
		t.Fatalf("PutItem() error = %v", err)
	}

	got, err := svc.GetItem(ctx, map[string]any{"id": "u-1"})
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if got["name"] != "Alice" {
		t.Errorf("name = %v, want Alice", got["name"])
	}
}

func TestTableService_GetItemNotFound(t *testing.T) {
	svc, _ := newTableTestService(t)

	_, err := svc.GetItem(context.Background(), map[string]any{"id": "missing"})
	apiErr := apierr.AsError(err)
	if apiErr == nil || apiErr.Type != apierr.TypeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if apiErr.Details["resource_type"] != "Item" {
		t.Errorf("resource_type = %v", apiErr.Details["resource_type"])
	}
}

func TestTableService_DeleteIsIdempotent(t *testing.T) {
	svc, _ := newTableTestService(t)
	ctx := context.Background()

	if err := svc.PutItem(ctx, map[string]any{"id": "u-1", "name": "A"}); err != nil {
		t.Fatalf("PutItem() error = %v", err)
	}
	if err := svc.DeleteItem(ctx, map[string]any{"id": "u-1"}); err != nil {
		t.Fatalf("DeleteItem() error = %v", err)
	}
	if err := svc.DeleteItem(ctx, map[string]any{"id": "u-1"}); err != nil {
		t.Errorf("second DeleteItem() error = %v", err)
	}

	exists, err := svc.ItemExists(ctx, map[string]any{"id": "u-1"})
	if err != nil {
		t.Fatalf("ItemExists() error = %v", err)
	}
	if exists {
		t.Error("deleted item still reported as existing")
	}
}

func TestTableService_UpdateItemReturnsNewValues(t *testing.T) {
	svc, _ := newTableTestService(t)
	ctx := context.Background()

	if err := svc.PutItem(ctx, map[string]any{"id": "u-1", "name": "Alice", "age": 30}); err != nil {
		t.Fatalf("PutItem() error = %v", err)
	}

	updated, err := svc.UpdateItem(ctx, map[string]any{"id": "u-1"}, map[string]any{"name": "Alicia"})
	if err != nil {
		t.Fatalf("UpdateItem() error = %v", err)
	}
	if updated["name"] != "Alicia" {
		t.Errorf("name = %v, want Alicia", updated["name"])
	}

	_, err = svc.UpdateItem(ctx, map[string]any{"id": "u-1"}, map[string]any{})
	if apierr.AsError(err) == nil {
		t.Errorf("expected validation error for empty updates, got %v", err)
	}
}

func TestTableService_BatchPutChunksAt25(t *testing.T) {
	svc, client := newTableTestService(t)

	items := make([]map[string]any, 60)
	for i := range items {
		items[i] = map[string]any{"id": fmt.Sprintf("u-%d", i)}
	}
	if err := svc.BatchPutItems(context.Background(), items); err != nil {
		t.Fatalf("BatchPutItems() error = %v", err)
	}

	want := []int{25, 25, 10}
	if len(client.writeBatchSizes) != len(want) {
		t.Fatalf("batch calls = %v, want %v", client.writeBatchSizes, want)
	}
	for i, size := range want {
		if client.writeBatchSizes[i] != size {
			t.Errorf("batch %d size = %d, want %d", i, client.writeBatchSizes[i], size)
		}
	}
}

func TestTableService_BatchGetChunksAt100(t *testing.T) {
	svc, client := newTableTestService(t)
	ctx := context.Background()

	items := make([]map[string]any, 120)
	keys := make([]map[string]any, 120)
	for i := range items {
		id := fmt.Sprintf("u-%d", i)
		items[i] = map[string]any{"id": id}
		keys[i] = map[string]any{"id": id}
	}
	if err := svc.BatchPutItems(ctx, items); err != nil {
		t.Fatalf("BatchPutItems() error = %v", err)
	}

	fetched, err := svc.BatchGetItems(ctx, keys)
	if err != nil {
		t.Fatalf("BatchGetItems() error = %v", err)
	}
	if len(fetched) != 120 {
		t.Errorf("fetched %d items, want 120", len(fetched))
	}
	if len(client.getBatchSizes) != 2 || client.getBatchSizes[0] != 100 || client.getBatchSizes[1] != 20 {
		t.Errorf("get batch sizes = %v, want [100 20]", client.getBatchSizes)
	}
}

func TestTableService_ScanAndQuery(t *testing.T) {
	svc, _ := newTableTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.PutItem(ctx, map[string]any{"id": fmt.Sprintf("u-%d", i)}); err != nil {
			t.Fatalf("PutItem() error = %v", err)
		}
	}

	scanned, err := svc.Scan(ctx, 0)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(scanned) != 3 {
		t.Errorf("Scan() returned %d items, want 3", len(scanned))
	}

	queried, err := svc.Query(ctx, "id = :id", map[string]any{":id": "u-0"}, 10)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(queried) == 0 {
		t.Error("Query() returned no items")
	}

	if _, err := svc.Query(ctx, "", nil, 0); apierr.AsError(err) == nil {
		t.Error("expected validation error for empty key condition")
	}
}

func TestTableService_ProviderFailureIsExternalService(t *testing.T) {
	client := newFakeDynamoDB()
	client.failErr = errors.New("throughput exceeded")
	svc, err := NewTableService(client, "test-table")
	if err != nil {
		t.Fatalf("NewTableService() error = %v", err)
	}

	err = svc.PutItem(context.Background(), map[string]any{"id": "u-1"})
	apiErr := apierr.AsError(err)
	if apiErr == nil || apiErr.Type != apierr.TypeExternalService {
		t.Errorf("expected external service error, got %v", err)
	}
}

func TestTableRegistry_ReturnsSameInstance(t *testing.T) {
	registry := NewTableRegistry(newFakeDynamoDB())

	first, err := registry.Get("users")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	second, err := registry.Get("users")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if first != second {
		t.Error("registry returned different instances for the same table")
	}
}

// Keep attributevalue exercised directly so a codec change surfaces here
// rather than inside a handler.
func TestAttributeValueRoundTrip(t *testing.T) {
	in := map[string]any{"id": "u-1", "active": true, "age": 30}
	av, err := attributevalue.MarshalMap(in)
	if err != nil {
		t.Fatalf("MarshalMap() error = %v", err)
	}

	var out map[string]any
	if err := attributevalue.UnmarshalMap(av, &out); err != nil {
		t.Fatalf("UnmarshalMap() error = %v", err)
	}
	if out["id"] != "u-1" || out["active"] != true {
		t.Errorf("round trip = %v", out)
	}
}
