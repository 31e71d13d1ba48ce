package results

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/agroweb/integration-harness/framework"
)

const (
	// Schema of the results table
	runIDAttribute   = "runId"
	summaryAttribute = "summary"

	// DynamoDB documents a 400KB item limit; stay safely below it.
	dynamoDBMaxItemSize = 400000
)

type dynamoDBPutter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoDBStore writes one item per run, keyed by runId. The table must already exist with runId
// as its string partition key.
type DynamoDBStore struct {
	client dynamoDBPutter
	table  string
	logger framework.Logger
}

func openDynamoDB(ctx context.Context, u *url.URL, logger framework.Logger) (*DynamoDBStore, error) {
	table := u.Host
	if table == "" {
		return nil, fmt.Errorf("missing DynamoDB table name in results DSN")
	}
	q := u.Query()
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region := q.Get("region"); region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("cannot load AWS configuration: %w", err)
	}
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint := q.Get("endpoint"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewDynamoDBStore(client, table, logger), nil
}

// NewDynamoDBStore accepts a *dynamodb.Client or anything else with the same PutItem method.
func NewDynamoDBStore(client dynamoDBPutter, table string, logger framework.Logger) *DynamoDBStore {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &DynamoDBStore{client: client, table: table, logger: logger}
}

// Item builds the attributes stored for a run. If the full summary would not fit in an item, the
// per-test records are left out of the stored document.
func (d *DynamoDBStore) Item(s Summary) (map[string]types.AttributeValue, error) {
	doc, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if len(doc) > dynamoDBMaxItemSize {
		d.logger.Printf("Results of run %s are %d bytes; storing them without per-test records", s.RunID, len(doc))
		trimmed := s
		trimmed.Tests = nil
		if doc, err = trimmed.MarshalJSON(); err != nil {
			return nil, err
		}
	}
	number := func(n int) types.AttributeValue {
		return &types.AttributeValueMemberN{Value: strconv.Itoa(n)}
	}
	return map[string]types.AttributeValue{
		runIDAttribute:      &types.AttributeValueMemberS{Value: s.RunID},
		summaryAttribute:    &types.AttributeValueMemberS{Value: string(doc)},
		"testEnv":           &types.AttributeValueMemberS{Value: s.TestEnv},
		"startTime":         &types.AttributeValueMemberS{Value: formatTime(s.StartTime)},
		"status":            &types.AttributeValueMemberS{Value: runStatus(s)},
		"total":             number(s.Total),
		"passed":            number(s.Passed),
		"failed":            number(s.Failed),
		"nonCriticalFailed": number(s.NonCriticalFailed),
		"skipped":           number(s.Skipped),
	}, nil
}

func (d *DynamoDBStore) Save(ctx context.Context, s Summary) error {
	item, err := d.Item(s)
	if err != nil {
		return fmt.Errorf("cannot encode results: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("cannot save results to DynamoDB table %s: %w", d.table, err)
	}
	d.logger.Printf("Saved results of run %s to DynamoDB table %s", s.RunID, d.table)
	return nil
}

func (d *DynamoDBStore) Close() error { return nil }
