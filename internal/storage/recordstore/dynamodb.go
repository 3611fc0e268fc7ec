package recordstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"ai-speech-transcribe-service/internal/models"
	"ai-speech-transcribe-service/internal/observability/metrics"
	"ai-speech-transcribe-service/internal/service/job"
)

const keyAttr = "JobName"

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoStore implements Store on a DynamoDB table keyed by JobName.
type DynamoStore struct {
	client    DynamoAPI
	tableName string
	now       func() time.Time
	metrics   *metrics.Metrics
}

// NewDynamoStore creates a DynamoDB job record store.
func NewDynamoStore(client DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		now:       time.Now,
		metrics:   metrics.DefaultMetrics,
	}
}

func (s *DynamoStore) key(jobName string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyAttr: &types.AttributeValueMemberS{Value: jobName},
	}
}

// Put stores the initial job record.
func (s *DynamoStore) Put(ctx context.Context, rec models.JobRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal job record: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(keyAttr))).
		Build()
	if err != nil {
		return fmt.Errorf("build condition expression: %w", err)
	}

	start := time.Now()
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	s.metrics.RecordUpstreamCall("dynamodb", "PutItem", err, time.Since(start).Seconds())
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, rec.JobName)
		}
		return fmt.Errorf("put job record %s: %w", rec.JobName, err)
	}
	return nil
}

// Get reads the record for jobName.
func (s *DynamoStore) Get(ctx context.Context, jobName string) (*models.JobRecord, error) {
	start := time.Now()
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(jobName),
		ConsistentRead: aws.Bool(true),
	})
	s.metrics.RecordUpstreamCall("dynamodb", "GetItem", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("get job record %s: %w", jobName, err)
	}
	if len(out.Item) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobName)
	}

	var rec models.JobRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal job record %s: %w", jobName, err)
	}
	return &rec, nil
}

// Complete sets the status and the transcript or failure reason. Like the
// status lookup it upserts, so a job started outside this service still
// gets a record.
func (s *DynamoStore) Complete(ctx context.Context, jobName string, status job.Status, transcript, reason string) error {
	update := expression.Set(expression.Name("Status"), expression.Value(status.String())).
		Set(expression.Name("UpdatedAt"), expression.Value(s.now().Unix()))
	if transcript != "" {
		update = update.Set(expression.Name("Transcript"), expression.Value(transcript))
	}
	if reason != "" {
		update = update.Set(expression.Name("FailureReason"), expression.Value(reason))
	}

	statusName := expression.Name("Status")
	cond := expression.AttributeNotExists(statusName).Or(
		statusName.In(
			expression.Value(job.StatusStarted.String()),
			expression.Value(job.StatusQueued.String()),
			expression.Value(job.StatusInProgress.String()),
		),
	)

	err := s.update(ctx, "Complete", jobName, update, cond)
	var condFailed *types.ConditionalCheckFailedException
	if !errors.As(err, &condFailed) {
		return err
	}

	var old models.JobRecord
	if condFailed.Item != nil {
		if uerr := attributevalue.UnmarshalMap(condFailed.Item, &old); uerr != nil {
			return fmt.Errorf("unmarshal job record %s: %w", jobName, uerr)
		}
	}
	if old.Status == status.String() {
		return fmt.Errorf("%w: %s is %s", ErrAlreadyRecorded, jobName, status)
	}
	return fmt.Errorf("%w: %s %s -> %s", job.ErrStatusRegression, jobName, old.Status, status)
}

// SetTranslation stores a translation of the transcript.
func (s *DynamoStore) SetTranslation(ctx context.Context, jobName, targetLanguage, text string) error {
	update := expression.Set(expression.Name("Translation"), expression.Value(text)).
		Set(expression.Name("TargetLanguage"), expression.Value(targetLanguage)).
		Set(expression.Name("UpdatedAt"), expression.Value(s.now().Unix()))
	return s.updateExisting(ctx, "SetTranslation", jobName, update)
}

// SetDerivedText stores generated text derived from the transcript.
func (s *DynamoStore) SetDerivedText(ctx context.Context, jobName, text string) error {
	update := expression.Set(expression.Name("DerivedText"), expression.Value(text)).
		Set(expression.Name("UpdatedAt"), expression.Value(s.now().Unix()))
	return s.updateExisting(ctx, "SetDerivedText", jobName, update)
}

func (s *DynamoStore) updateExisting(ctx context.Context, op, jobName string, update expression.UpdateBuilder) error {
	err := s.update(ctx, op, jobName, update, expression.AttributeExists(expression.Name(keyAttr)))
	var condFailed *types.ConditionalCheckFailedException
	if errors.As(err, &condFailed) {
		return fmt.Errorf("%w: %s", ErrNotFound, jobName)
	}
	return err
}

func (s *DynamoStore) update(ctx context.Context, op, jobName string, update expression.UpdateBuilder, cond expression.ConditionBuilder) error {
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("build update expression: %w", err)
	}

	start := time.Now()
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       s.key(jobName),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),

		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	s.metrics.RecordUpstreamCall("dynamodb", "UpdateItem", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%s job record %s: %w", op, jobName, err)
	}
	return nil
}
