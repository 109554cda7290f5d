package members

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/mfracassi/clubdesk/pkg/logging"
)

// MaxBatchMembers bounds how many member documents one phone-apply run may
// mutate. Each member costs two transaction actions (field update + audit
// log put) and a DynamoDB transaction holds at most 100 actions.
const MaxBatchMembers = 50

// ErrReminderBlocked indicates the conditional lastReminderAt write lost to a
// concurrent run; the member already received a reminder inside the cooldown.
var ErrReminderBlocked = errors.New("members: reminder blocked by cooldown condition")

type dynamoAPI interface {
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	TransactWriteItems(context.Context, *dynamodb.TransactWriteItemsInput, ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store reads and mutates member documents in DynamoDB.
type Store struct {
	client        dynamoAPI
	membersTable  string
	phoneLogTable string
	logger        *logging.Logger
}

// NewStore builds a store backed by the provided DynamoDB client.
func NewStore(client dynamoAPI, membersTable, phoneLogTable string, logger *logging.Logger) *Store {
	if client == nil {
		panic("members: dynamodb client cannot be nil")
	}
	if membersTable == "" {
		panic("members: members table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		client:        client,
		membersTable:  membersTable,
		phoneLogTable: phoneLogTable,
		logger:        logger,
	}
}

// ScanAll reads every member document. The full-collection scan mirrors the
// run model: one bulk read per run, paginated under the hood.
func (s *Store) ScanAll(ctx context.Context) ([]Member, error) {
	return s.scan(ctx, 0)
}

// Scan reads up to limit member documents in store-iteration order.
func (s *Store) Scan(ctx context.Context, limit int) ([]Member, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("members: scan limit must be positive, got %d", limit)
	}
	return s.scan(ctx, limit)
}

func (s *Store) scan(ctx context.Context, limit int) ([]Member, error) {
	var out []Member
	var startKey map[string]types.AttributeValue

	for {
		input := &dynamodb.ScanInput{
			TableName:         aws.String(s.membersTable),
			ExclusiveStartKey: startKey,
		}
		if limit > 0 {
			remaining := limit - len(out)
			input.Limit = aws.Int32(int32(remaining))
		}

		page, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("members: scan: %w", err)
		}

		for _, item := range page.Items {
			m, err := memberFromItem(item)
			if err != nil {
				// A malformed document must not sink the whole run.
				s.logger.Warn("members: skipping malformed document", "error", err)
				continue
			}
			out = append(out, m)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}

		startKey = page.LastEvaluatedKey
		if len(startKey) == 0 {
			return out, nil
		}
	}
}

// MarkReminded records that a reminder went out now. The update is
// conditional on the stored lastReminderAt still satisfying the cooldown, so
// two overlapping runs cannot both claim the same member; the loser gets
// ErrReminderBlocked.
func (s *Store) MarkReminded(ctx context.Context, memberID string, now time.Time, cooldownDays int) error {
	if memberID == "" {
		return errors.New("members: member id cannot be empty")
	}
	cutoff := now.UTC().Add(-time.Duration(cooldownDays) * 24 * time.Hour)

	// Legacy imports stored lastReminderAt as an epoch number. DynamoDB
	// evaluates a cross-type comparison as false, so without the
	// attribute_type clause a numeric attribute could never satisfy the
	// cooldown condition again; the claim accepts the numeric form and the
	// write migrates it to the string form. The runner has already checked
	// the parsed timestamp against the cooldown before calling here.
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.membersTable),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: memberID},
		},
		UpdateExpression:    aws.String("SET lastReminderAt = :now"),
		ConditionExpression: aws.String("attribute_not_exists(lastReminderAt) OR lastReminderAt <= :cutoff OR attribute_type(lastReminderAt, :numType)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now":     &types.AttributeValueMemberS{Value: formatInstant(now)},
			":cutoff":  &types.AttributeValueMemberS{Value: formatInstant(cutoff)},
			":numType": &types.AttributeValueMemberS{Value: "N"},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrReminderBlocked
		}
		return fmt.Errorf("members: mark reminded: %w", err)
	}
	return nil
}

// FieldChange is one normalization outcome on one raw contact field.
type FieldChange struct {
	Field   string `dynamodbav:"field" json:"field"`
	Before  string `dynamodbav:"before" json:"before"`
	After   string `dynamodbav:"after,omitempty" json:"after,omitempty"`
	Invalid bool   `dynamodbav:"invalid,omitempty" json:"invalid,omitempty"`
}

// PhoneUpdate stages the mutations for one member: normalized field values
// plus raw-value audit copies, and the change log to persist alongside.
type PhoneUpdate struct {
	MemberID string
	Set      map[string]string
	Changes  []FieldChange
}

// phoneLogRecord is the append-only audit document written per affected
// member, one batch per run.
type phoneLogRecord struct {
	ID        string        `dynamodbav:"id"`
	RunID     string        `dynamodbav:"runId"`
	MemberID  string        `dynamodbav:"memberId"`
	Changes   []FieldChange `dynamodbav:"changes"`
	CreatedAt string        `dynamodbav:"createdAt"`
}

// CommitPhoneBatch applies all staged phone updates and their audit records
// as a single atomic transaction.
func (s *Store) CommitPhoneBatch(ctx context.Context, runID string, updates []PhoneUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	if len(updates) > MaxBatchMembers {
		return fmt.Errorf("members: phone batch of %d members exceeds the %d-member bound", len(updates), MaxBatchMembers)
	}
	if s.phoneLogTable == "" {
		return errors.New("members: phone log table not configured")
	}

	now := formatInstant(time.Now())
	items := make([]types.TransactWriteItem, 0, len(updates)*2)

	for _, u := range updates {
		if u.MemberID == "" || len(u.Set) == 0 {
			return fmt.Errorf("members: incomplete phone update for member %q", u.MemberID)
		}

		expr, names, values := buildSetExpression(u.Set)
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName: aws.String(s.membersTable),
				Key: map[string]types.AttributeValue{
					"id": &types.AttributeValueMemberS{Value: u.MemberID},
				},
				UpdateExpression:          aws.String(expr),
				ExpressionAttributeNames:  names,
				ExpressionAttributeValues: values,
			},
		})

		record := phoneLogRecord{
			ID:        uuid.NewString(),
			RunID:     runID,
			MemberID:  u.MemberID,
			Changes:   u.Changes,
			CreatedAt: now,
		}
		item, err := attributevalue.MarshalMap(record)
		if err != nil {
			return fmt.Errorf("members: marshal phone log record: %w", err)
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(s.phoneLogTable),
				Item:      item,
			},
		})
	}

	if _, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	}); err != nil {
		return fmt.Errorf("members: commit phone batch: %w", err)
	}

	s.logger.Info("members: phone batch committed",
		"run_id", runID,
		"members", len(updates),
	)
	return nil
}

func buildSetExpression(set map[string]string) (string, map[string]string, map[string]types.AttributeValue) {
	names := make(map[string]string, len(set))
	values := make(map[string]types.AttributeValue, len(set))
	expr := "SET "
	i := 0
	for field, value := range set {
		alias := fmt.Sprintf("#f%d", i)
		placeholder := fmt.Sprintf(":v%d", i)
		if i > 0 {
			expr += ", "
		}
		expr += alias + " = " + placeholder
		names[alias] = field
		values[placeholder] = &types.AttributeValueMemberS{Value: value}
		i++
	}
	return expr, names, values
}

func memberFromItem(item map[string]types.AttributeValue) (Member, error) {
	var rec struct {
		ID        string `dynamodbav:"id"`
		FirstName string `dynamodbav:"firstName"`
		LastName  string `dynamodbav:"lastName"`
		FullName  string `dynamodbav:"fullName"`
		Plan      string `dynamodbav:"plan"`
	}
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return Member{}, fmt.Errorf("members: unmarshal document: %w", err)
	}
	if rec.ID == "" {
		return Member{}, errors.New("members: document missing id")
	}

	expiry, err := parseInstantAttr(item["expiry"])
	if err != nil {
		return Member{}, fmt.Errorf("members: document %s: %w", rec.ID, err)
	}
	lastReminder, err := parseInstantAttr(item["lastReminderAt"])
	if err != nil {
		return Member{}, fmt.Errorf("members: document %s: %w", rec.ID, err)
	}

	fields := make(map[string]string)
	for name, av := range item {
		if s, ok := av.(*types.AttributeValueMemberS); ok {
			fields[name] = s.Value
		}
	}

	return Member{
		ID:             rec.ID,
		FirstName:      rec.FirstName,
		LastName:       rec.LastName,
		FullName:       rec.FullName,
		Plan:           rec.Plan,
		Expiry:         expiry,
		LastReminderAt: lastReminder,
		Fields:         fields,
	}, nil
}
