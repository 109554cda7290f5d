package members

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Stored dates arrive in two shapes depending on which importer wrote the
// document: an ISO string or a numeric epoch timestamp. Everything past this
// file sees only time.Time.

var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// parseInstantAttr converts a store attribute holding a date into UTC time.
// Returns nil for an absent or empty attribute.
func parseInstantAttr(av types.AttributeValue) (*time.Time, error) {
	switch v := av.(type) {
	case nil, *types.AttributeValueMemberNULL:
		return nil, nil
	case *types.AttributeValueMemberS:
		return parseInstantString(v.Value)
	case *types.AttributeValueMemberN:
		return parseInstantEpoch(v.Value)
	default:
		return nil, fmt.Errorf("members: unsupported date attribute type %T", av)
	}
}

func parseInstantString(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("members: unparseable date %q", value)
}

func parseInstantEpoch(value string) (*time.Time, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("members: unparseable epoch %q", value)
	}
	// Millisecond epochs are 13 digits; anything that large gets scaled down.
	if n > 1e12 {
		n /= 1000
	}
	t := time.Unix(n, 0).UTC()
	return &t, nil
}

// formatInstant renders a time for storage. All writes use RFC3339 UTC so
// that lexicographic comparison in condition expressions matches time order.
func formatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
