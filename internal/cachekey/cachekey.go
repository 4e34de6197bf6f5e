// Package cachekey derives cache keys from DynamoDB primary keys.
//
// The change feed delivers keys in attribute-typed form ({"itemId": {"S": "42"}})
// while outgoing requests carry them as SDK attribute values or plain documents.
// Every form of the same key normalizes to the same string.
package cachekey

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Build joins a table name and a normalized key suffix into a cache key.
func Build(table, suffix string) string {
	return table + suffix
}

// FromStream normalizes a key as delivered on a DynamoDB stream record.
// Attributes are concatenated as name+value in ascending name order.
func FromStream(keys map[string]events.DynamoDBAttributeValue) string {
	if len(keys) == 0 {
		return ""
	}
	var b strings.Builder
	for _, name := range sortedNames(keys) {
		b.WriteString(name)
		b.WriteString(streamScalar(keys[name]))
	}
	return b.String()
}

// FromAttributes normalizes a key as carried on an SDK request (GetItemInput.Key).
func FromAttributes(keys map[string]types.AttributeValue) string {
	if len(keys) == 0 {
		return ""
	}
	var b strings.Builder
	for _, name := range sortedNames(keys) {
		b.WriteString(name)
		b.WriteString(attributeScalar(keys[name]))
	}
	return b.String()
}

// FromPlain normalizes a key given as a plain document ({"itemId": "42"}).
func FromPlain(keys map[string]any) string {
	if len(keys) == 0 {
		return ""
	}
	var b strings.Builder
	for _, name := range sortedNames(keys) {
		b.WriteString(name)
		b.WriteString(plainScalar(keys[name]))
	}
	return b.String()
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// streamScalar unwraps the scalar types allowed in a primary key.
func streamScalar(v events.DynamoDBAttributeValue) string {
	switch v.DataType() {
	case events.DataTypeString:
		return v.String()
	case events.DataTypeNumber:
		return v.Number()
	case events.DataTypeBinary:
		return base64.StdEncoding.EncodeToString(v.Binary())
	default:
		return ""
	}
}

func attributeScalar(v types.AttributeValue) string {
	switch tv := v.(type) {
	case *types.AttributeValueMemberS:
		return tv.Value
	case *types.AttributeValueMemberN:
		return tv.Value
	case *types.AttributeValueMemberB:
		return base64.StdEncoding.EncodeToString(tv.Value)
	default:
		return ""
	}
}

func plainScalar(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	case []byte:
		return base64.StdEncoding.EncodeToString(tv)
	case int:
		return strconv.Itoa(tv)
	case int32:
		return strconv.FormatInt(int64(tv), 10)
	case int64:
		return strconv.FormatInt(tv, 10)
	case uint:
		return strconv.FormatUint(uint64(tv), 10)
	case uint32:
		return strconv.FormatUint(uint64(tv), 10)
	case uint64:
		return strconv.FormatUint(tv, 10)
	case float32:
		return strconv.FormatFloat(float64(tv), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(tv)
	default:
		return fmt.Sprint(tv)
	}
}
