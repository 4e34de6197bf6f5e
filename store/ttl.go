package store

import (
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// IsExpired reports whether item's TTL attribute is at or before now. Items
// without the attribute, or with a non-numeric one, never expire.
func IsExpired(item map[string]types.AttributeValue, attr string, now time.Time) bool {
	ttlAttr, exists := item[attr]
	if !exists {
		return false
	}
	ttlNum, ok := ttlAttr.(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	ttl, err := strconv.ParseInt(ttlNum.Value, 10, 64)
	if err != nil {
		return false
	}
	return ttl <= now.Unix()
}

// ttlFilter builds the filter expression excluding expired items from a scan.
func ttlFilter(attr string, now time.Time) (string, map[string]string, map[string]types.AttributeValue) {
	return "attribute_not_exists(#ttl) OR #ttl > :now",
		map[string]string{"#ttl": attr},
		map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		}
}
