package store

import (
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item is a retrieved DynamoDB item.
type Item struct {
	// ID is the partition key value.
	ID string

	// Raw is the item as returned by DynamoDB.
	Raw map[string]types.AttributeValue
}

// Document returns the item as plain Go values, suitable for JSON encoding.
func (i *Item) Document() (map[string]any, error) {
	doc := map[string]any{}
	if err := attributevalue.UnmarshalMap(i.Raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func newItem(raw map[string]types.AttributeValue, primaryKey string) *Item {
	item := &Item{Raw: raw}
	if v, ok := raw[primaryKey].(*types.AttributeValueMemberS); ok {
		item.ID = v.Value
	}
	return item
}
