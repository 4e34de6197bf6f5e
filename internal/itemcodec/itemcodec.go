// Package itemcodec converts DynamoDB items to and from the text stored in the cache.
//
// Cached values use DynamoDB JSON, the shape the change feed delivers:
//
//	{"itemId":{"S":"42"},"name":{"S":"widget"}}
//
// DecodeItem also accepts plain JSON documents ({"itemId":"42"}) so entries written
// by document-style producers remain readable.
package itemcodec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// EncodeImage serializes a stream record image.
func EncodeImage(image map[string]events.DynamoDBAttributeValue) ([]byte, error) {
	if image == nil {
		image = map[string]events.DynamoDBAttributeValue{}
	}
	b, err := json.Marshal(image)
	if err != nil {
		return nil, fmt.Errorf("itemcodec: encode image: %w", err)
	}
	return b, nil
}

// EncodeItem serializes an item returned by the SDK.
func EncodeItem(item map[string]types.AttributeValue) ([]byte, error) {
	image := make(map[string]events.DynamoDBAttributeValue, len(item))
	for k, v := range item {
		sv, err := ToStream(v)
		if err != nil {
			return nil, fmt.Errorf("itemcodec: attribute %q: %w", k, err)
		}
		image[k] = sv
	}
	return EncodeImage(image)
}

// DecodeItem parses a cached value into SDK attribute values.
func DecodeItem(b []byte) (map[string]types.AttributeValue, error) {
	var image map[string]events.DynamoDBAttributeValue
	if err := json.Unmarshal(b, &image); err == nil {
		if image == nil {
			return nil, errors.New("itemcodec: decode: null item")
		}
		return FromStreamImage(image), nil
	}

	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("itemcodec: decode: %w", err)
	}
	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return nil, fmt.Errorf("itemcodec: decode document: %w", err)
	}
	return item, nil
}

// FromStreamImage converts a whole stream image to SDK attribute values.
func FromStreamImage(image map[string]events.DynamoDBAttributeValue) map[string]types.AttributeValue {
	result := make(map[string]types.AttributeValue, len(image))
	for k, v := range image {
		result[k] = FromStream(v)
	}
	return result
}

// FromStream converts a stream attribute value to its SDK equivalent.
func FromStream(v events.DynamoDBAttributeValue) types.AttributeValue {
	switch v.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: v.String()}
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: v.Number()}
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: v.Binary()}
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: v.Boolean()}
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: v.StringSet()}
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: v.NumberSet()}
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: v.BinarySet()}
	case events.DataTypeList:
		list := v.List()
		out := make([]types.AttributeValue, len(list))
		for i, e := range list {
			out[i] = FromStream(e)
		}
		return &types.AttributeValueMemberL{Value: out}
	case events.DataTypeMap:
		return &types.AttributeValueMemberM{Value: FromStreamImage(v.Map())}
	default:
		return &types.AttributeValueMemberNULL{Value: true}
	}
}

// ToStream converts an SDK attribute value to its stream equivalent.
func ToStream(v types.AttributeValue) (events.DynamoDBAttributeValue, error) {
	switch tv := v.(type) {
	case *types.AttributeValueMemberS:
		return events.NewStringAttribute(tv.Value), nil
	case *types.AttributeValueMemberN:
		return events.NewNumberAttribute(tv.Value), nil
	case *types.AttributeValueMemberB:
		return events.NewBinaryAttribute(tv.Value), nil
	case *types.AttributeValueMemberBOOL:
		return events.NewBooleanAttribute(tv.Value), nil
	case *types.AttributeValueMemberNULL:
		return events.NewNullAttribute(), nil
	case *types.AttributeValueMemberSS:
		return events.NewStringSetAttribute(tv.Value), nil
	case *types.AttributeValueMemberNS:
		return events.NewNumberSetAttribute(tv.Value), nil
	case *types.AttributeValueMemberBS:
		return events.NewBinarySetAttribute(tv.Value), nil
	case *types.AttributeValueMemberL:
		list := make([]events.DynamoDBAttributeValue, len(tv.Value))
		for i, e := range tv.Value {
			sv, err := ToStream(e)
			if err != nil {
				return events.DynamoDBAttributeValue{}, err
			}
			list[i] = sv
		}
		return events.NewListAttribute(list), nil
	case *types.AttributeValueMemberM:
		m := make(map[string]events.DynamoDBAttributeValue, len(tv.Value))
		for k, e := range tv.Value {
			sv, err := ToStream(e)
			if err != nil {
				return events.DynamoDBAttributeValue{}, err
			}
			m[k] = sv
		}
		return events.NewMapAttribute(m), nil
	default:
		return events.DynamoDBAttributeValue{}, fmt.Errorf("unsupported attribute value %T", v)
	}
}
