// Package intercept implements read-through caching inside the DynamoDB client's
// call pipeline.
//
// Each outgoing operation is described by a Call tagged with an explicit Command.
// Interceptors inspect the Call and either forward it to the next stage or
// short-circuit with a Result of their own. A Stage installs an ordered Chain of
// interceptors at the Initialize step of the SDK's middleware stack, before the
// request is serialized.
package intercept

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go/middleware"
)

// Command identifies the store operation a Call performs.
type Command int

const (
	CommandUnknown Command = iota
	CommandGetItem
	CommandBatchGetItem
	CommandQuery
	CommandScan
	CommandPutItem
	CommandUpdateItem
	CommandDeleteItem
)

var commandNames = map[Command]string{
	CommandUnknown:      "Unknown",
	CommandGetItem:      "GetItem",
	CommandBatchGetItem: "BatchGetItem",
	CommandQuery:        "Query",
	CommandScan:         "Scan",
	CommandPutItem:      "PutItem",
	CommandUpdateItem:   "UpdateItem",
	CommandDeleteItem:   "DeleteItem",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "Unknown"
}

// Call is an operation on its way to the store. Interceptors observe it; the
// parameters are forwarded unchanged unless the call is short-circuited.
type Call struct {
	Command   Command
	TableName string

	// Key is the primary key for single-item commands.
	Key map[string]types.AttributeValue

	// ConsistentRead is set when the caller requires a strongly consistent read.
	ConsistentRead bool

	// Projected is set when the caller asked for a subset of attributes.
	Projected bool

	// Params is the operation input as passed by the caller.
	Params any
}

// Result is the outcome of a Call.
type Result struct {
	Output   any
	Metadata middleware.Metadata
}

// CallFor describes an operation input. Inputs of operations this package does not
// know are tagged CommandUnknown and pass through every interceptor.
func CallFor(params any) *Call {
	call := &Call{Command: CommandUnknown, Params: params}
	switch in := params.(type) {
	case *dynamodb.GetItemInput:
		call.Command = CommandGetItem
		call.TableName = aws.ToString(in.TableName)
		call.Key = in.Key
		call.ConsistentRead = aws.ToBool(in.ConsistentRead)
		call.Projected = in.ProjectionExpression != nil || len(in.AttributesToGet) > 0
	case *dynamodb.BatchGetItemInput:
		call.Command = CommandBatchGetItem
	case *dynamodb.QueryInput:
		call.Command = CommandQuery
		call.TableName = aws.ToString(in.TableName)
		call.ConsistentRead = aws.ToBool(in.ConsistentRead)
	case *dynamodb.ScanInput:
		call.Command = CommandScan
		call.TableName = aws.ToString(in.TableName)
		call.ConsistentRead = aws.ToBool(in.ConsistentRead)
	case *dynamodb.PutItemInput:
		call.Command = CommandPutItem
		call.TableName = aws.ToString(in.TableName)
	case *dynamodb.UpdateItemInput:
		call.Command = CommandUpdateItem
		call.TableName = aws.ToString(in.TableName)
		call.Key = in.Key
	case *dynamodb.DeleteItemInput:
		call.Command = CommandDeleteItem
		call.TableName = aws.ToString(in.TableName)
		call.Key = in.Key
	}
	return call
}
