// Package remote implements the engine interfaces against a remote engine context
// reached over HTTP.
//
// Every operation is one JSON request/response exchange posted to <endpoint>/rpc.
// Remote objects are addressed by name: a network by its name inside the context, a
// variable by network and variable name.
package remote

import (
	"encoding/json"
	"fmt"

	"bnshell/internal/domain"
)

// Method names understood by an engine context.
const (
	methodContextName      = "context.get_name"
	methodContextParse     = "context.parse_network"
	methodContextReference = "context.get_reference"
	methodContextList      = "context.list"
	methodContextExit      = "context.exit"

	methodNetworkName           = "network.get_name"
	methodNetworkVariables      = "network.get_variables"
	methodNetworkAssign         = "network.assign_evidence"
	methodNetworkClearPosterior = "network.clear_posterior"
	methodNetworkClearAll       = "network.clear_all_evidence"
	methodNetworkPosterior      = "network.get_posterior"
	methodNetworkComputePi      = "network.compute_pi"
	methodNetworkComputeLambda  = "network.compute_lambda"
	methodNetworkAllPi          = "network.get_all_pi_messages"
	methodNetworkAllLambda      = "network.get_all_lambda_messages"
	methodNetworkFormat         = "network.format_string"
	methodNetworkAttribute      = "network.get_attribute"

	methodVariableParents        = "variable.get_parents"
	methodVariableChildren       = "variable.get_children"
	methodVariableDistribution   = "variable.get_distribution"
	methodVariablePosterior      = "variable.get_posterior"
	methodVariablePi             = "variable.get_pi"
	methodVariableLambda         = "variable.get_lambda"
	methodVariablePiMessages     = "variable.get_pi_messages"
	methodVariableLambdaMessages = "variable.get_lambda_messages"
	methodVariableFormat         = "variable.format_string"
	methodVariableAttribute      = "variable.get_attribute"
)

// Request is one call to the engine context.
type Request struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the engine's answer to a Request.
type Response struct {
	ID     int64               `json:"id"`
	Result json.RawMessage     `json:"result,omitempty"`
	Error  *domain.RemoteError `json:"error,omitempty"`
}

// NetworkRef addresses a network inside the context.
type NetworkRef struct {
	Network string `json:"network"`
}

// VariableRef addresses a variable. Parents and children in other networks come back
// with their own network name.
type VariableRef struct {
	Network  string `json:"network"`
	Variable string `json:"variable"`
}

// ParseParams carries a network description.
type ParseParams struct {
	Description string `json:"description"`
}

// ReferenceParams asks the context to resolve a network through a naming service.
type ReferenceParams struct {
	Host    string `json:"host"`
	Port    int    `json:"port"`
	Network string `json:"network"`
}

// ReferenceResult names a network the context can now address.
type ReferenceResult struct {
	Network  string `json:"network"`
	Fullname string `json:"fullname,omitempty"`
}

// ListParams selects the naming service to list.
type ListParams struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// ListResult holds the names bound in a naming service.
type ListResult struct {
	Networks []string `json:"networks"`
}

// VariablesResult lists variable names in enumeration order.
type VariablesResult struct {
	Variables []string `json:"variables"`
}

// RelativesResult lists parents or children.
type RelativesResult struct {
	Variables []VariableRef `json:"variables"`
}

// EvidenceParams assigns a value to a variable.
type EvidenceParams struct {
	Network  string `json:"network"`
	Variable string `json:"variable"`
	Value    any    `json:"value"`
}

// FormatParams asks for the engine's own rendering of an object.
type FormatParams struct {
	Network  string `json:"network"`
	Variable string `json:"variable,omitempty"`
	Prefix   string `json:"prefix"`
}

// AttributeParams reads an attribute not covered by a dedicated method.
type AttributeParams struct {
	Network  string `json:"network"`
	Variable string `json:"variable,omitempty"`
	Name     string `json:"name"`
}

// DistributionResult wraps a possibly absent distribution.
type DistributionResult struct {
	Distribution *domain.Distribution `json:"distribution"`
}

// MessagesResult wraps a list of messages.
type MessagesResult struct {
	Messages domain.Messages `json:"messages"`
}

// TextResult wraps a string result.
type TextResult struct {
	Text string `json:"text"`
}

// ValueResult wraps an arbitrary attribute value.
type ValueResult struct {
	Value any `json:"value"`
}

// encodeRequest creates a JSON-encoded request.
func encodeRequest(id int64, method string, params any) ([]byte, error) {
	req := Request{
		ID:     id,
		Method: method,
	}
	if params != nil {
		p, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		req.Params = p
	}
	return json.Marshal(req)
}

// decodeResponse parses a JSON-encoded response.
func decodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &resp, nil
}
