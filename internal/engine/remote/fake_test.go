package remote

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"bnshell/internal/domain"
)

// fakeEngine answers the wire protocol for a single network "alarm".
type fakeEngine struct {
	mu       sync.Mutex
	calls    []string
	evidence map[string]any
	alive    bool
	networks []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		evidence: make(map[string]any),
		alive:    true,
		networks: []string{"alarm"},
	}
}

func (f *fakeEngine) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *fakeEngine) setAlive(alive bool) {
	f.mu.Lock()
	f.alive = alive
	f.mu.Unlock()
}

func (f *fakeEngine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, req.Method)
	result, rerr := f.handle(req)
	f.mu.Unlock()

	resp := Response{ID: req.ID, Error: rerr}
	if rerr == nil && result != nil {
		resp.Result, _ = json.Marshal(result)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (f *fakeEngine) handle(req Request) (any, *domain.RemoteError) {
	var ref VariableRef
	if len(req.Params) > 0 {
		json.Unmarshal(req.Params, &ref)
	}
	if ref.Network != "" && ref.Network != "alarm" {
		return nil, &domain.RemoteError{Code: domain.CodeUnknownNetwork, Message: "no such network " + ref.Network}
	}

	switch req.Method {
	case methodContextName:
		return TextResult{Text: "fake-context"}, nil
	case methodContextParse:
		var p ParseParams
		json.Unmarshal(req.Params, &p)
		if p.Description == "" || p.Description == "garbage" {
			return nil, &domain.RemoteError{Code: domain.CodeDescriptionParse, Message: "unexpected token"}
		}
		return ReferenceResult{Network: "alarm"}, nil
	case methodContextReference:
		var p ReferenceParams
		json.Unmarshal(req.Params, &p)
		if p.Network != "alarm" {
			return nil, &domain.RemoteError{Code: domain.CodeUnknownNetwork, Message: "not bound: " + p.Network}
		}
		return ReferenceResult{Network: "alarm", Fullname: p.Host + ":1099/alarm"}, nil
	case methodContextList:
		return ListResult{Networks: f.networks}, nil
	case methodContextExit:
		return nil, nil
	case methodNetworkName:
		if !f.alive {
			return nil, &domain.RemoteError{Code: domain.CodeStaleReference, Message: "gone"}
		}
		return TextResult{Text: "alarm"}, nil
	case methodNetworkVariables:
		return VariablesResult{Variables: []string{"burglary", "earthquake", "alarm"}}, nil
	case methodNetworkAssign:
		var p EvidenceParams
		json.Unmarshal(req.Params, &p)
		if _, ok := p.Value.(string); ok {
			return nil, &domain.RemoteError{Code: domain.CodeEvidenceType, Message: "expected a number"}
		}
		f.evidence[p.Variable] = p.Value
		return nil, nil
	case methodNetworkClearPosterior:
		delete(f.evidence, ref.Variable)
		return nil, nil
	case methodNetworkClearAll:
		f.evidence = make(map[string]any)
		return nil, nil
	case methodNetworkPosterior, methodVariablePosterior:
		return DistributionResult{Distribution: &domain.Distribution{Class: "Discrete", Description: "p(" + ref.Variable + ")"}}, nil
	case methodNetworkComputePi, methodNetworkComputeLambda, methodNetworkAllPi, methodNetworkAllLambda:
		return nil, nil
	case methodNetworkFormat, methodVariableFormat:
		var p FormatParams
		json.Unmarshal(req.Params, &p)
		return TextResult{Text: p.Prefix + "text " + p.Network + " " + p.Variable}, nil
	case methodNetworkAttribute, methodVariableAttribute:
		var p AttributeParams
		json.Unmarshal(req.Params, &p)
		if p.Name == "fullname" {
			return ValueResult{Value: "localhost:1099/alarm"}, nil
		}
		return nil, &domain.RemoteError{Code: domain.CodeUnknownAttribute, Message: p.Name}
	case methodVariableParents:
		if ref.Variable == "alarm" {
			return RelativesResult{Variables: []VariableRef{{Variable: "burglary"}, {Network: "other", Variable: "quake"}}}, nil
		}
		return RelativesResult{}, nil
	case methodVariableChildren:
		return RelativesResult{}, nil
	case methodVariableDistribution:
		return DistributionResult{Distribution: &domain.Distribution{Class: "ConditionalDiscrete"}}, nil
	case methodVariablePi, methodVariableLambda:
		return DistributionResult{}, nil
	case methodVariablePiMessages, methodVariableLambdaMessages:
		return MessagesResult{Messages: domain.Messages{nil, {Class: "Discrete"}}}, nil
	}
	return nil, &domain.RemoteError{Code: domain.CodeMethodNotFound, Message: req.Method}
}

func startFake(t *testing.T) (*fakeEngine, *httptest.Server) {
	t.Helper()
	fake := newFakeEngine()
	mux := http.NewServeMux()
	mux.Handle("/rpc", fake)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fake, srv
}
