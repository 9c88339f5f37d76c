// Package policyopa evaluates compliance controls through an OPA bundle,
// letting tenants express control logic beyond plain threshold comparisons.
// Bundles run against a restricted builtin set: no network, no time, no
// filesystem reachable from tenant-authored policy.
package policyopa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"sentra/internal/domain"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
)

const defaultQuery = "data.sentra.controls.result"

type Engine struct {
	query      rego.PreparedEvalQuery
	bundleHash string
	bundleID   string
}

func NewEngineFromBundlePath(ctx context.Context, bundlePath string, bundleID string) (*Engine, error) {
	bundleHash, err := ComputeBundleHashFromPath(bundlePath)
	if err != nil {
		return nil, err
	}

	capabilities := ast.CapabilitiesForThisVersion()
	capabilities.Builtins = filterBuiltins(capabilities.Builtins)
	compiler := ast.NewCompiler().WithCapabilities(capabilities)

	r := rego.New(
		rego.Query(defaultQuery),
		rego.Compiler(compiler),
		rego.StrictBuiltinErrors(true),
		rego.Load([]string{bundlePath}, nil),
	)
	prepared, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}
	if err := assertNoForbiddenBuiltins(compiler); err != nil {
		return nil, err
	}

	return &Engine{
		query:      prepared,
		bundleHash: bundleHash,
		bundleID:   bundleID,
	}, nil
}

func (e *Engine) BundleHash() string {
	return e.bundleHash
}

func (e *Engine) Evaluate(ctx context.Context, input domain.ControlInput) (domain.ControlEvaluation, error) {
	if e == nil {
		return domain.ControlEvaluation{}, errors.New("control engine is nil")
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return domain.ControlEvaluation{}, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return domain.ControlEvaluation{}, errors.New("empty control result")
	}
	raw := results[0].Expressions[0].Value
	findings, err := decodeFindings(raw)
	if err != nil {
		return domain.ControlEvaluation{}, err
	}
	normalizeFindings(findings)
	return domain.ControlEvaluation{
		BundleID:   e.bundleID,
		BundleHash: e.bundleHash,
		Findings:   findings,
	}, nil
}

func decodeFindings(value any) ([]domain.ControlFinding, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var result struct {
		Findings []domain.ControlFinding `json:"findings"`
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, err
	}
	return result.Findings, nil
}

func normalizeFindings(findings []domain.ControlFinding) {
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].ControlID == findings[j].ControlID {
			return findings[i].Metric < findings[j].Metric
		}
		return findings[i].ControlID < findings[j].ControlID
	})
}

func assertNoForbiddenBuiltins(compiler *ast.Compiler) error {
	if compiler == nil {
		return errors.New("control compiler is nil")
	}
	forbidden := make(map[string]struct{})
	for _, module := range compiler.Modules {
		ast.WalkTerms(module, func(term *ast.Term) bool {
			call, ok := term.Value.(ast.Call)
			if !ok || len(call) == 0 || call[0] == nil {
				return false
			}
			name := call[0].Value.String()
			if _, ok := ast.BuiltinMap[name]; !ok {
				return false
			}
			if _, ok := allowedBuiltins[name]; ok {
				return false
			}
			forbidden[name] = struct{}{}
			return false
		})
	}
	if len(forbidden) == 0 {
		return nil
	}
	names := make([]string, 0, len(forbidden))
	for name := range forbidden {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Errorf("forbidden builtins: %s", strings.Join(names, ", "))
}
