package evaluate

import (
	"context"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ppiankov/actcheck/internal/analyze"
	"github.com/ppiankov/actcheck/internal/llm"
	"github.com/ppiankov/actcheck/internal/model"
	"github.com/ppiankov/actcheck/internal/rules"
	"github.com/ppiankov/actcheck/internal/worker"
)

// Evidence recorded when a judgment cannot be used
const (
	InvalidJSONEvidence = "LLM returned invalid JSON"
	MalformedEvidence   = "LLM returned malformed judgment"
	sentinelConfidence  = 20
)

const judgePromptTemplate = `
You are a legal compliance reviewer.

Decide whether the Act below satisfies this rule:
%q

You MUST respond ONLY with valid JSON. No markdown formatting.

{
 "rule": %q,
 "status": "pass" or "fail",
 "evidence": "a short quote from the Act supporting the decision",
 "confidence": an integer from 0 to 100
}

ACT TEXT:
%s
`

const judgmentSchema = `{
	"type": "object",
	"required": ["status", "confidence"],
	"properties": {
		"rule": {"type": "string"},
		"status": {"enum": ["pass", "fail"]},
		"evidence": {"type": "string"},
		"confidence": {"type": "integer", "minimum": 0, "maximum": 100}
	}
}`

var judgmentValidator = jsonschema.MustCompileString("judgment.json", judgmentSchema)

// JudgeOptions configures the model-backed evaluator
type JudgeOptions struct {
	Model         string
	MaxTokens     int
	MaxInputChars int // Act text sent per rule; 0 sends everything
	Workers       int // Parallel judgments; 1 judges rules one after another
}

// JudgeEvaluator asks the model to judge each rule against the Act text.
// It does not read the extracted sections.
type JudgeEvaluator struct {
	provider llm.Provider
	rules    []rules.Rule
	opts     JudgeOptions
}

// NewJudgeEvaluator creates a judge evaluator; nil rules uses the default rules
func NewJudgeEvaluator(provider llm.Provider, rs []rules.Rule, opts JudgeOptions) *JudgeEvaluator {
	if rs == nil {
		rs = rules.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &JudgeEvaluator{provider: provider, rules: rs, opts: opts}
}

// Name returns the strategy name
func (e *JudgeEvaluator) Name() string {
	return KindLLM
}

// Evaluate judges every rule. Unusable judgments become failing sentinels;
// a failed model call aborts the evaluation.
func (e *JudgeEvaluator) Evaluate(ctx context.Context, text string, sections model.Sections) ([]model.RuleCheck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	input, _ := analyze.Truncate(text, e.opts.MaxInputChars)

	jobs := make([]worker.Job, len(e.rules))
	for i, r := range e.rules {
		jobs[i] = &judgeJob{evaluator: e, rule: r, text: input}
	}

	results := worker.Run(ctx, e.opts.Workers, jobs)

	checks := make([]model.RuleCheck, len(e.rules))
	for i, res := range results {
		if res == nil {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("judge %q: not run", e.rules[i].Text)
		}
		jr := res.(*judgeResult)
		if jr.err != nil {
			return nil, jr.err
		}
		checks[i] = jr.check
	}
	return checks, nil
}

func (e *JudgeEvaluator) judge(ctx context.Context, r rules.Rule, text string) (model.RuleCheck, error) {
	if err := ctx.Err(); err != nil {
		return model.RuleCheck{}, err
	}
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Prompt:    JudgePrompt(r.Text, text),
		Model:     e.opts.Model,
		MaxTokens: e.opts.MaxTokens,
	})
	if err != nil {
		return model.RuleCheck{}, fmt.Errorf("judge %q: %w", r.Text, err)
	}
	return ParseJudgment(r.Text, resp.Text), nil
}

// JudgePrompt builds the prompt for one rule
func JudgePrompt(rule, text string) string {
	return fmt.Sprintf(judgePromptTemplate, rule, rule, text)
}

// ParseJudgment converts a model response into a RuleCheck for rule.
// The rule field always carries the canonical rule text.
func ParseJudgment(rule, raw string) model.RuleCheck {
	var v any
	if err := analyze.DecodeJSON(raw, &v); err != nil {
		return sentinel(rule, InvalidJSONEvidence)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return sentinel(rule, InvalidJSONEvidence)
	}
	if err := judgmentValidator.Validate(obj); err != nil {
		return sentinel(rule, MalformedEvidence)
	}

	check := model.RuleCheck{
		Rule:   rule,
		Status: model.Status(obj["status"].(string)),
	}
	if ev, ok := obj["evidence"].(string); ok {
		check.Evidence = ev
	}
	conf, err := confidence(obj["confidence"])
	if err != nil {
		return sentinel(rule, MalformedEvidence)
	}
	check.Confidence = conf
	return check
}

func confidence(v any) (int, error) {
	n, ok := v.(interface{ Float64() (float64, error) })
	if !ok {
		return 0, errors.New("confidence is not a number")
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func sentinel(rule, evidence string) model.RuleCheck {
	return model.RuleCheck{
		Rule:       rule,
		Status:     model.StatusFail,
		Evidence:   evidence,
		Confidence: sentinelConfidence,
	}
}

type judgeJob struct {
	evaluator *JudgeEvaluator
	rule      rules.Rule
	text      string
}

type judgeResult struct {
	check model.RuleCheck
	err   error
}

func (r *judgeResult) GetError() error {
	return r.err
}

func (j *judgeJob) Execute(ctx context.Context) worker.Result {
	check, err := j.evaluator.judge(ctx, j.rule, j.text)
	return &judgeResult{check: check, err: err}
}
