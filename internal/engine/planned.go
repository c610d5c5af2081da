package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/agentexec/core/internal/ai"
	"github.com/agentexec/core/internal/engine/validate"
	"github.com/agentexec/core/internal/ids"
	"github.com/agentexec/core/internal/model"
	"github.com/agentexec/core/internal/tools"
)

// Planned is the primary strategy: PLAN → EXECUTE → RESPOND.
type Planned struct{}

var _ Strategy = Planned{}

const directResponseTitle = "Direct response - no tools needed"

// Execute runs the full Planned control loop described in package engine's
// documentation: an instant Understanding step, a tool catalogue lookup, an
// asynchronous Planning step, then either a direct response or a validated,
// sequentially executed set of tool calls, followed by response synthesis.
func (Planned) Execute(ctx context.Context, ec ExecutionContext, messages []model.Message) (Result, error) {
	t := newTracker(ctx, ec)

	// P1 — Understanding.
	t.startInstant(model.StepTypeUnderstanding, model.NewUnderstandingContent())

	if ec.canceled() {
		return canceledResult(t), nil
	}

	// P2 — Tool catalogue.
	catalogue, err := ec.AIService.ListAvailableToolsForAgent(ctx, ec.AgentName)
	if err != nil {
		return Result{}, fmt.Errorf("engine: list tools for agent %q: %w", ec.AgentName, err)
	}

	if ec.canceled() {
		return canceledResult(t), nil
	}

	// P3 — Plan.
	planningStep := t.startAsync(model.StepTypePlanning, model.NewPlanningContent())
	plan, err := ec.AIService.GeneratePlan(ctx, messages, catalogue)
	if err != nil {
		t.fail(planningStep, err.Error())
		return Result{}, fmt.Errorf("engine: generate plan: %w", err)
	}

	// P4 — Direct response.
	if !plan.HasTools() {
		t.complete(planningStep, model.StepContent{Title: directResponseTitle})
		t.startInstant(model.StepTypeCompletion, model.NewCompletionContent())
		t.broadcastText(plan.DirectResponse)
		t.broadcastStatus(model.TaskStateCompleted, true)
		return Result{Text: plan.DirectResponse, Iterations: 1}, nil
	}

	// P5a — Complete planning step with reasoning + planned tools.
	plannedTools := make([]model.PlannedTool, len(plan.Steps))
	for i, step := range plan.Steps {
		plannedTools[i] = model.PlannedTool{Name: string(step.ToolName), Args: step.Args}
	}
	t.complete(planningStep, model.StepContent{Title: "Planning approach", Tools: plannedTools})

	if ec.canceled() {
		return canceledResult(t), nil
	}

	// P5b — Template validation.
	if errs := validate.ValidatePlan(plan.Steps, catalogue); len(errs) > 0 {
		summary := validate.Summary(errs)
		text, genErr := ec.AIService.GenerateResponse(ctx, appendSummary(messages, summary))
		if genErr != nil {
			return Result{}, fmt.Errorf("engine: generate response after validation failure: %w", genErr)
		}
		t.startInstant(model.StepTypeCompletion, model.NewCompletionContent())
		t.broadcastText(text)
		t.broadcastStatus(model.TaskStateCompleted, true)
		return Result{Text: text, Iterations: 1}, nil
	}

	// P5c — Aggregated tool tracking step.
	toolStep := t.startAsync(model.StepTypeToolExecution, model.NewToolExecutionContent(plannedTools))

	// P5d — Execute tools sequentially.
	outcomes, execErrs := executeTools(ctx, ec, plan.Steps, catalogue)

	if ec.canceled() {
		return canceledResult(t), nil
	}

	// P5e — Tracking completion.
	if len(execErrs) == 0 {
		toolStep = t.complete(toolStep, model.StepContent{
			Title: toolStep.Content.Title,
			Tools: toolStep.Content.Tools,
			Result: summarizeOutcomes(outcomes),
		})
	} else {
		t.fail(toolStep, joinErrors(execErrs))
	}

	if ec.canceled() {
		return canceledResult(t), nil
	}

	// P5f — Completion step.
	t.startInstant(model.StepTypeCompletion, model.NewCompletionContent())

	// P5g — Response synthesis.
	summary := formatExecutionSummary(outcomes)
	text, err := ec.AIService.GenerateResponse(ctx, appendSummary(messages, summary))
	if err != nil {
		return Result{}, fmt.Errorf("engine: generate response: %w", err)
	}
	t.broadcastText(text)
	t.broadcastStatus(model.TaskStateCompleted, true)

	return Result{Text: text, ToolCalls: outcomes, Iterations: 1}, nil
}

func canceledResult(t *tracker) Result {
	t.broadcastStatus(model.TaskStateCanceled, true)
	return Result{Canceled: true}
}

func appendSummary(messages []model.Message, summary string) []model.Message {
	out := make([]model.Message, len(messages), len(messages)+1)
	copy(out, messages)
	return append(out, model.Message{
		MessageId: ids.NewMessageId(),
		Role:      model.RoleUser,
		Parts:     []model.Part{model.NewTextPart(summary)},
	})
}

func executeTools(ctx context.Context, ec ExecutionContext, steps []ai.PlannedStep, catalogue []tools.Spec) ([]ToolCallOutcome, []string) {
	terminal := make(map[tools.Name]bool, len(catalogue))
	schemas := make(map[tools.Name][]byte, len(catalogue))
	for _, spec := range catalogue {
		terminal[spec.Name] = spec.TerminalOnSuccess
		schemas[spec.Name] = spec.Schema
	}

	outcomes := make([]ToolCallOutcome, 0, len(steps))
	var errs []string

	for _, step := range steps {
		if ec.canceled() {
			break
		}

		args := resolveArgs(step.Args, outcomes)
		callID := ids.NewAiToolCallId()

		result := runToolCall(ctx, ec, step, args, schemas[step.ToolName])

		outcome := ToolCallOutcome{CallID: callID, Name: step.ToolName, Args: args, Result: result}
		outcomes = append(outcomes, outcome)

		if result.IsError {
			errs = append(errs, fmt.Sprintf("%s: %s", step.ToolName, result.Text))
			continue
		}
		if terminal[step.ToolName] {
			break
		}
	}
	return outcomes, errs
}

// runToolCall validates args against the tool's declared schema (if any),
// then executes it, normalizing any failure into an error Result rather
// than propagating it — the control loop is partial-failure-tolerant. The
// call is timed end to end, including validation, since DurationMs is the
// duration attributable to the whole tool-call step, not just the network
// hop.
func runToolCall(ctx context.Context, ec ExecutionContext, step ai.PlannedStep, args map[string]any, schema []byte) tools.Result {
	start := time.Now()
	if ec.ToolExecutor == nil {
		return tools.Result{Text: "no tool executor configured for this agent", IsError: true, DurationMs: time.Since(start).Milliseconds()}
	}
	if err := validate.ValidateArgs(schema, args); err != nil {
		return tools.Result{Text: err.Error(), IsError: true, DurationMs: time.Since(start).Milliseconds()}
	}
	result, err := ec.ToolExecutor.Execute(ctx, tools.Call{Name: step.ToolName, Args: args})
	if err != nil {
		return tools.Result{Text: err.Error(), IsError: true, DurationMs: time.Since(start).Milliseconds()}
	}
	result.DurationMs = time.Since(start).Milliseconds()
	return result
}

// placeholderPattern matches `{{tool_N.field}}`.
var placeholderPattern = regexp.MustCompile(`\{\{tool_(\d+)\.([A-Za-z0-9_]+)\}\}`)

// resolveArgs substitutes every `{{tool_N.field}}` placeholder in args with
// the corresponding field from the Nth prior tool's structured result.
func resolveArgs(args map[string]any, prior []ToolCallOutcome) map[string]any {
	resolved := make(map[string]any, len(args))
	for k, v := range args {
		s, ok := v.(string)
		if !ok {
			resolved[k] = v
			continue
		}
		resolved[k] = placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
			sub := placeholderPattern.FindStringSubmatch(match)
			idx, _ := strconv.Atoi(sub[1])
			field := sub[2]
			if idx < 1 || idx > len(prior) {
				return match
			}
			val, ok := prior[idx-1].Result.StructuredContent[field]
			if !ok {
				return match
			}
			return stringify(val)
		})
	}
	return resolved
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}

func summarizeOutcomes(outcomes []ToolCallOutcome) string {
	text := ""
	for i, o := range outcomes {
		if i > 0 {
			text += "; "
		}
		text += fmt.Sprintf("%s: %s", o.Name, o.Result.Text)
	}
	return text
}

func formatExecutionSummary(outcomes []ToolCallOutcome) string {
	return summarizeOutcomes(outcomes)
}

func joinErrors(errs []string) string {
	text := ""
	for i, e := range errs {
		if i > 0 {
			text += "; "
		}
		text += e
	}
	return text
}
