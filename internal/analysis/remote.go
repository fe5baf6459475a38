package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
	"github.com/tbourn/go-signal-pipeline/internal/metrics"
	"github.com/tbourn/go-signal-pipeline/internal/utils"
)

// Fallback reasons reported to metrics and logs.
const (
	ReasonTimeout   = "timeout"
	ReasonStatus    = "status"
	ReasonTransport = "transport"
	ReasonEmpty     = "empty"
	ReasonMalformed = "malformed"
)

const instructions = `You triage developer and AI ecosystem updates for a busy builder.
Given one collected item as JSON, return a verdict as JSON matching the schema.
score is actionability from 0 (ignore) to 100 (act now).
urgency is "now" for same-hour action, "today" for same-day, else "weekly".
confidence is your certainty from 0 to 1.
Keep list items short and concrete. Do not invent facts that are not in the item.`

// verdict is the schema the model must follow.
type verdict struct {
	Summary    string   `json:"summary" jsonschema:"description=One or two sentences on why the item matters"`
	Pros       []string `json:"pros" jsonschema:"description=What is good about it"`
	Cons       []string `json:"cons" jsonschema:"description=What is weak or risky"`
	HowToUse   []string `json:"how_to_use" jsonschema:"description=Concrete next steps"`
	WhereToUse []string `json:"where_to_use" jsonschema:"description=Areas of work it applies to"`
	Audience   string   `json:"audience" jsonschema:"description=Who should care"`
	Score      int      `json:"score" jsonschema:"description=Actionability from 0 to 100"`
	Urgency    string   `json:"urgency" jsonschema:"enum=now,enum=today,enum=weekly"`
	Confidence float64  `json:"confidence" jsonschema:"description=Certainty from 0 to 1"`
}

var verdictSchema = GenerateSchema[verdict]()

// RemoteOptions configures the remote analyzer.
type RemoteOptions struct {
	APIKey          string
	BaseURL         string // e.g. https://api.openai.com/v1
	Model           string
	Timeout         time.Duration
	MaxOutputTokens int
	MaxRetries      int
	HTTPClient      *http.Client
}

// Remote asks an OpenAI-compatible Responses endpoint for a verdict and
// sanitizes it against the heuristic result.
type Remote struct {
	client    openai.Client
	model     string
	timeout   time.Duration
	maxTokens int64
	fallback  Analyzer
	log       zerolog.Logger
}

// NewRemote builds a Remote analyzer. A zero Timeout defaults to 20s.
func NewRemote(o RemoteOptions, log zerolog.Logger) *Remote {
	opts := []option.RequestOption{
		option.WithAPIKey(o.APIKey),
		option.WithMaxRetries(o.MaxRetries),
	}
	if o.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(o.BaseURL))
	}
	if o.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(o.HTTPClient))
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	maxTokens := int64(o.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = 800
	}
	return &Remote{
		client:    openai.NewClient(opts...),
		model:     o.Model,
		timeout:   timeout,
		maxTokens: maxTokens,
		fallback:  Heuristic{},
		log:       log.With().Str("component", "analyzer").Logger(),
	}
}

// Analyze implements Analyzer.
func (r *Remote) Analyze(ctx context.Context, ev domain.SignalEvent) domain.AnalysisResult {
	fb := r.fallback.Analyze(ctx, ev)

	payload, err := json.Marshal(ev)
	if err != nil {
		return r.fallbackWith(ev, fb, ReasonMalformed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.client.Responses.New(ctx, r.params(string(payload)))
	if err != nil {
		return r.fallbackWith(ev, fb, classify(ctx, err), err)
	}

	out := resp.OutputText()
	if out == "" {
		return r.fallbackWith(ev, fb, ReasonEmpty, nil)
	}
	var raw map[string]any
	if err := utils.DecodeModelJSON(out, &raw); err != nil || raw == nil {
		if err == nil {
			err = errors.New("model output is not a JSON object")
		}
		return r.fallbackWith(ev, fb, ReasonMalformed, err)
	}
	return Sanitize(raw, fb)
}

func (r *Remote) params(input string) responses.ResponseNewParams {
	return responses.ResponseNewParams{
		Model:           r.model,
		MaxOutputTokens: openai.Int(r.maxTokens),
		Instructions:    openai.String(instructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(input, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "SignalVerdict",
					Schema:      verdictSchema,
					Strict:      openai.Bool(true),
					Description: openai.String("Actionability verdict for one signal"),
					Type:        "json_schema",
				},
			},
		},
	}
}

func (r *Remote) fallbackWith(ev domain.SignalEvent, fb domain.AnalysisResult, reason string, err error) domain.AnalysisResult {
	metrics.ObserveAnalyzerFallback(reason)
	r.log.Warn().
		Err(err).
		Str("signal_id", ev.ID).
		Str("reason", reason).
		Msg("remote analysis unavailable, using heuristic")
	return fb
}

func classify(ctx context.Context, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return ReasonStatus + "_" + strconv.Itoa(apiErr.StatusCode/100) + "xx"
	}
	return ReasonTransport
}

// GenerateSchema reflects T into a strict JSON schema map: every object
// forbids additional properties and requires all of its properties.
func GenerateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	m, err := schemaToMap(reflector.Reflect(v))
	if err != nil {
		panic(err)
	}
	ensureStrict(m)
	return m
}

func schemaToMap(schema *jsonschema.Schema) (map[string]any, error) {
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func ensureStrict(schema map[string]any) {
	props, _ := schema["properties"].(map[string]any)
	if t, _ := schema["type"].(string); t == "object" {
		schema["additionalProperties"] = false
		if len(props) > 0 {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			sort.Strings(required)
			schema["required"] = required
		}
	}
	for _, p := range props {
		if pm, ok := p.(map[string]any); ok {
			ensureStrict(pm)
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		ensureStrict(items)
	}
	delete(schema, "$schema")
	delete(schema, "$id")
}
