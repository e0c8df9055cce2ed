// Package chat drives one prompt/answer exchange against a streaming
// chat-completions endpoint and commits the resulting turn pair.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/minhyannv/chatgpt-cli-go/pkg/apperr"
	configpkg "github.com/minhyannv/chatgpt-cli-go/pkg/config"
	loggerpkg "github.com/minhyannv/chatgpt-cli-go/pkg/logger"
	"github.com/minhyannv/chatgpt-cli-go/pkg/stream"
	"github.com/minhyannv/chatgpt-cli-go/pkg/transcript"
)

const completionsPath = "chat/completions"

// State is the lifecycle position of one exchange.
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateStreaming  State = "streaming"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Result describes one finished exchange.
type Result struct {
	RequestID string
	Answer    string
	State     State
}

// Orchestrator runs exchanges for a single session store. It holds no
// per-exchange state, and only one exchange may be in flight at a time.
type Orchestrator struct {
	config  configpkg.Config
	client  openai.Client
	store   transcript.Store
	display io.Writer
	diag    func(error)

	logger  loggerpkg.Logger
	verbose bool
}

// New builds an Orchestrator from a validated config and a transcript store.
func New(cfg configpkg.Config, store transcript.Store, opts ...Option) (*Orchestrator, error) {
	cfg = configpkg.Normalize(cfg)
	d := deps{logger: loggerpkg.NopLogger{}, display: io.Discard}
	for _, opt := range opts {
		if opt != nil {
			opt(&d)
		}
	}
	if d.logger == nil {
		d.logger = loggerpkg.NopLogger{}
	}
	if d.display == nil {
		d.display = io.Discard
	}

	if err := configpkg.Validate(cfg); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("transcript store is required")
	}

	loggerpkg.Debug(cfg.Verbose, d.logger, "orchestrator init", map[string]any{
		"model":    cfg.Model,
		"base_url": cfg.BaseURL,
		"timeout":  cfg.Timeout().String(),
	})

	return &Orchestrator{
		config:  cfg,
		client:  newOpenAIClient(cfg, d.httpClient),
		store:   store,
		display: d.display,
		diag:    d.diag,
		logger:  d.logger,
		verbose: cfg.Verbose,
	}, nil
}

func newOpenAIClient(cfg configpkg.Config, httpClient *http.Client) openai.Client {
	baseURL := cfg.BaseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(cfg.APIKey),
		// One exchange is one attempt.
		option.WithMaxRetries(0),
		// NewClient picks these up from OPENAI_ORG_ID and OPENAI_PROJECT_ID.
		option.WithHeaderDel("OpenAI-Organization"),
		option.WithHeaderDel("OpenAI-Project"),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return openai.NewClient(opts...)
}

// Exchange sends prompt with the session's full history, streams the answer to
// the display sink, and on success appends the user and assistant turns.
// On any failure nothing is persisted and the session is unchanged, so the
// same prompt can be retried.
func (o *Orchestrator) Exchange(ctx context.Context, key transcript.SessionKey, prompt string) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	res := Result{RequestID: uuid.NewString(), State: StateIdle}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return res, errors.New("prompt is required")
	}

	history, err := o.store.Load(ctx, key)
	if err != nil {
		return o.fail(res, err)
	}

	answer, err := o.roundTrip(ctx, &res, history, prompt)
	if err != nil {
		return o.fail(res, err)
	}

	if err := o.store.Append(ctx, key, transcript.UserTurn(prompt), transcript.AssistantTurn(answer)); err != nil {
		return o.fail(res, err)
	}

	res.Answer = answer
	o.transition(&res, StateCompleted)
	return res, nil
}

// roundTrip performs the network half of the exchange under the configured timeout.
func (o *Orchestrator) roundTrip(ctx context.Context, res *Result, history transcript.Transcript, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout())
	defer cancel()

	messages, err := toOpenAIMessages(BuildMessages(history, prompt, o.config.SystemPrompt))
	if err != nil {
		return "", err
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.config.Model),
		Messages: messages,
	}

	o.transition(res, StateRequesting)
	loggerpkg.Debug(o.verbose, o.logger, "sending chat completion", map[string]any{
		"request_id": res.RequestID,
		"messages":   len(messages),
	})

	var raw *http.Response
	err = o.client.Post(ctx, completionsPath, params, &raw,
		option.WithJSONSet("stream", o.config.Stream),
		option.WithResponseInto(&raw),
	)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", apperr.Transport(fmt.Sprintf("chat completion failed with status %d", apiErr.StatusCode), err)
		}
		return "", apperr.Transport("chat completion request", err)
	}
	if raw == nil || raw.Body == nil {
		return "", apperr.Transport("chat completion request", errors.New("empty response"))
	}
	defer raw.Body.Close()

	o.transition(res, StateStreaming)
	return stream.Decode(ctx, raw.Body, o.display,
		stream.WithDiagnostics(o.diag),
		stream.WithLogger(o.logger, o.verbose),
	)
}

func (o *Orchestrator) fail(res Result, err error) (Result, error) {
	o.transition(&res, StateFailed)
	loggerpkg.Debug(o.verbose, o.logger, "exchange failed", map[string]any{
		"request_id": res.RequestID,
		"kind":       string(apperr.KindOf(err)),
		"error":      err.Error(),
	})
	return res, err
}

func (o *Orchestrator) transition(res *Result, next State) {
	loggerpkg.Debug(o.verbose, o.logger, "exchange state", map[string]any{
		"request_id": res.RequestID,
		"from":       string(res.State),
		"to":         string(next),
	})
	res.State = next
}

// History returns the stored transcript for key.
func (o *Orchestrator) History(ctx context.Context, key transcript.SessionKey) (transcript.Transcript, error) {
	return o.store.Load(ctx, key)
}
