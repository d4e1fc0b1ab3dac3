// Package bedrock implements agent.Provider over AWS Bedrock's Converse
// streaming API, giving access to foundation models (Anthropic, Titan,
// Llama, Mistral, Cohere) hosted behind a single AWS-native interface.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/sriinnu/chitragupta/internal/agent"
	"github.com/sriinnu/chitragupta/internal/providers"
	"github.com/sriinnu/chitragupta/pkg/models"
)

// Provider wraps a Bedrock runtime client behind agent.Provider.
type Provider struct {
	client       *bedrockruntime.Client
	defaultModel string
}

// Config configures a Provider.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	DefaultModel    string
}

// New loads AWS credentials (explicit if given, otherwise the default
// chain: environment, shared config, IAM role) and builds a Provider.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "anthropic.claude-3-sonnet-20240229-v1:0"
	}

	var awsCfg aws.Config
	var err error
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)),
		)
	} else {
		awsCfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	}
	if err != nil {
		return nil, fmt.Errorf("bedrock: failed to load AWS config: %w", err)
	}

	return &Provider{client: bedrockruntime.NewFromConfig(awsCfg), defaultModel: cfg.DefaultModel}, nil
}

func (p *Provider) Name() string { return "bedrock" }

func (p *Provider) Models() []models.Model {
	return []models.Model{
		{ID: "anthropic.claude-3-opus-20240229-v1:0", ProviderID: "bedrock", ContextWindow: 200000},
		{ID: "anthropic.claude-3-sonnet-20240229-v1:0", ProviderID: "bedrock", ContextWindow: 200000},
		{ID: "anthropic.claude-3-haiku-20240307-v1:0", ProviderID: "bedrock", ContextWindow: 200000},
		{ID: "amazon.titan-text-express-v1", ProviderID: "bedrock", ContextWindow: 8192},
		{ID: "meta.llama3-70b-instruct-v1:0", ProviderID: "bedrock", ContextWindow: 8192},
		{ID: "mistral.mixtral-8x7b-instruct-v0:1", ProviderID: "bedrock", ContextWindow: 32768},
		{ID: "cohere.command-r-plus-v1:0", ProviderID: "bedrock", ContextWindow: 128000},
	}
}

func (p *Provider) Stream(ctx context.Context, req agent.CompletionRequest) (<-chan agent.StreamEvent, error) {
	if p.client == nil {
		return nil, providers.NewProviderError("bedrock", req.ModelID, fmt.Errorf("bedrock client not initialized"))
	}

	model := req.ModelID
	if model == "" {
		model = p.defaultModel
	}

	messages, err := convertMessages(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("bedrock: failed to convert messages: %w", err)
	}

	converseReq := &bedrockruntime.ConverseStreamInput{
		ModelId:  aws.String(model),
		Messages: messages,
	}
	if req.System != "" {
		converseReq.System = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: req.System}}
	}
	if req.MaxTokens > 0 {
		maxTokens := min(req.MaxTokens, math.MaxInt32)
		converseReq.InferenceConfig = &types.InferenceConfiguration{MaxTokens: aws.Int32(int32(maxTokens))}
	}
	if len(req.Tools) > 0 {
		converseReq.ToolConfig = toBedrockTools(req.Tools)
	}

	stream, err := p.client.ConverseStream(ctx, converseReq)
	if err != nil {
		return nil, wrapError(err, model)
	}

	out := make(chan agent.StreamEvent)
	go processStream(ctx, stream, out, model)
	return out, nil
}

func processStream(ctx context.Context, stream *bedrockruntime.ConverseStreamOutput, out chan<- agent.StreamEvent, model string) {
	defer close(out)

	eventStream := stream.GetStream()
	defer eventStream.Close()

	var currentToolID, currentToolName string
	var toolInput strings.Builder
	inTool := false
	started := false

	eventChan := eventStream.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				if inTool {
					out <- agent.StreamEvent{Type: agent.EventToolCall, ToolCallID: currentToolID, ToolCallName: currentToolName, ToolCallArgs: []byte(toolInput.String())}
				}
				if err := eventStream.Err(); err != nil {
					out <- agent.StreamEvent{Type: agent.EventError, Err: wrapError(err, model)}
				} else {
					out <- agent.StreamEvent{Type: agent.EventDone, StopReason: models.StopEndTurn}
				}
				return
			}

			if !started {
				started = true
				out <- agent.StreamEvent{Type: agent.EventStart}
			}

			switch ev := event.(type) {
			case *types.ConverseStreamOutputMemberContentBlockStart:
				if toolUse, ok := ev.Value.Start.(*types.ContentBlockStartMemberToolUse); ok {
					currentToolID = aws.ToString(toolUse.Value.ToolUseId)
					currentToolName = aws.ToString(toolUse.Value.Name)
					toolInput.Reset()
					inTool = true
				}

			case *types.ConverseStreamOutputMemberContentBlockDelta:
				switch delta := ev.Value.Delta.(type) {
				case *types.ContentBlockDeltaMemberText:
					if delta.Value != "" {
						out <- agent.StreamEvent{Type: agent.EventText, TextChunk: delta.Value}
					}
				case *types.ContentBlockDeltaMemberToolUse:
					if delta.Value.Input != nil {
						toolInput.WriteString(*delta.Value.Input)
					}
				}

			case *types.ConverseStreamOutputMemberContentBlockStop:
				if inTool {
					out <- agent.StreamEvent{Type: agent.EventToolCall, ToolCallID: currentToolID, ToolCallName: currentToolName, ToolCallArgs: []byte(toolInput.String())}
					inTool = false
					toolInput.Reset()
				}

			case *types.ConverseStreamOutputMemberMessageStop:
				out <- agent.StreamEvent{Type: agent.EventDone, StopReason: stopReasonOf(ev)}
				return
			}
		}
	}
}

func stopReasonOf(ev *types.ConverseStreamOutputMemberMessageStop) models.StopReason {
	switch ev.Value.StopReason {
	case types.StopReasonToolUse:
		return models.StopToolUse
	case types.StopReasonMaxTokens:
		return models.StopMaxTokens
	default:
		return models.StopEndTurn
	}
}

func convertMessages(turns []models.Turn) ([]types.Message, error) {
	result := make([]types.Message, 0, len(turns))

	for _, turn := range turns {
		if turn.Role == models.RoleSystem {
			continue
		}

		var content []types.ContentBlock
		for _, part := range turn.Content {
			switch part.Type {
			case models.PartText:
				if part.Text != "" {
					content = append(content, &types.ContentBlockMemberText{Value: part.Text})
				}
			case models.PartToolResult:
				content = append(content, &types.ContentBlockMemberToolResult{
					Value: types.ToolResultBlock{
						ToolUseId: aws.String(part.ToolResultID),
						Content:   []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberText{Value: part.ToolResultContent}},
					},
				})
			case models.PartToolCall:
				var inputDoc any
				if len(part.ToolCallArgs) > 0 {
					if err := json.Unmarshal(part.ToolCallArgs, &inputDoc); err != nil {
						inputDoc = map[string]any{}
					}
				}
				content = append(content, &types.ContentBlockMemberToolUse{
					Value: types.ToolUseBlock{
						ToolUseId: aws.String(part.ToolCallID),
						Name:      aws.String(part.ToolCallName),
						Input:     document.NewLazyDocument(inputDoc),
					},
				})
			}
		}

		if len(content) == 0 {
			continue
		}
		role := types.ConversationRoleUser
		if turn.Role == models.RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		result = append(result, types.Message{Role: role, Content: content})
	}

	return result, nil
}

func toBedrockTools(tools []agent.ToolSpec) *types.ToolConfiguration {
	specs := make([]types.Tool, 0, len(tools))
	for _, t := range tools {
		var schemaDoc any
		if len(t.Schema) > 0 {
			_ = json.Unmarshal(t.Schema, &schemaDoc)
		}
		specs = append(specs, &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(t.Name),
				Description: aws.String(t.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schemaDoc)},
			},
		})
	}
	return &types.ToolConfiguration{Tools: specs}
}

func wrapError(err error, model string) error {
	if err == nil {
		return nil
	}
	if providers.IsProviderError(err) {
		return err
	}
	return providers.NewProviderError("bedrock", model, err)
}
