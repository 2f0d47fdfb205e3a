// Package ai runs the admin assistant: a Gemini chat with function calling
// over the catalog and the sales reports.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"reda-store/internal/apperr"
	"reda-store/internal/logging"
)

// maxSteps bounds the tool-call round trips of one question.
const maxSteps = 5

var ErrDisabled = apperr.New(apperr.Unavailable, "AI assistant is not configured")

type Agent struct {
	apiKey string
	model  string
	tools  *Tools
	now    func() time.Time
	loc    *time.Location
}

func NewAgent(apiKey, model string, tools *Tools, loc *time.Location) *Agent {
	if loc == nil {
		loc = time.UTC
	}
	return &Agent{apiKey: apiKey, model: model, tools: tools, now: time.Now, loc: loc}
}

func (a *Agent) Enabled() bool { return a.apiKey != "" }

func (a *Agent) systemPrompt() string {
	today := a.now().In(a.loc).Format("2006-01-02")
	return fmt.Sprintf(`Today is %s. You are the assistant of a retail shop's admin panel. Prices are in Sri Lankan rupees.

RULES:
1. UPDATE: If the user asks to update a product by NAME, do NOT ask for the ID. Call 'check_inventory' to find the ID, then call 'update_product_price' with it.
2. READ: For price, cost, stock or details of a product, call 'check_inventory' and answer from the result. You CAN get prices this way.
3. SALES: For sales, revenue, returns or profit, call 'get_sales_report'.`, today)
}

// Ask answers one admin question, running tool calls until the model replies
// with text.
func (a *Agent) Ask(ctx context.Context, adminID, message string) (string, error) {
	if !a.Enabled() {
		return "", ErrDisabled
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", apperr.New(apperr.Unavailable, "AI assistant is unavailable")
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(a.systemPrompt())}}
	model.Tools = []*genai.Tool{{FunctionDeclarations: Declarations()}}

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		logging.WithContext(ctx).WithError(err).Error("assistant request failed")
		return "", apperr.New(apperr.Unavailable, "AI assistant is unavailable")
	}

	for step := 0; step < maxSteps; step++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return replyText(resp), nil
		}
		parts := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			logging.WithFields(ctx, map[string]interface{}{"tool": call.Name, "admin_id": adminID}).Info("assistant tool call")
			parts = append(parts, genai.FunctionResponse{
				Name:     call.Name,
				Response: a.tools.Call(ctx, adminID, call.Name, call.Args),
			})
		}
		resp, err = session.SendMessage(ctx, parts...)
		if err != nil {
			logging.WithContext(ctx).WithError(err).Error("assistant tool reply failed")
			return "", apperr.New(apperr.Unavailable, "AI assistant is unavailable")
		}
	}
	return replyText(resp), nil
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	var calls []genai.FunctionCall
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if fc, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

func replyText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "I completed the action."
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt)
		}
	}
	return "I completed the action."
}
