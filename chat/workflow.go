// Package chat builds the conversation and project-analysis workflows on
// top of the chain-form graph engine.
package chat

import (
	"context"
	"fmt"

	"github.com/Sangwon91/prior/protocol"
	"github.com/Sangwon91/prior/tools"
	"github.com/Sangwon91/prior/workflow"
)

// Streamer produces a model response for a chat history. onChunk is invoked
// per content delta; the accumulated response is returned.
type Streamer interface {
	Stream(ctx context.Context, history []protocol.ChatMessage, projectContext string, onChunk func(chunk string) error) (string, error)
}

// Transport carries chat messages between the workflow and a frontend.
// bridge.Client implements it.
type Transport interface {
	Send(ctx context.Context, message protocol.ChatMessage) error
	Receive(ctx context.Context) (protocol.ChatMessage, error)
}

// State is the conversation state threaded through a chat run.
type State struct {
	History        []protocol.ChatMessage
	Current        protocol.ChatMessage
	ProjectContext string
}

// Deps are the chat workflow's external collaborators.
type Deps struct {
	Agent       Streamer
	Transport   Transport
	ProjectRoot string
}

type chatStep = workflow.Step[State, Deps, string]
type chatCtx = workflow.RunContext[State, Deps]

// ReceiveMessage waits for the next user message on the transport. Messages
// with other roles (echoes of the assistant's own responses) are discarded.
type ReceiveMessage struct {
	workflow.NodeBase
}

func (ReceiveMessage) Run(ctx context.Context, rc *chatCtx) (chatStep, error) {
	if rc.Deps.Transport == nil {
		return workflow.End[string]{Output: "no transport"}, nil
	}

	for {
		message, err := rc.Deps.Transport.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("failed to receive message: %w", err)
		}
		if message.Role != protocol.RoleUser {
			continue
		}

		rc.State.Current = message
		rc.State.History = append(rc.State.History, message)
		return ProcessChat{}, nil
	}
}

func (ReceiveMessage) Successors() []chatStep {
	return []chatStep{ProcessChat{}, workflow.End[string]{}}
}

// ProcessChat sends the conversation to the agent, streams the response,
// and delivers the assistant's reply over the transport.
type ProcessChat struct {
	workflow.NodeBase
}

func (ProcessChat) Run(ctx context.Context, rc *chatCtx) (chatStep, error) {
	if rc.Deps.Agent == nil {
		return workflow.End[string]{Output: "no agent"}, nil
	}

	if rc.State.ProjectContext == "" && rc.Deps.ProjectRoot != "" {
		tree, err := tools.ProjectTree(rc.Deps.ProjectRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to read project tree: %w", err)
		}
		rc.State.ProjectContext = tree
	}

	response, err := rc.Deps.Agent.Stream(ctx, rc.State.History, rc.State.ProjectContext, nil)
	if err != nil {
		return nil, fmt.Errorf("agent stream failed: %w", err)
	}

	if response != "" {
		reply := protocol.NewAssistantMessage(response)
		rc.State.History = append(rc.State.History, reply)
		if rc.Deps.Transport != nil {
			if err := rc.Deps.Transport.Send(ctx, reply); err != nil {
				return nil, fmt.Errorf("failed to send response: %w", err)
			}
		}
	}

	return ReceiveMessage{}, nil
}

func (ProcessChat) Successors() []chatStep {
	return []chatStep{ReceiveMessage{}, workflow.End[string]{}}
}

// NewChatGraph assembles the conversation workflow.
func NewChatGraph() (*workflow.Graph[State, Deps, string], error) {
	return workflow.New[State, Deps, string]("chat", ReceiveMessage{}, ProcessChat{})
}
