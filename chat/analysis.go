package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sangwon91/prior/tools"
	"github.com/Sangwon91/prior/workflow"
)

// ProjectState is the state threaded through a project-analysis run.
type ProjectState struct {
	Tree     string
	Analysis *TreeAnalysis
}

// TreeAnalysis summarizes a rendered project tree.
type TreeAnalysis struct {
	TotalLines int    `json:"total_lines"`
	FileCount  int    `json:"file_count"`
	Tree       string `json:"tree"`
}

type analysisStep = workflow.Step[ProjectState, workflow.NoDeps, TreeAnalysis]
type analysisCtx = workflow.RunContext[ProjectState, workflow.NoDeps]

// GetProjectTree renders the file tree under Root into the run state.
type GetProjectTree struct {
	workflow.NodeBase
	Root string
}

func (n GetProjectTree) Run(ctx context.Context, rc *analysisCtx) (analysisStep, error) {
	tree, err := tools.ProjectTree(n.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to read project tree: %w", err)
	}
	rc.State.Tree = tree
	return AnalyzeProject{}, nil
}

func (GetProjectTree) Successors() []analysisStep {
	return []analysisStep{AnalyzeProject{}}
}

// AnalyzeProject derives summary counts from the rendered tree.
type AnalyzeProject struct {
	workflow.NodeBase
}

func (AnalyzeProject) Run(ctx context.Context, rc *analysisCtx) (analysisStep, error) {
	lines := strings.Split(rc.State.Tree, "\n")

	entries := 0
	for _, line := range lines {
		if strings.Contains(line, "└──") || strings.Contains(line, "├──") {
			entries++
		}
	}

	analysis := TreeAnalysis{
		TotalLines: len(lines),
		FileCount:  entries,
		Tree:       rc.State.Tree,
	}
	rc.State.Analysis = &analysis
	return workflow.End[TreeAnalysis]{Output: analysis}, nil
}

func (AnalyzeProject) Successors() []analysisStep {
	return []analysisStep{workflow.End[TreeAnalysis]{}}
}

// NewAnalysisGraph assembles the project-analysis workflow.
func NewAnalysisGraph() (*workflow.Graph[ProjectState, workflow.NoDeps, TreeAnalysis], error) {
	return workflow.New[ProjectState, workflow.NoDeps, TreeAnalysis]("project_analysis", GetProjectTree{}, AnalyzeProject{})
}
