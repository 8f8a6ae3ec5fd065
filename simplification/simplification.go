package simplification

import (
	"context"
	"strings"

	"github.com/gmaffy/minys-go/tools"
	"github.com/gmaffy/minys-go/utils"
)

const Stage = "simplification"

// OutputPath is the simplified graph written next to graphPath.
func OutputPath(graphPath string) string {
	return strings.TrimSuffix(graphPath, ".gfa") + ".simplified.gfa"
}

// Run simplifies the gap-filled graph and returns the simplified file.
func Run(ctx context.Context, rc *utils.RunContext, graphPath string) (string, error) {
	cfg := rc.Config
	script := cfg.Tools.Simplifier
	if script == "" {
		script = cfg.SimplificationScript
	}
	if script == "" || !utils.FileExists(script) {
		err := utils.NewConfigurationError("simplification script not found: %q", script)
		rc.Logger.Error("Graph simplification failed", "STAGE", Stage, "STATUS", utils.StatusFailed, "error", err)
		return "", err
	}

	out := OutputPath(graphPath)
	simplify := tools.Simplifier{Script: script, PrefixLength: cfg.SimplificationL, In: graphPath, Out: out}
	args, err := tools.Args(simplify)
	if err != nil {
		return "", &utils.StageError{Stage: Stage, Err: err}
	}
	rc.Logger.Info("Graph simplification", "STAGE", Stage, "STATUS", utils.StatusStarted, "CMD", strings.Join(args, " "))

	if err := tools.RunLogged(ctx, Stage, rc.LogPath(Stage), simplify); err != nil {
		rc.Logger.Error("Graph simplification failed", "STAGE", Stage, "STATUS", utils.StatusFailed, "error", err)
		return "", err
	}
	if err := utils.RequireArtifact(Stage, out); err != nil {
		rc.Logger.Error("Graph simplification produced no graph", "STAGE", Stage, "STATUS", utils.StatusFailed, "error", err)
		return "", err
	}
	rc.Logger.Info("Graph simplification done: "+out, "STAGE", Stage, "STATUS", utils.StatusCompleted)
	return out, nil
}
