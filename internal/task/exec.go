package task

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/ritamzico/murk/internal/opgraph"
	"github.com/ritamzico/murk/internal/state"
	"github.com/ritamzico/murk/internal/types"
)

// Exec runs a node's embedded command (its "exec" prop) and stores stdout
// as the node's new text, mirroring the original exec() task: the AST
// node carrying the command is mutated in place, not replaced, so a later
// Compile pass renders the captured output exactly where the command
// literal was. Child processes are bound to ctx so an abandoned task's
// process is killed rather than leaked.
func Exec(ctx context.Context, op opgraph.Op, s *state.State) (bool, error) {
	handle, ok := s.ASTs.Get("ast:" + op.Path)
	if !ok {
		return false, types.NewError(types.KindInternal, "exec requested before parse: "+op.Path)
	}

	command, ok := handle.Node.PropValue("exec")
	if !ok || command == "" {
		return false, nil
	}

	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false, nil
	}

	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return false, types.WrapError(types.KindExecution, "exec "+command, err)
	}

	handle.Node.Text = stdout.String()
	return false, nil
}

// Tangle extracts a node's literal body verbatim into a new artifact
// (e.g. a fenced code block tangled out to its own source file), keyed
// under the "tangle:" scheme by the node's declared "tangle" prop value.
func Tangle(op opgraph.Op, s *state.State) (bool, error) {
	handle, ok := s.ASTs.Get("ast:" + op.Path)
	if !ok {
		return false, types.NewError(types.KindInternal, "tangle requested before parse: "+op.Path)
	}

	dest, ok := handle.Node.PropValue("tangle")
	if !ok || dest == "" {
		return false, nil
	}

	unlock := s.LockArtifacts()
	defer unlock()
	s.Artifacts["tangle:"+dest] = &types.Artifact{Kind: types.ArtifactText, Text: handle.Node.Text}
	return false, nil
}
