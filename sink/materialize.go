package sink

import (
	"context"
	"fmt"

	"github.com/justapithecus/smelt/action"
)

// MaterializeParamFiles writes every file-write action's contents
// through the store, keyed by the output's exec path. Spawn actions
// are skipped; executing them is out of scope. Writes stop at the
// first failure, so the returned count tells how far a partial
// materialization got.
func MaterializeParamFiles(ctx context.Context, store Store, actions []action.Action) (int, error) {
	written := 0
	for _, a := range actions {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		fw, ok := a.(*action.FileWriteAction)
		if !ok {
			continue
		}
		out := fw.Outputs()[0]
		if err := store.Put(ctx, out.ExecPath, fw.Contents()); err != nil {
			return written, fmt.Errorf("materialize %s: %w", out.ExecPath, err)
		}
		written++
	}
	return written, nil
}
