package demon

import (
	"testing"

	"github.com/orneryd/tutorkernel/pkg/graphstore"
	"github.com/orneryd/tutorkernel/pkg/workingmemory"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	return &Context{Store: graphstore.NewMemoryEngine(graphstore.DefaultOptions())}
}

func newTurn(t *testing.T, rawInput string) (*workingmemory.Memory, workingmemory.View) {
	t.Helper()
	mem := workingmemory.New()
	mem.Write(workingmemory.Slot{
		Tag:         workingmemory.TagRawInput,
		Content:     workingmemory.SlotContent{Text: rawInput},
		Confidence:  1,
		SourceDemon: string(Parse),
		TTL:         workingmemory.TTLEndOfTurn,
	})
	return mem, workingmemory.NewView(mem)
}

func applyPlan(mem *workingmemory.Memory, plan Plan) {
	for _, s := range plan.Write {
		mem.Write(s)
	}
	for _, id := range plan.Evict {
		mem.Evict(id)
	}
}
