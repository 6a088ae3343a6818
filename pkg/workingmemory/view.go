package workingmemory

// View is the read-only surface of Memory handed to demons (spec §4.3
// "common shape": "Demons receive a read-view of working memory"). A
// demon may read but never write through a View; the orchestrator alone
// applies the Plan a demon returns.
type View struct {
	m *Memory
}

// NewView wraps m for read-only demon consumption.
func NewView(m *Memory) View {
	return View{m: m}
}

func (v View) Read(id SlotID) *Slot            { return v.m.Read(id) }
func (v View) FindByTag(tag Tag) []*Slot       { return v.m.FindByTag(tag) }
func (v View) LatestByTag(tag Tag) *Slot       { return v.m.LatestByTag(tag) }
func (v View) Focused() []*Slot                { return v.m.Focused() }
func (v View) TickCount() int                  { return v.m.TickCount() }
func (v View) Size() int                       { return v.m.Size() }
