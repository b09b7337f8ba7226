package engine

// MoveRecord is one reversible entity move
type MoveRecord struct {
	Entity *Entity
	DX     int
	DY     int
}

// History is a flat LIFO of entity moves. A push is stored as a crate record
// immediately followed by the hero record.
type History struct {
	records []MoveRecord
}

// Push appends a record
func (h *History) Push(rec MoveRecord) {
	h.records = append(h.records, rec)
}

// Pop removes and returns the most recent record
func (h *History) Pop() (MoveRecord, bool) {
	if len(h.records) == 0 {
		return MoveRecord{}, false
	}
	rec := h.records[len(h.records)-1]
	h.records = h.records[:len(h.records)-1]
	return rec, true
}

// Peek returns the most recent record without removing it
func (h *History) Peek() (MoveRecord, bool) {
	if len(h.records) == 0 {
		return MoveRecord{}, false
	}
	return h.records[len(h.records)-1], true
}

// Len returns the number of records
func (h *History) Len() int {
	return len(h.records)
}

// CanUndo reports whether there is anything to undo
func (h *History) CanUndo() bool {
	return len(h.records) > 0
}

// Clear drops every record
func (h *History) Clear() {
	h.records = nil
}

// Undo reverses the last player action: the hero step and, if the record
// beneath it belongs to a crate, the push that came with it.
func (gs *GameState) Undo() error {
	top, ok := gs.History.Peek()
	if !ok {
		return ErrNothingToUndo
	}
	if top.Entity.Kind != Hero {
		return ErrCorruptHistory
	}

	gs.History.Pop()
	top.Entity.reverse(top.DX, top.DY)
	gs.StepCount--

	if next, ok := gs.History.Peek(); ok && next.Entity.Kind == Crate {
		gs.History.Pop()
		next.Entity.reverse(next.DX, next.DY)
		next.Entity.CheckOnGoal(gs.Grid)
	}

	return nil
}
