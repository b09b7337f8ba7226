package engine

// Grid is the static map of a level plus a coordinate index for spatial queries
type Grid struct {
	tiles []Tile
	index map[Position]TileKind

	// Width and Height are the zero-based maximum column and row seen while parsing
	Width  int
	Height int
}

// NewGrid creates an empty grid
func NewGrid() *Grid {
	return &Grid{index: make(map[Position]TileKind)}
}

// add places a tile; a coordinate holds at most one tile
func (g *Grid) add(kind TileKind, x, y int) {
	pos := Position{X: x, Y: y}
	if _, exists := g.index[pos]; exists {
		return
	}
	g.tiles = append(g.tiles, Tile{Kind: kind, X: x, Y: y})
	g.index[pos] = kind
}

// HasWallAt reports whether a wall tile occupies (x, y)
func (g *Grid) HasWallAt(x, y int) bool {
	return g.index[Position{X: x, Y: y}] == Wall
}

// HasGoalAt reports whether a goal tile occupies (x, y)
func (g *Grid) HasGoalAt(x, y int) bool {
	return g.index[Position{X: x, Y: y}] == Goal
}

// TileAt returns the tile kind at (x, y) and whether a tile exists there
func (g *Grid) TileAt(x, y int) (TileKind, bool) {
	kind, ok := g.index[Position{X: x, Y: y}]
	return kind, ok
}

// Tiles returns a copy of the tile list in parse order
func (g *Grid) Tiles() []Tile {
	out := make([]Tile, len(g.tiles))
	copy(out, g.tiles)
	return out
}

// DisplayWidth is the pixel width of the rendered map
func (g *Grid) DisplayWidth() int {
	return CellSize * (g.Width + 1)
}

// DisplayHeight is the pixel height of the rendered map
func (g *Grid) DisplayHeight() int {
	return CellSize * (g.Height + 1)
}
