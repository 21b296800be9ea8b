package fsa

// WordSeparator is the symbol inserted between words by DeltaWord.
const WordSeparator = ' '

// cursorState is the position shared by every cursor variant. Once a
// transition fails the cursor stays invalid until the next Start.
type cursorState struct {
	a     *Automaton
	state uint32
}

// Valid reports whether every transition so far succeeded.
func (c *cursorState) Valid() bool {
	return c.state != InvalidState
}

// State returns the current state, or InvalidState.
func (c *cursorState) State() uint32 {
	return c.state
}

// IsFinal reports whether the consumed input is an accepted string.
func (c *cursorState) IsFinal() bool {
	return c.a.IsFinal(c.state)
}

// Data returns the blob of the current state, or nil if it is not final.
func (c *cursorState) Data() []byte {
	return c.a.Data(c.state)
}

// DataSize returns the blob length of the current state, or -1.
func (c *cursorState) DataSize() int {
	return c.a.DataSize(c.state)
}

// Cursor walks an automaton one symbol at a time.
// Cursors hold no shared state; use one per goroutine.
type Cursor struct {
	cursorState
}

// Cursor returns a cursor at the start state.
func (a *Automaton) Cursor() Cursor {
	return Cursor{cursorState{a: a, state: a.Start()}}
}

// Start rewinds the cursor to the start state.
func (c *Cursor) Start() {
	c.state = c.a.Start()
}

// Delta consumes one symbol and reports whether the cursor is still valid.
func (c *Cursor) Delta(symbol byte) bool {
	if c.state == InvalidState {
		return false
	}
	c.state = c.a.Delta(c.state, symbol)
	return c.state != InvalidState
}

// DeltaBytes consumes every byte of b.
func (c *Cursor) DeltaBytes(b []byte) bool {
	for _, sym := range b {
		if !c.Delta(sym) {
			return false
		}
	}
	return c.Valid()
}

// DeltaString consumes every byte of s.
func (c *Cursor) DeltaString(s string) bool {
	for i := 0; i < len(s); i++ {
		if !c.Delta(s[i]) {
			return false
		}
	}
	return c.Valid()
}

// StartWord rewinds the cursor and consumes word.
func (c *Cursor) StartWord(word string) bool {
	c.Start()
	return c.DeltaString(word)
}

// DeltaWord consumes a WordSeparator followed by word.
func (c *Cursor) DeltaWord(word string) bool {
	return c.Delta(WordSeparator) && c.DeltaString(word)
}

// HashCursor is a Cursor that sums perfect-hash deltas along its path. At a
// final state Hash is the rank of the consumed string.
type HashCursor struct {
	cursorState
	hash uint32
}

// HashCursor returns a hashing cursor at the start state.
func (a *Automaton) HashCursor() HashCursor {
	return HashCursor{cursorState: cursorState{a: a, state: a.Start()}}
}

// Hash returns the accumulated perfect hash.
func (c *HashCursor) Hash() uint32 {
	return c.hash
}

func (c *HashCursor) Start() {
	c.state = c.a.Start()
	c.hash = 0
}

func (c *HashCursor) Delta(symbol byte) bool {
	if c.state == InvalidState {
		return false
	}
	c.hash += c.a.HashDelta(c.state, symbol)
	c.state = c.a.Delta(c.state, symbol)
	return c.state != InvalidState
}

func (c *HashCursor) DeltaBytes(b []byte) bool {
	for _, sym := range b {
		if !c.Delta(sym) {
			return false
		}
	}
	return c.Valid()
}

func (c *HashCursor) DeltaString(s string) bool {
	for i := 0; i < len(s); i++ {
		if !c.Delta(s[i]) {
			return false
		}
	}
	return c.Valid()
}

func (c *HashCursor) StartWord(word string) bool {
	c.Start()
	return c.DeltaString(word)
}

func (c *HashCursor) DeltaWord(word string) bool {
	return c.Delta(WordSeparator) && c.DeltaString(word)
}

// CountingCursor counts successful transitions since Start.
type CountingCursor struct {
	cursorState
	count int
}

// CountingCursor returns a counting cursor at the start state.
func (a *Automaton) CountingCursor() CountingCursor {
	return CountingCursor{cursorState: cursorState{a: a, state: a.Start()}}
}

// Count returns the number of symbols consumed.
func (c *CountingCursor) Count() int {
	return c.count
}

func (c *CountingCursor) Start() {
	c.state = c.a.Start()
	c.count = 0
}

func (c *CountingCursor) Delta(symbol byte) bool {
	if c.state == InvalidState {
		return false
	}
	if c.state = c.a.Delta(c.state, symbol); c.state == InvalidState {
		return false
	}
	c.count++
	return true
}

func (c *CountingCursor) DeltaBytes(b []byte) bool {
	for _, sym := range b {
		if !c.Delta(sym) {
			return false
		}
	}
	return c.Valid()
}

func (c *CountingCursor) DeltaString(s string) bool {
	for i := 0; i < len(s); i++ {
		if !c.Delta(s[i]) {
			return false
		}
	}
	return c.Valid()
}

func (c *CountingCursor) StartWord(word string) bool {
	c.Start()
	return c.DeltaString(word)
}

func (c *CountingCursor) DeltaWord(word string) bool {
	return c.Delta(WordSeparator) && c.DeltaString(word)
}

// WordCountingCursor counts the words consumed through StartWord and
// DeltaWord.
type WordCountingCursor struct {
	cursorState
	words int
}

// WordCountingCursor returns a word-counting cursor at the start state.
func (a *Automaton) WordCountingCursor() WordCountingCursor {
	return WordCountingCursor{cursorState: cursorState{a: a, state: a.Start()}}
}

// Words returns the number of complete words consumed.
func (c *WordCountingCursor) Words() int {
	return c.words
}

func (c *WordCountingCursor) Start() {
	c.state = c.a.Start()
	c.words = 0
}

func (c *WordCountingCursor) Delta(symbol byte) bool {
	if c.state == InvalidState {
		return false
	}
	c.state = c.a.Delta(c.state, symbol)
	return c.state != InvalidState
}

func (c *WordCountingCursor) DeltaBytes(b []byte) bool {
	for _, sym := range b {
		if !c.Delta(sym) {
			return false
		}
	}
	return c.Valid()
}

func (c *WordCountingCursor) DeltaString(s string) bool {
	for i := 0; i < len(s); i++ {
		if !c.Delta(s[i]) {
			return false
		}
	}
	return c.Valid()
}

func (c *WordCountingCursor) StartWord(word string) bool {
	c.Start()
	if !c.DeltaString(word) {
		return false
	}
	c.words++
	return true
}

func (c *WordCountingCursor) DeltaWord(word string) bool {
	if !c.Delta(WordSeparator) || !c.DeltaString(word) {
		return false
	}
	c.words++
	return true
}

// MemoryCursor records the symbols it has consumed.
type MemoryCursor struct {
	cursorState
	memory []byte
}

// MemoryCursor returns a recording cursor at the start state.
func (a *Automaton) MemoryCursor() MemoryCursor {
	return MemoryCursor{cursorState: cursorState{a: a, state: a.Start()}}
}

// Memory returns the symbols consumed since Start. The slice is reused.
func (c *MemoryCursor) Memory() []byte {
	return c.memory
}

func (c *MemoryCursor) Start() {
	c.state = c.a.Start()
	c.memory = c.memory[:0]
}

func (c *MemoryCursor) Delta(symbol byte) bool {
	if c.state == InvalidState {
		return false
	}
	if c.state = c.a.Delta(c.state, symbol); c.state == InvalidState {
		return false
	}
	c.memory = append(c.memory, symbol)
	return true
}

func (c *MemoryCursor) DeltaBytes(b []byte) bool {
	for _, sym := range b {
		if !c.Delta(sym) {
			return false
		}
	}
	return c.Valid()
}

func (c *MemoryCursor) DeltaString(s string) bool {
	for i := 0; i < len(s); i++ {
		if !c.Delta(s[i]) {
			return false
		}
	}
	return c.Valid()
}

func (c *MemoryCursor) StartWord(word string) bool {
	c.Start()
	return c.DeltaString(word)
}

func (c *MemoryCursor) DeltaWord(word string) bool {
	return c.Delta(WordSeparator) && c.DeltaString(word)
}

// HashCountingCursor sums perfect-hash deltas and counts transitions.
type HashCountingCursor struct {
	cursorState
	hash  uint32
	count int
}

// HashCountingCursor returns a hashing, counting cursor at the start state.
func (a *Automaton) HashCountingCursor() HashCountingCursor {
	return HashCountingCursor{cursorState: cursorState{a: a, state: a.Start()}}
}

func (c *HashCountingCursor) Hash() uint32 {
	return c.hash
}

func (c *HashCountingCursor) Count() int {
	return c.count
}

func (c *HashCountingCursor) Start() {
	c.state = c.a.Start()
	c.hash = 0
	c.count = 0
}

func (c *HashCountingCursor) Delta(symbol byte) bool {
	if c.state == InvalidState {
		return false
	}
	c.hash += c.a.HashDelta(c.state, symbol)
	if c.state = c.a.Delta(c.state, symbol); c.state == InvalidState {
		return false
	}
	c.count++
	return true
}

func (c *HashCountingCursor) DeltaBytes(b []byte) bool {
	for _, sym := range b {
		if !c.Delta(sym) {
			return false
		}
	}
	return c.Valid()
}

func (c *HashCountingCursor) DeltaString(s string) bool {
	for i := 0; i < len(s); i++ {
		if !c.Delta(s[i]) {
			return false
		}
	}
	return c.Valid()
}

func (c *HashCountingCursor) StartWord(word string) bool {
	c.Start()
	return c.DeltaString(word)
}

func (c *HashCountingCursor) DeltaWord(word string) bool {
	return c.Delta(WordSeparator) && c.DeltaString(word)
}

// HashMemoryCursor sums perfect-hash deltas and records consumed symbols.
type HashMemoryCursor struct {
	cursorState
	hash   uint32
	memory []byte
}

// HashMemoryCursor returns a hashing, recording cursor at the start state.
func (a *Automaton) HashMemoryCursor() HashMemoryCursor {
	return HashMemoryCursor{cursorState: cursorState{a: a, state: a.Start()}}
}

func (c *HashMemoryCursor) Hash() uint32 {
	return c.hash
}

func (c *HashMemoryCursor) Memory() []byte {
	return c.memory
}

func (c *HashMemoryCursor) Start() {
	c.state = c.a.Start()
	c.hash = 0
	c.memory = c.memory[:0]
}

func (c *HashMemoryCursor) Delta(symbol byte) bool {
	if c.state == InvalidState {
		return false
	}
	c.hash += c.a.HashDelta(c.state, symbol)
	if c.state = c.a.Delta(c.state, symbol); c.state == InvalidState {
		return false
	}
	c.memory = append(c.memory, symbol)
	return true
}

func (c *HashMemoryCursor) DeltaBytes(b []byte) bool {
	for _, sym := range b {
		if !c.Delta(sym) {
			return false
		}
	}
	return c.Valid()
}

func (c *HashMemoryCursor) DeltaString(s string) bool {
	for i := 0; i < len(s); i++ {
		if !c.Delta(s[i]) {
			return false
		}
	}
	return c.Valid()
}

func (c *HashMemoryCursor) StartWord(word string) bool {
	c.Start()
	return c.DeltaString(word)
}

func (c *HashMemoryCursor) DeltaWord(word string) bool {
	return c.Delta(WordSeparator) && c.DeltaString(word)
}
