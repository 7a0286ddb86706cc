package contract

// DefaultStage is the stage a contract starts in.
const DefaultStage = "1"

// State is the latest derived snapshot for one contract, computed by folding
// its log history. Snapshots are copy-on-write: a merge never mutates the
// prior snapshot, so concurrent readers are safe.
type State struct {
	ContractAddress string   `json:"contractAddress"`
	Exporter        string   `json:"exporter,omitempty"`
	Importer        string   `json:"importer,omitempty"`
	Logistics       []string `json:"logistics"`
	Status          Action   `json:"status"`
	CurrentStage    string   `json:"currentStage"`
	LastUpdated     int64    `json:"lastUpdated"`
}

// Clone returns a deep copy; the logistics slice is never aliased.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	next := *s
	next.Logistics = make([]string, len(s.Logistics))
	copy(next.Logistics, s.Logistics)
	return &next
}

// HasLogistic reports whether addr is a current logistics participant.
func (s *State) HasLogistic(addr string) bool {
	for _, l := range s.Logistics {
		if l == addr {
			return true
		}
	}
	return false
}

// Participants returns every currently known party address, deduplicated.
func (s *State) Participants() []string {
	seen := make(map[string]struct{}, len(s.Logistics)+2)
	out := make([]string, 0, len(s.Logistics)+2)
	add := func(addr string) {
		if addr == "" {
			return
		}
		if _, ok := seen[addr]; ok {
			return
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	add(s.Exporter)
	add(s.Importer)
	for _, l := range s.Logistics {
		add(l)
	}
	return out
}
