package audio

import (
	"fmt"
	"os"
	"sort"

	"github.com/tversteeg/cacophony"
)

// fontBanks is the enumerated catalog of one loaded instrument bank file:
// which presets each bank number defines, plus the synthesizer-side handle.
type fontBanks struct {
	handle cacophony.FontHandle
	path   string
	// bankNumbers is sorted ascending; banks maps a bank number to its
	// sorted preset numbers.
	bankNumbers []int
	banks       map[int][]int
	names       map[[2]int]string
}

func newFontBanks(handle cacophony.FontHandle, path string, presets []cacophony.PresetInfo) *fontBanks {
	f := &fontBanks{
		handle: handle,
		path:   path,
		banks:  make(map[int][]int),
		names:  make(map[[2]int]string),
	}
	for _, p := range presets {
		f.banks[p.Bank] = append(f.banks[p.Bank], p.Preset)
		f.names[[2]int{p.Bank, p.Preset}] = p.Name
	}
	for bank := range f.banks {
		sort.Ints(f.banks[bank])
		f.bankNumbers = append(f.bankNumbers, bank)
	}
	sort.Ints(f.bankNumbers)
	return f
}

func (f *fontBanks) presetName(bank, preset int) string {
	return f.names[[2]int{bank, preset}]
}

// fontArena is the set of loaded instrument banks, indexed by handle with a
// path lookup table. Banks are never unloaded; re-loading a path is a
// no-op.
type fontArena struct {
	fonts  []*fontBanks
	byPath map[string]cacophony.FontHandle
}

func newFontArena() *fontArena {
	return &fontArena{byPath: make(map[string]cacophony.FontHandle)}
}

func (a *fontArena) lookup(path string) (*fontBanks, bool) {
	handle, ok := a.byPath[path]
	if !ok {
		return nil, false
	}
	return a.fonts[handle], true
}

// load parses the file at path with the synthesizer and enumerates its
// catalog. The caller must have checked that the path is not loaded yet.
func (a *fontArena) load(path string, synth cacophony.Synth) (*fontBanks, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open SoundFont %v: %w", path, err)
	}
	defer f.Close()
	handle, presets, err := synth.AddFont(f)
	if err != nil {
		return nil, fmt.Errorf("could not load SoundFont %v: %w", path, err)
	}
	banks := newFontBanks(handle, path, presets)
	a.fonts = append(a.fonts, banks)
	a.byPath[path] = handle
	return banks, nil
}

// Program is a channel's current instrument assignment: the chosen bank and
// preset plus their positions in the sorted catalog, for display.
type Program struct {
	Path        string `yaml:"path"`
	NumBanks    int    `yaml:"num_banks"`
	BankIndex   int    `yaml:"bank_index"`
	Bank        int    `yaml:"bank"`
	NumPresets  int    `yaml:"num_presets"`
	PresetIndex int    `yaml:"preset_index"`
	Preset      int    `yaml:"preset"`
	PresetName  string `yaml:"preset_name"`
}

// SynthState mirrors the synthesizer-facing state for display and
// save/restore. It is only updated after the corresponding synthesizer call
// succeeded, so the two can never diverge.
type SynthState struct {
	Programs map[uint8]Program `yaml:"programs"`
	Gain     uint8             `yaml:"gain"`
}

func NewSynthState() SynthState {
	return SynthState{
		Programs: make(map[uint8]Program),
		Gain:     cacophony.MaxVolume,
	}
}
